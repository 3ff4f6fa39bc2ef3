package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ReplacePartition atomically replaces all chunks for one
// (candidate_id, doc_type) partition. The delete and the inserts run in
// a single transaction, so a concurrent reader sees either the full old
// partition or the full new one, never a mix.
func (db *DB) ReplacePartition(ctx context.Context, candidateID int64, docType string, chunks []*ProgramChunk) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM program_chunks WHERE candidate_id = $1 AND doc_type = $2`,
		candidateID, docType,
	)
	if err != nil {
		return fmt.Errorf("failed to clear partition: %w", err)
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO program_chunks
			 (id, candidate_id, doc_type, position, page, chunk_index, source_filename, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			chunk.ID, chunk.CandidateID, chunk.DocType, chunk.Position,
			chunk.Page, chunk.ChunkIndex, chunk.SourceFilename, chunk.Content, chunk.Embedding,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to flush chunk batch: %w", err)
	}

	return tx.Commit(ctx)
}

// GetPartition point-reads one (candidate_id, doc_type) partition in
// insertion order. A missing partition returns an empty slice, not an
// error.
func (db *DB) GetPartition(ctx context.Context, candidateID int64, docType string) ([]*ProgramChunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, doc_type, position, page, chunk_index, source_filename, content, embedding, created_at
		 FROM program_chunks
		 WHERE candidate_id = $1 AND doc_type = $2
		 ORDER BY position`,
		candidateID, docType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition: %w", err)
	}
	defer rows.Close()

	var chunks []*ProgramChunk
	for rows.Next() {
		var chunk ProgramChunk
		if err := rows.Scan(
			&chunk.ID, &chunk.CandidateID, &chunk.DocType, &chunk.Position,
			&chunk.Page, &chunk.ChunkIndex, &chunk.SourceFilename,
			&chunk.Content, &chunk.Embedding, &chunk.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}
