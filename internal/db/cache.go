package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TouchCachedAnswer returns the cached answer for a question hash and,
// as part of the same statement, bumps its hit count and last-used
// timestamp. The bool reports whether an entry existed.
func (db *DB) TouchCachedAnswer(ctx context.Context, candidateID int64, questionHash string) (string, bool, error) {
	var answer string
	err := db.pool.QueryRow(ctx,
		`UPDATE qa_cache
		 SET hit_count = hit_count + 1, last_used = NOW()
		 WHERE candidate_id = $1 AND question_hash = $2
		 RETURNING answer`,
		candidateID, questionHash,
	).Scan(&answer)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up cached answer: %w", err)
	}
	return answer, true, nil
}

// InsertCachedAnswer stores a question/answer pair. The unique
// constraint on (candidate_id, question_hash) plus ON CONFLICT DO
// NOTHING makes the insert first-write-wins: when two generations race,
// exactly one lands and the other is a no-op.
func (db *DB) InsertCachedAnswer(ctx context.Context, candidateID int64, questionHash, question, answer string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO qa_cache (candidate_id, question_hash, question, answer, hit_count)
		 VALUES ($1, $2, $3, $4, 0)
		 ON CONFLICT (candidate_id, question_hash) DO NOTHING`,
		candidateID, questionHash, question, answer,
	)
	if err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	return nil
}
