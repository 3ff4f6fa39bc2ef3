package documents

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/eluia/engine/internal/db"
	"github.com/eluia/engine/internal/embeddings"
)

// PartitionWriter persists a full chunk partition, replacing whatever
// was stored for the same (candidate, doc_type) key.
type PartitionWriter interface {
	ReplacePartition(ctx context.Context, candidateID int64, docType string, chunks []*db.ProgramChunk) error
}

// Stats summarizes one successful ingestion.
type Stats struct {
	Units  int
	Chunks int
}

// Processor runs the ingestion path for one upload: extract text units,
// cut them into word-window chunks, embed every chunk in one batch, and
// atomically replace the candidate's partition for that document
// category.
type Processor struct {
	store     PartitionWriter
	embedder  embeddings.Embedder
	extractor *Extractor
	chunker   *Chunker
}

// NewProcessor creates a document processor. The chunker has already
// validated its window parameters, so a Processor never fails on
// configuration at upload time.
func NewProcessor(store PartitionWriter, embedder embeddings.Embedder, extractor *Extractor, chunker *Chunker) *Processor {
	return &Processor{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
	}
}

// Process ingests one uploaded document for a candidate and category.
// On any failure the previous partition stays untouched and the upload
// can simply be retried.
func (p *Processor) Process(ctx context.Context, candidateID int64, docType string, data []byte, filename string) (*Stats, error) {
	units, err := p.extractor.Extract(data, filename)
	if err != nil {
		return nil, err
	}

	chunks := p.chunker.ChunkUnits(units, filename)
	if len(chunks) == 0 {
		return nil, &ExtractionError{Filename: filename, Reason: "no text could be extracted"}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &IngestionError{Stage: "vectorization", Err: err}
	}

	rows := make([]*db.ProgramChunk, len(chunks))
	for i, chunk := range chunks {
		vec := pgvector.NewVector(vectors[i])
		rows[i] = &db.ProgramChunk{
			ID:             uuid.New(),
			CandidateID:    candidateID,
			DocType:        docType,
			Position:       i,
			Page:           chunk.Page,
			ChunkIndex:     chunk.ChunkIndex,
			SourceFilename: chunk.SourceFilename,
			Content:        chunk.Text,
			Embedding:      &vec,
		}
	}

	if err := p.store.ReplacePartition(ctx, candidateID, docType, rows); err != nil {
		return nil, &IngestionError{Stage: "persistence", Err: err}
	}

	return &Stats{Units: len(units), Chunks: len(chunks)}, nil
}
