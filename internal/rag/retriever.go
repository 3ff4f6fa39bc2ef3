package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/eluia/engine/internal/db"
	"github.com/eluia/engine/internal/embeddings"
)

// DefaultDocTypes are the document categories searched when the caller
// does not name any.
var DefaultDocTypes = []string{"program", "talking_points", "competitive"}

// PartitionSource point-reads one stored chunk partition. A missing
// partition is an empty slice, not an error.
type PartitionSource interface {
	GetPartition(ctx context.Context, candidateID int64, docType string) ([]*db.ProgramChunk, error)
}

// Result is one retrieved chunk with provenance and a relevance score.
// Similarity is cosine similarity against the question vector; higher
// is more relevant.
type Result struct {
	Text           string
	Page           int
	SourceFilename string
	DocType        string
	Similarity     float64
}

// Retriever ranks a candidate's stored chunks against a question.
type Retriever struct {
	store    PartitionSource
	embedder embeddings.Embedder
	topK     int
}

// NewRetriever creates a retriever returning at most topK results.
func NewRetriever(store PartitionSource, embedder embeddings.Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// Search embeds the question once and scores it against every stored
// vector in the candidate's partitions for the given categories.
// Categories without a stored partition are skipped. Results are merged
// across categories and sorted by descending similarity; ties keep
// insertion order. A candidate with no partitions yields an empty
// result, not an error - callers treat that as "no program yet".
func (r *Retriever) Search(ctx context.Context, candidateID int64, question string, docTypes []string) ([]Result, error) {
	if len(docTypes) == 0 {
		docTypes = DefaultDocTypes
	}

	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	var results []Result
	for _, docType := range docTypes {
		chunks, err := r.store.GetPartition(ctx, candidateID, docType)
		if err != nil {
			return nil, fmt.Errorf("failed to load partition %q: %w", docType, err)
		}
		for _, chunk := range chunks {
			if chunk.Embedding == nil {
				continue
			}
			results = append(results, Result{
				Text:           chunk.Content,
				Page:           chunk.Page,
				SourceFilename: chunk.SourceFilename,
				DocType:        chunk.DocType,
				Similarity:     cosineSimilarity(queryVec, chunk.Embedding.Slice()),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > r.topK {
		results = results[:r.topK]
	}
	return results, nil
}

// cosineSimilarity is dot(a,b) / (|a|*|b|). Either zero vector scores
// zero rather than dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
