package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ProgramChunk is one embedded slice of a candidate's document. All
// chunks sharing (candidate_id, doc_type) form a partition that is
// replaced as a whole on each successful upload.
type ProgramChunk struct {
	ID             uuid.UUID
	CandidateID    int64
	DocType        string
	Position       int // insertion order within the partition
	Page           int
	ChunkIndex     int // ordinal within the page/unit
	SourceFilename string
	Content        string
	Embedding      *pgvector.Vector
	CreatedAt      time.Time
}

// CachedAnswer is a previously generated answer keyed by the hash of a
// normalized question. The first answer cached for a question wins;
// later generations do not overwrite it.
type CachedAnswer struct {
	ID           int64
	CandidateID  int64
	QuestionHash string
	Question     string
	Answer       string
	HitCount     int
	CreatedAt    time.Time
	LastUsed     time.Time
}

// Conversation is one public chat exchange. IPHash is the hashed caller
// identity used for rate counting; the raw address is never stored.
type Conversation struct {
	ID             uuid.UUID
	CandidateID    int64
	IPHash         string
	Question       string
	Answer         string
	ResponseTimeMS int
	CreatedAt      time.Time
}

// CostLog records the token usage and cost of one provider call.
type CostLog struct {
	ID           uuid.UUID
	CandidateID  int64
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Operation    string
	CreatedAt    time.Time
}
