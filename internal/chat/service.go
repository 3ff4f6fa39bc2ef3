// Package chat runs one public chat message through the engine: quota
// gate, context retrieval, answer cache, generation, cost accounting,
// and the conversation log.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/eluia/engine/internal/db"
	"github.com/eluia/engine/internal/identity"
	"github.com/eluia/engine/internal/llm"
	"github.com/eluia/engine/internal/rag"
	"github.com/eluia/engine/internal/ratelimit"
)

// ErrRateLimited is returned when a caller has used up today's quota.
var ErrRateLimited = errors.New("daily message limit reached")

// Retriever finds relevant program sections for a question.
type Retriever interface {
	Search(ctx context.Context, candidateID int64, question string, docTypes []string) ([]rag.Result, error)
}

// AnswerCache is the question/answer cache consulted before and updated
// after generation.
type AnswerCache interface {
	Lookup(ctx context.Context, candidateID int64, question string) (string, bool, error)
	Store(ctx context.Context, candidateID int64, question, answer string) error
}

// RateLimiter gates every message against the daily quota.
type RateLimiter interface {
	Check(ctx context.Context, candidateID int64, hashedIdentity string) (ratelimit.Decision, error)
}

// EventLog persists conversations and cost records.
type EventLog interface {
	InsertConversation(ctx context.Context, conv *db.Conversation) error
	InsertCostLog(ctx context.Context, log *db.CostLog) error
}

// Response is the engine's reply to one citizen message.
type Response struct {
	Answer    string
	Cached    bool
	Remaining int
}

// Service orchestrates the chat pipeline for a candidate's public chat.
type Service struct {
	retriever Retriever
	cache     AnswerCache
	limiter   RateLimiter
	generator llm.Generator
	log       EventLog
	prompts   *rag.ContextBuilder
}

// NewService wires the chat pipeline.
func NewService(retriever Retriever, cache AnswerCache, limiter RateLimiter, generator llm.Generator, log EventLog) *Service {
	return &Service{
		retriever: retriever,
		cache:     cache,
		limiter:   limiter,
		generator: generator,
		log:       log,
		prompts:   rag.NewContextBuilder(),
	}
}

// Ask answers one citizen question. callerAddr is the caller's network
// address; only its hash ever reaches storage. Returns ErrRateLimited
// when the caller's quota for today is spent. Retrieval or generation
// faults downgrade to a fixed apology answer rather than an error.
func (s *Service) Ask(ctx context.Context, profile *rag.AgentProfile, question, callerAddr string) (*Response, error) {
	ipHash := identity.Hash(callerAddr)

	decision, err := s.limiter.Check(ctx, profile.CandidateID, ipHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !decision.Allowed {
		return nil, ErrRateLimited
	}

	start := time.Now()
	answer, cached := s.answer(ctx, profile, question)
	responseTime := int(time.Since(start).Milliseconds())

	conv := &db.Conversation{
		ID:             uuid.New(),
		CandidateID:    profile.CandidateID,
		IPHash:         ipHash,
		Question:       question,
		Answer:         answer,
		ResponseTimeMS: responseTime,
	}
	if err := s.log.InsertConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to log conversation: %w", err)
	}

	// Remaining is re-read after the insert so the reply reflects the
	// message just logged, matching how the quota itself is counted.
	decision, err = s.limiter.Check(ctx, profile.CandidateID, ipHash)
	if err != nil {
		return nil, fmt.Errorf("failed to recheck rate limit: %w", err)
	}

	return &Response{
		Answer:    answer,
		Cached:    cached,
		Remaining: decision.Remaining,
	}, nil
}

// answer produces the reply text. Faults never escape: they become the
// fixed apology message, and an empty retrieval becomes the fixed
// fallback without invoking generation.
func (s *Service) answer(ctx context.Context, profile *rag.AgentProfile, question string) (string, bool) {
	sections, err := s.retriever.Search(ctx, profile.CandidateID, question, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: retrieval failed: %v\n", err)
		return s.prompts.ApologyMessage(), false
	}
	if len(sections) == 0 {
		return s.prompts.FallbackMessage(profile), false
	}

	if cached, hit, err := s.cache.Lookup(ctx, profile.CandidateID, question); err == nil && hit {
		return cached, true
	}

	reply, err := s.generator.Generate(ctx, s.prompts.SystemPrompt(profile, sections), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: generation failed: %v\n", err)
		return s.prompts.ApologyMessage(), false
	}

	cost := &db.CostLog{
		ID:           uuid.New(),
		CandidateID:  profile.CandidateID,
		Model:        reply.Model,
		InputTokens:  reply.InputTokens,
		OutputTokens: reply.OutputTokens,
		CostUSD:      llm.Cost(reply.Model, reply.InputTokens, reply.OutputTokens),
		Operation:    "chat",
	}
	if err := s.log.InsertCostLog(ctx, cost); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to log cost: %v\n", err)
	}

	if err := s.cache.Store(ctx, profile.CandidateID, question, reply.Text); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to cache answer: %v\n", err)
	}

	return reply.Text, false
}
