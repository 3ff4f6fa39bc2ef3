package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/engine/internal/db"
	"github.com/eluia/engine/internal/llm"
	"github.com/eluia/engine/internal/rag"
	"github.com/eluia/engine/internal/ratelimit"
)

type fakeRetriever struct {
	results []rag.Result
	err     error
}

func (f *fakeRetriever) Search(context.Context, int64, string, []string) ([]rag.Result, error) {
	return f.results, f.err
}

type fakeCache struct {
	answers    map[string]string
	lookupErr  error
	storeErr   error
	stored     []string
	storedText map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{answers: map[string]string{}, storedText: map[string]string{}}
}

func (f *fakeCache) Lookup(_ context.Context, _ int64, question string) (string, bool, error) {
	if f.lookupErr != nil {
		return "", false, f.lookupErr
	}
	answer, ok := f.answers[question]
	return answer, ok, nil
}

func (f *fakeCache) Store(_ context.Context, _ int64, question, answer string) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, question)
	f.storedText[question] = answer
	return nil
}

// fakeLimiter counts the conversations it has admitted so the second
// quota check inside Ask sees the inserted message.
type fakeLimiter struct {
	quota int
	used  int
	err   error
}

func (f *fakeLimiter) Check(context.Context, int64, string) (ratelimit.Decision, error) {
	if f.err != nil {
		return ratelimit.Decision{}, f.err
	}
	remaining := f.quota - f.used
	if remaining < 0 {
		remaining = 0
	}
	return ratelimit.Decision{Allowed: f.used < f.quota, Remaining: remaining}, nil
}

type fakeGenerator struct {
	reply            *llmReply
	err              error
	calls            int
	lastSystemPrompt string
}

type llmReply struct {
	text         string
	model        string
	inputTokens  int
	outputTokens int
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, _ string) (*llm.Reply, error) {
	f.calls++
	f.lastSystemPrompt = systemPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Reply{
		Text:         f.reply.text,
		Model:        f.reply.model,
		InputTokens:  f.reply.inputTokens,
		OutputTokens: f.reply.outputTokens,
	}, nil
}

type fakeLog struct {
	conversations []*db.Conversation
	costs         []*db.CostLog
	convErr       error
}

func (f *fakeLog) InsertConversation(_ context.Context, conv *db.Conversation) error {
	if f.convErr != nil {
		return f.convErr
	}
	f.conversations = append(f.conversations, conv)
	return nil
}

func (f *fakeLog) InsertCostLog(_ context.Context, log *db.CostLog) error {
	f.costs = append(f.costs, log)
	return nil
}

func profile() *rag.AgentProfile {
	return &rag.AgentProfile{
		CandidateID:    1,
		Name:           "Marie Dupont",
		AgentName:      "Assistant Marie",
		Tone:           "accessible",
		ResponseLength: "concise",
	}
}

func sections() []rag.Result {
	return []rag.Result{{Text: "Nous planterons 1000 arbres.", Page: 3, DocType: "program", Similarity: 0.9}}
}

type limiterWithInsertTracking struct {
	*fakeLimiter
	log *fakeLog
}

func (l *limiterWithInsertTracking) Check(ctx context.Context, candidateID int64, hash string) (ratelimit.Decision, error) {
	l.fakeLimiter.used = len(l.log.conversations)
	return l.fakeLimiter.Check(ctx, candidateID, hash)
}

func TestServiceAsk(t *testing.T) {
	ctx := context.Background()

	newService := func(retriever *fakeRetriever, cache *fakeCache, limiter RateLimiter, gen *fakeGenerator, log *fakeLog) *Service {
		return NewService(retriever, cache, limiter, gen, log)
	}

	t.Run("generated answer is logged, costed and cached", func(t *testing.T) {
		log := &fakeLog{}
		cache := newFakeCache()
		gen := &fakeGenerator{reply: &llmReply{
			text:         "Le programme prévoit 1000 arbres (page 3).",
			model:        "claude-3-haiku-20240307",
			inputTokens:  500,
			outputTokens: 100,
		}}
		limiter := &limiterWithInsertTracking{fakeLimiter: &fakeLimiter{quota: 20}, log: log}
		svc := newService(&fakeRetriever{results: sections()}, cache, limiter, gen, log)

		resp, err := svc.Ask(ctx, profile(), "Parlez-moi des arbres", "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, "Le programme prévoit 1000 arbres (page 3).", resp.Answer)
		assert.False(t, resp.Cached)
		assert.Equal(t, 19, resp.Remaining, "remaining reflects the message just logged")

		require.Len(t, log.conversations, 1)
		conv := log.conversations[0]
		assert.Equal(t, "Parlez-moi des arbres", conv.Question)
		assert.NotEqual(t, "203.0.113.7", conv.IPHash, "raw address must never reach the log")
		assert.Len(t, conv.IPHash, 64)

		require.Len(t, log.costs, 1)
		assert.Equal(t, "chat", log.costs[0].Operation)
		assert.InDelta(t, 500*0.25/1e6+100*1.25/1e6, log.costs[0].CostUSD, 1e-12)

		assert.Equal(t, []string{"Parlez-moi des arbres"}, cache.stored)
	})

	t.Run("spent quota refuses before any work", func(t *testing.T) {
		log := &fakeLog{}
		gen := &fakeGenerator{reply: &llmReply{text: "jamais"}}
		svc := newService(&fakeRetriever{results: sections()}, newFakeCache(), &fakeLimiter{quota: 20, used: 20}, gen, log)

		_, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.ErrorIs(t, err, ErrRateLimited)
		assert.Zero(t, gen.calls)
		assert.Empty(t, log.conversations)
	})

	t.Run("cache hit skips generation", func(t *testing.T) {
		log := &fakeLog{}
		cache := newFakeCache()
		cache.answers["question connue"] = "réponse mémorisée"
		gen := &fakeGenerator{reply: &llmReply{text: "jamais"}}
		svc := newService(&fakeRetriever{results: sections()}, cache, &fakeLimiter{quota: 20}, gen, log)

		resp, err := svc.Ask(ctx, profile(), "question connue", "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, resp.Cached)
		assert.Equal(t, "réponse mémorisée", resp.Answer)
		assert.Zero(t, gen.calls)
		assert.Empty(t, log.costs)
		require.Len(t, log.conversations, 1, "cached replies still count against the quota")
	})

	t.Run("empty retrieval yields the fallback without generating", func(t *testing.T) {
		log := &fakeLog{}
		gen := &fakeGenerator{reply: &llmReply{text: "jamais"}}
		svc := newService(&fakeRetriever{}, newFakeCache(), &fakeLimiter{quota: 20}, gen, log)

		resp, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.NoError(t, err)
		assert.Contains(t, resp.Answer, "Marie Dupont")
		assert.Contains(t, resp.Answer, "pas encore accès au programme")
		assert.False(t, resp.Cached)
		assert.Zero(t, gen.calls)
	})

	t.Run("retrieval fault downgrades to the apology", func(t *testing.T) {
		log := &fakeLog{}
		svc := newService(&fakeRetriever{err: errors.New("embedder down")}, newFakeCache(), &fakeLimiter{quota: 20}, &fakeGenerator{}, log)

		resp, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.NoError(t, err)
		assert.Contains(t, resp.Answer, "erreur technique")
		require.Len(t, log.conversations, 1)
	})

	t.Run("generation fault downgrades to the apology and caches nothing", func(t *testing.T) {
		log := &fakeLog{}
		cache := newFakeCache()
		svc := newService(&fakeRetriever{results: sections()}, cache, &fakeLimiter{quota: 20}, &fakeGenerator{err: errors.New("provider 500")}, log)

		resp, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.NoError(t, err)
		assert.Contains(t, resp.Answer, "erreur technique")
		assert.Empty(t, cache.stored)
		assert.Empty(t, log.costs)
	})

	t.Run("cache write failure does not lose the answer", func(t *testing.T) {
		log := &fakeLog{}
		cache := newFakeCache()
		cache.storeErr = errors.New("unique violation")
		gen := &fakeGenerator{reply: &llmReply{text: "réponse", model: "claude-3-haiku-20240307"}}
		svc := newService(&fakeRetriever{results: sections()}, cache, &fakeLimiter{quota: 20}, gen, log)

		resp, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.NoError(t, err)
		assert.Equal(t, "réponse", resp.Answer)
	})

	t.Run("conversation log failure is an error", func(t *testing.T) {
		log := &fakeLog{convErr: errors.New("db down")}
		gen := &fakeGenerator{reply: &llmReply{text: "réponse"}}
		svc := newService(&fakeRetriever{results: sections()}, newFakeCache(), &fakeLimiter{quota: 20}, gen, log)

		_, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.Error(t, err)
	})

	t.Run("system prompt carries the retrieved sections", func(t *testing.T) {
		log := &fakeLog{}
		gen := &fakeGenerator{reply: &llmReply{text: "réponse"}}
		svc := newService(&fakeRetriever{results: sections()}, newFakeCache(), &fakeLimiter{quota: 20}, gen, log)

		_, err := svc.Ask(ctx, profile(), "question", "203.0.113.7")
		require.NoError(t, err)
		require.Equal(t, 1, gen.calls)
		assert.True(t, strings.Contains(gen.lastSystemPrompt, "[Page 3]"))
		assert.True(t, strings.Contains(gen.lastSystemPrompt, "1000 arbres"))
		assert.True(t, strings.Contains(gen.lastSystemPrompt, "Assistant Marie"))
	})
}
