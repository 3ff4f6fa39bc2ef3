package cache

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	question string
	answer   string
	hits     int
}

// memStore is an in-memory Store with the same first-write-wins and
// touch-on-hit behavior as the SQL-backed one.
type memStore struct {
	entries map[string]*entry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*entry)}
}

func key(candidateID int64, questionHash string) string {
	return fmt.Sprintf("%d:%s", candidateID, questionHash)
}

func (m *memStore) TouchCachedAnswer(_ context.Context, candidateID int64, questionHash string) (string, bool, error) {
	e, ok := m.entries[key(candidateID, questionHash)]
	if !ok {
		return "", false, nil
	}
	e.hits++
	return e.answer, true, nil
}

func (m *memStore) InsertCachedAnswer(_ context.Context, candidateID int64, questionHash, question, answer string) error {
	k := key(candidateID, questionHash)
	if _, ok := m.entries[k]; ok {
		return nil
	}
	m.entries[k] = &entry{question: question, answer: answer}
	return nil
}

func TestHashQuestion(t *testing.T) {
	t.Run("is hex sha256", func(t *testing.T) {
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), HashQuestion("Quel est votre programme ?"))
	})

	t.Run("case and surrounding whitespace do not matter", func(t *testing.T) {
		assert.Equal(t, HashQuestion("What about taxes?"), HashQuestion("  what about taxes?  "))
		assert.Equal(t, HashQuestion("BONJOUR"), HashQuestion("bonjour"))
	})

	t.Run("interior whitespace matters", func(t *testing.T) {
		assert.NotEqual(t, HashQuestion("what about taxes?"), HashQuestion("what  about taxes?"))
	})
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss creates nothing", func(t *testing.T) {
		store := newMemStore()
		c := New(store)

		_, found, err := c.Lookup(ctx, 1, "question inédite")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, store.entries)
	})

	t.Run("stored answer is returned for equivalent phrasings", func(t *testing.T) {
		store := newMemStore()
		c := New(store)

		require.NoError(t, c.Store(ctx, 1, "What about taxes?", "réponse fiscale"))

		answer, found, err := c.Lookup(ctx, 1, "  what about taxes?  ")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "réponse fiscale", answer)
	})

	t.Run("first write wins", func(t *testing.T) {
		store := newMemStore()
		c := New(store)

		require.NoError(t, c.Store(ctx, 1, "question", "première réponse"))
		require.NoError(t, c.Store(ctx, 1, "question", "seconde réponse"))

		answer, found, err := c.Lookup(ctx, 1, "question")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "première réponse", answer)
	})

	t.Run("candidates do not share entries", func(t *testing.T) {
		store := newMemStore()
		c := New(store)

		require.NoError(t, c.Store(ctx, 1, "question", "réponse du un"))

		_, found, err := c.Lookup(ctx, 2, "question")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("hits bump usage stats", func(t *testing.T) {
		store := newMemStore()
		c := New(store)

		require.NoError(t, c.Store(ctx, 1, "question", "réponse"))
		_, _, err := c.Lookup(ctx, 1, "question")
		require.NoError(t, err)
		_, _, err = c.Lookup(ctx, 1, "question")
		require.NoError(t, err)

		e := store.entries[key(1, HashQuestion("question"))]
		require.NotNil(t, e)
		assert.Equal(t, 2, e.hits)
	})
}
