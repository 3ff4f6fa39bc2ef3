// Package cache is a content-addressed store of generated answers.
// Questions are normalized and hashed so trivially different phrasings
// of the same question share one entry, keeping provider spend down.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
)

// Store is the persistence contract the cache runs on. TouchCachedAnswer
// returns a stored answer while bumping its usage stats in the same
// statement; InsertCachedAnswer must be first-write-wins under races,
// enforced by a uniqueness constraint rather than locking.
type Store interface {
	TouchCachedAnswer(ctx context.Context, candidateID int64, questionHash string) (string, bool, error)
	InsertCachedAnswer(ctx context.Context, candidateID int64, questionHash, question, answer string) error
}

// Cache maps normalized questions to previously generated answers.
type Cache struct {
	store Store
}

// New creates an answer cache on top of a store.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// HashQuestion normalizes a question (case-fold, trim) and returns its
// SHA-256 hex digest. Collision resistance only matters for correctness
// under adversarial input here, not for security.
func HashQuestion(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}

// Lookup returns the cached answer for a question, if any. A hit
// increments the entry's hit count and refreshes its last-used time; a
// miss creates nothing.
func (c *Cache) Lookup(ctx context.Context, candidateID int64, question string) (string, bool, error) {
	return c.store.TouchCachedAnswer(ctx, candidateID, HashQuestion(question))
}

// Store caches an answer for a question. If an entry already exists for
// the normalized question, the call is a no-op: the first cached answer
// wins, so answers stay stable even though the generator is
// non-deterministic.
func (c *Cache) Store(ctx context.Context, candidateID int64, question, answer string) error {
	return c.store.InsertCachedAnswer(ctx, candidateID, HashQuestion(question), question, answer)
}
