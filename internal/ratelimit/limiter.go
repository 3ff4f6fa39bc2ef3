// Package ratelimit enforces a per-candidate, per-caller daily message
// quota. Callers are identified only by their hashed address, and the
// count is always recomputed from the conversation log, so the limiter
// itself holds no state that could go stale.
package ratelimit

import (
	"context"
	"time"
)

// DefaultDailyQuota matches the product default of 20 public chat
// messages per caller per candidate per day.
const DefaultDailyQuota = 20

// EventCounter counts prior chat events for a hashed caller identity.
// The conversation log is the authoritative source.
type EventCounter interface {
	CountConversationsSince(ctx context.Context, candidateID int64, ipHash string, since time.Time) (int, error)
}

// Decision is the outcome of one quota check.
type Decision struct {
	Allowed   bool
	Remaining int
}

// Limiter checks callers against the daily quota. The window is the
// current UTC calendar day, resetting at UTC midnight, not a rolling
// 24 hours.
type Limiter struct {
	events EventCounter
	quota  int
	now    func() time.Time
}

// New creates a limiter over the given event source.
func New(events EventCounter, quota int) *Limiter {
	if quota <= 0 {
		quota = DefaultDailyQuota
	}
	return &Limiter{
		events: events,
		quota:  quota,
		now:    time.Now,
	}
}

// Check counts today's events for (candidate, hashed identity) and
// reports whether another message is allowed and how many remain. Two
// concurrent requests near the boundary may both be admitted; the count
// is read, not decremented atomically, and that small race is accepted.
func (l *Limiter) Check(ctx context.Context, candidateID int64, hashedIdentity string) (Decision, error) {
	count, err := l.events.CountConversationsSince(ctx, candidateID, hashedIdentity, startOfUTCDay(l.now()))
	if err != nil {
		return Decision{}, err
	}

	remaining := l.quota - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count < l.quota,
		Remaining: remaining,
	}, nil
}

func startOfUTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
