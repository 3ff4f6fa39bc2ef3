package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countKey struct {
	candidateID int64
	ipHash      string
}

// fakeCounter replays canned per-identity counts and records the window
// start it was asked about.
type fakeCounter struct {
	counts    map[countKey]int
	err       error
	lastSince time.Time
}

func (f *fakeCounter) CountConversationsSince(_ context.Context, candidateID int64, ipHash string, since time.Time) (int, error) {
	f.lastSince = since
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[countKey{candidateID, ipHash}], nil
}

func TestLimiterCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh caller has the full quota", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{}}
		l := New(counter, 20)

		d, err := l.Check(ctx, 1, "abc")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 20, d.Remaining)
	})

	t.Run("caller one under the quota is admitted", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{{1, "abc"}: 19}}
		l := New(counter, 20)

		d, err := l.Check(ctx, 1, "abc")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Remaining)
	})

	t.Run("caller at the quota is refused", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{{1, "abc"}: 20}}
		l := New(counter, 20)

		d, err := l.Check(ctx, 1, "abc")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{{1, "abc"}: 25}}
		l := New(counter, 20)

		d, err := l.Check(ctx, 1, "abc")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining)
	})

	t.Run("quotas are per identity and per candidate", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{{1, "abc"}: 20}}
		l := New(counter, 20)

		d, err := l.Check(ctx, 1, "def")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = l.Check(ctx, 2, "abc")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("window starts at UTC midnight of the current day", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{}}
		l := New(counter, 20)
		paris := time.FixedZone("CEST", 2*60*60)
		l.now = func() time.Time {
			return time.Date(2025, time.July, 14, 1, 30, 0, 0, paris)
		}

		_, err := l.Check(ctx, 1, "abc")
		require.NoError(t, err)

		// 01:30 in Paris is still July 13 in UTC.
		want := time.Date(2025, time.July, 13, 0, 0, 0, 0, time.UTC)
		assert.True(t, counter.lastSince.Equal(want), "counted since %v, want %v", counter.lastSince, want)
	})

	t.Run("non-positive quota falls back to the default", func(t *testing.T) {
		counter := &fakeCounter{counts: map[countKey]int{{1, "abc"}: DefaultDailyQuota - 1}}
		l := New(counter, 0)

		d, err := l.Check(ctx, 1, "abc")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Remaining)
	})

	t.Run("counter faults surface as errors", func(t *testing.T) {
		counter := &fakeCounter{err: errors.New("db down")}
		l := New(counter, 20)

		_, err := l.Check(ctx, 1, "abc")
		require.Error(t, err)
	})
}
