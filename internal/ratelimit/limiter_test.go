package ratelimit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newLimiter(clock *fakeClock, opts ...ratelimit.Option) *ratelimit.Limiter {
	store := memory.NewStore().WithClock(clock.Now)
	opts = append([]ratelimit.Option{ratelimit.WithClock(clock.Now), ratelimit.WithLogger(quiet)}, opts...)
	return ratelimit.New(store, opts...)
}

func TestCheckSlidingWindow(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(clock)
	ctx := context.Background()

	var got []bool
	for i := 0; i < 4; i++ {
		got = append(got, l.Check(ctx, "10.0.0.1", 3, time.Minute).Allowed)
		clock.Advance(10 * time.Second)
	}
	assert.Equal(t, []bool{true, true, true, false}, got)

	clock.Advance(time.Minute)
	assert.True(t, l.Check(ctx, "10.0.0.1", 3, time.Minute).Allowed)
}

func TestCheckRemainingAndReset(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(clock)
	ctx := context.Background()
	start := clock.Now()

	d := l.Check(ctx, "id", 3, time.Minute)
	assert.Equal(t, 2, d.Remaining)
	assert.Equal(t, 3, d.Limit)
	assert.True(t, d.ResetAt.Equal(start.Add(time.Minute)))

	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, l.Check(ctx, "id", 3, time.Minute).Remaining)
	assert.Equal(t, 0, l.Check(ctx, "id", 3, time.Minute).Remaining)

	denied := l.Check(ctx, "id", 3, time.Minute)
	require.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.True(t, denied.ResetAt.Equal(start.Add(time.Minute)), "reset should follow the earliest attempt, got %s", denied.ResetAt)
}

func TestCheckDeniedAttemptsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(clock)
	ctx := context.Background()

	require.True(t, l.Check(ctx, "id", 1, time.Minute).Allowed)
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		require.False(t, l.Check(ctx, "id", 1, time.Minute).Allowed)
	}

	// Only the first attempt was stored, so it ages out 60s after it was made.
	clock.Advance(10 * time.Second)
	assert.True(t, l.Check(ctx, "id", 1, time.Minute).Allowed)
}

func TestCheckWindowBoundary(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(clock)
	ctx := context.Background()

	require.True(t, l.Check(ctx, "id", 1, time.Minute).Allowed)

	clock.Advance(time.Minute - time.Millisecond)
	denied := l.Check(ctx, "id", 1, time.Minute)
	require.False(t, denied.Allowed)

	clock.Advance(time.Millisecond)
	require.True(t, clock.Now().Equal(denied.ResetAt))
	assert.True(t, l.Check(ctx, "id", 1, time.Minute).Allowed, "a request exactly at ResetAt must be allowed")
}

func TestCheckIdentifiersAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.True(t, l.Check(ctx, "alice", 2, time.Minute).Allowed)
	}
	require.False(t, l.Check(ctx, "alice", 2, time.Minute).Allowed)

	bob := l.Check(ctx, "bob", 2, time.Minute)
	assert.True(t, bob.Allowed)
	assert.Equal(t, 1, bob.Remaining)
}

func TestCheckConcurrentSameIdentifier(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(clock)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(ctx, "burst", 10, time.Minute).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]int64, error) {
	return nil, errors.New("store down")
}

func (failingStore) Set(context.Context, string, []int64, time.Duration) error {
	return errors.New("store down")
}

func TestCheckStoreFailure(t *testing.T) {
	ctx := context.Background()

	open := ratelimit.New(failingStore{}, ratelimit.WithLogger(quiet))
	assert.True(t, open.Check(ctx, "id", 3, time.Minute).Allowed)

	closed := ratelimit.New(failingStore{}, ratelimit.WithLogger(quiet), ratelimit.WithFailClosed(true))
	assert.False(t, closed.Check(ctx, "id", 3, time.Minute).Allowed)
}

func TestKeyIsStableAndPrefixed(t *testing.T) {
	assert.Equal(t, ratelimit.Key("10.0.0.1"), ratelimit.Key("10.0.0.1"))
	assert.NotEqual(t, ratelimit.Key("10.0.0.1"), ratelimit.Key("10.0.0.2"))
	assert.Contains(t, ratelimit.Key("x"), ratelimit.KeyPrefix)
	assert.Len(t, ratelimit.Key("x"), len(ratelimit.KeyPrefix)+64)
}

func TestCheckStoresUnderKey(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := memory.NewStore().WithClock(clock.Now)
	l := ratelimit.New(store, ratelimit.WithClock(clock.Now))

	l.Check(ctx, "203.0.113.7", 3, time.Minute)

	stamps, err := store.Get(ctx, ratelimit.Key("203.0.113.7"))
	require.NoError(t, err)
	assert.Equal(t, []int64{clock.Now().UnixMilli()}, stamps)
}
