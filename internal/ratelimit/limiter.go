// Package ratelimit implements the sliding-window submission limiter.
//
// The limiter owns the decision rules; persistence is delegated to a
// domain.RateLimitStore so the same rules run against memory, files, SQLite,
// Redis or Postgres.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/logger"
)

// KeyPrefix namespaces rate-limit records inside shared stores.
const KeyPrefix = "ratelimit:"

const lockStripes = 64

// Limiter is a sliding-window counter keyed by a stable hash of the identifier.
type Limiter struct {
	store      domain.RateLimitStore
	now        func() time.Time
	log        *slog.Logger
	failClosed bool
	locks      [lockStripes]sync.Mutex
}

type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger used for store failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// WithFailClosed makes the limiter deny requests when the store fails.
// By default a store failure lets the request through.
func WithFailClosed(failClosed bool) Option {
	return func(l *Limiter) { l.failClosed = failClosed }
}

func New(store domain.RateLimitStore, opts ...Option) *Limiter {
	l := &Limiter{
		store: store,
		now:   time.Now,
		log:   logger.Log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the store key for identifier.
func Key(identifier string) string {
	return keyFromSum(sha256.Sum256([]byte(identifier)))
}

func keyFromSum(sum [sha256.Size]byte) string {
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Check records an attempt for identifier unless it already made limit attempts
// within the trailing window. An attempt of age exactly window no longer counts,
// so a request arriving at ResetAt is allowed.
func (l *Limiter) Check(ctx context.Context, identifier string, limit int, window time.Duration) domain.RateLimitDecision {
	sum := sha256.Sum256([]byte(identifier))
	key := keyFromSum(sum)

	mu := &l.locks[binary.BigEndian.Uint64(sum[:8])%lockStripes]
	mu.Lock()
	defer mu.Unlock()

	now := l.now()
	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	stamps, err := l.store.Get(ctx, key)
	if err != nil {
		l.log.Error("Rate limit store read failed", "key", key, "error", err)
		return l.storeFailure(now, limit, window)
	}

	live := make([]int64, 0, len(stamps)+1)
	for _, ts := range stamps {
		if nowMs-ts < windowMs {
			live = append(live, ts)
		}
	}

	if len(live) >= limit {
		earliest := nowMs
		for _, ts := range live {
			if ts < earliest {
				earliest = ts
			}
		}
		return domain.RateLimitDecision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   time.UnixMilli(earliest + windowMs).In(now.Location()),
		}
	}

	live = append(live, nowMs)
	if err := l.store.Set(ctx, key, live, window); err != nil {
		l.log.Error("Rate limit store write failed", "key", key, "error", err)
		return l.storeFailure(now, limit, window)
	}

	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(live),
		ResetAt:   now.Add(window),
	}
}

func (l *Limiter) storeFailure(now time.Time, limit int, window time.Duration) domain.RateLimitDecision {
	if l.failClosed {
		return domain.RateLimitDecision{Allowed: false, Limit: limit, Remaining: 0, ResetAt: now.Add(window)}
	}
	return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: now.Add(window)}
}

// Ping reports the health of the underlying store when it supports it.
func (l *Limiter) Ping(ctx context.Context) error {
	if p, ok := l.store.(domain.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
