package domain

import (
	"context"
	"time"
)

// RateLimitDecision is the verdict for one check of one identifier.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitStore persists the timestamp sequence (unix milliseconds, oldest
// first) recorded for a rate-limit key. A missing key reads as an empty slice.
type RateLimitStore interface {
	Get(ctx context.Context, key string) ([]int64, error)
	Set(ctx context.Context, key string, stamps []int64, ttl time.Duration) error
}

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimiter decides whether identifier may submit again within window.
type RateLimiter interface {
	Check(ctx context.Context, identifier string, limit int, window time.Duration) RateLimitDecision
}
