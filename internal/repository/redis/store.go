// Package redis persists rate-limit records in Redis with a TTL per key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type Store struct {
	client goredis.UniversalClient
}

func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]int64, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var stamps []int64
	if err := json.Unmarshal(raw, &stamps); err != nil {
		return nil, fmt.Errorf("unexpected redis record format: %w", err)
	}
	return stamps, nil
}

// Set stores the record with ttl so Redis drops identifiers that went quiet.
func (s *Store) Set(ctx context.Context, key string, stamps []int64, ttl time.Duration) error {
	raw, err := json.Marshal(stamps)
	if err != nil {
		return fmt.Errorf("failed to encode rate limit record: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
