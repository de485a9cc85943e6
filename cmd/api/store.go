package main

import (
	"context"
	"fmt"
	"time"

	"portfolio-backend/config"
	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/repository/filestore"
	"portfolio-backend/internal/repository/memory"
	"portfolio-backend/internal/repository/postgres"
	redisstore "portfolio-backend/internal/repository/redis"
	"portfolio-backend/internal/repository/sqlite3"
	"portfolio-backend/pkg/database"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/redis"
)

const sweepInterval = 5 * time.Minute

// expirer is implemented by stores that keep expired rows until swept.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// newRateLimitStore opens the store selected by RATE_LIMIT_STORE. The
// returned cleanup releases connections.
func newRateLimitStore(ctx context.Context, cfg *config.Config) (domain.RateLimitStore, func(), error) {
	switch cfg.RateLimitStore {
	case config.StoreMemory:
		store := memory.NewStore()
		store.StartJanitor(ctx, sweepInterval)
		return store, func() {}, nil

	case config.StoreFile:
		store, err := filestore.NewFileStore(cfg.RateLimitDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.StoreSQLite:
		store, err := sqlite3.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		go sweep(ctx, store)
		return store, func() { store.Close() }, nil

	case config.StoreRedis:
		client, err := redis.NewClient(ctx, redis.Config{
			URL:      cfg.UpstashRedisURL,
			Password: cfg.UpstashRedisPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewStore(client), func() { client.Close() }, nil

	case config.StorePostgres:
		pool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewRateLimitRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		go sweep(ctx, repo)
		return repo, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown rate limit store %q", cfg.RateLimitStore)
}

func sweep(ctx context.Context, store expirer) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Log.Warn("failed to sweep expired rate limit records", "error", err)
				continue
			}
			if n > 0 {
				logger.Log.Debug("swept expired rate limit records", "count", n)
			}
		}
	}
}
