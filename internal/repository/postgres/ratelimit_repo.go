package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const rateLimitsSchema = `
	CREATE TABLE IF NOT EXISTS contact_rate_limits (
		key        TEXT PRIMARY KEY,
		stamps     BIGINT[] NOT NULL DEFAULT '{}',
		expires_at TIMESTAMPTZ NOT NULL
	)`

// RateLimitRepository is a domain.RateLimitStore backed by Postgres.
type RateLimitRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewRateLimitRepository(db *pgxpool.Pool) *RateLimitRepository {
	return &RateLimitRepository{db: db, now: time.Now}
}

// Migrate creates the table if it does not exist.
func (r *RateLimitRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, rateLimitsSchema); err != nil {
		return fmt.Errorf("failed to create contact_rate_limits: %w", err)
	}
	return nil
}

func (r *RateLimitRepository) Get(ctx context.Context, key string) ([]int64, error) {
	query := `SELECT stamps FROM contact_rate_limits WHERE key = $1 AND expires_at > $2`

	var stamps []int64
	err := r.db.QueryRow(ctx, query, key, r.now()).Scan(pq.Array(&stamps))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return stamps, nil
}

func (r *RateLimitRepository) Set(ctx context.Context, key string, stamps []int64, ttl time.Duration) error {
	query := `
		INSERT INTO contact_rate_limits (key, stamps, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET stamps = EXCLUDED.stamps, expires_at = EXCLUDED.expires_at`

	_, err := r.db.Exec(ctx, query, key, pq.Array(stamps), r.now().Add(ttl))
	return err
}

// DeleteExpired removes records whose TTL has passed.
func (r *RateLimitRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM contact_rate_limits WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *RateLimitRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
