package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"portfolio-backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a real database: TEST_DATABASE_URL=postgres://...
func TestRateLimitRepository(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresConnection(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRateLimitRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	key := "ratelimit:test:" + time.Now().Format(time.RFC3339Nano)

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Set(ctx, key, []int64{1, 2, 3}, time.Minute))
	got, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)

	require.NoError(t, repo.Set(ctx, key, []int64{4}, -time.Second))
	got, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got, "expired record reads as empty")

	removed, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))
}
