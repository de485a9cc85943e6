package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "ratelimit"))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := fs.Get(ctx, "ratelimit:abc")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, fs.Set(ctx, "ratelimit:abc", []int64{100, 200}, time.Minute))
	got, err = fs.Get(ctx, "ratelimit:abc")
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, got)

	data, err := os.ReadFile(filepath.Join(dir, "ratelimit", "ratelimit_abc.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[100,200]`, string(data))

	require.NoError(t, fs.Ping(ctx))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, fs.Set(context.Background(), "k", []int64{int64(i)}, time.Minute))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}

func TestFileStoreCorruptRecordReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte("{not json"), 0644))

	got, err := fs.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewFileStoreRejectsEmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
