// Package filestore keeps one small JSON file per rate-limit key.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore writes each record as a JSON array of unix-millisecond timestamps
// in <dir>/<key>.json. Records are never deleted; stale timestamps are
// filtered by the limiter on the next read.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rate limit directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) Get(_ context.Context, key string) ([]int64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit record: %w", err)
	}

	var stamps []int64
	if err := json.Unmarshal(data, &stamps); err != nil {
		// A corrupt record resets the identifier rather than blocking it forever
		return nil, nil
	}
	return stamps, nil
}

// Set replaces the record atomically (temp file + rename). ttl is ignored.
func (fs *FileStore) Set(_ context.Context, key string, stamps []int64, _ time.Duration) error {
	data, err := json.Marshal(stamps)
	if err != nil {
		return fmt.Errorf("failed to encode rate limit record: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tempFile, err := os.CreateTemp(fs.dir, ".tmp_*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, fs.path(key)); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Ping checks that the directory is still there.
func (fs *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(fs.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", fs.dir)
	}
	return nil
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, sanitizeKey(key)+".json")
}

// sanitizeKey keeps keys usable as file names on every platform
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
