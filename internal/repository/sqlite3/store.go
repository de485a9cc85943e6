// Package sqlite3 persists rate-limit records in a local SQLite database.
package sqlite3

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const rateLimitsSchema = `
	CREATE TABLE IF NOT EXISTS rate_limits (
		key         TEXT NOT NULL PRIMARY KEY,
		stamps      TEXT NOT NULL, -- JSON array of unix milliseconds
		expires_at  INTEGER NOT NULL -- unix milliseconds
	);
	CREATE INDEX IF NOT EXISTS rate_limits_expires_at ON rate_limits(expires_at);
`

const selectRecordStmt = `
	SELECT stamps FROM rate_limits WHERE key = $1 AND expires_at > $2
`

const upsertRecordStmt = `
	INSERT INTO rate_limits (key, stamps, expires_at) VALUES ($1, $2, $3)
	ON CONFLICT(key) DO UPDATE SET stamps = excluded.stamps, expires_at = excluded.expires_at
`

const deleteExpiredStmt = `
	DELETE FROM rate_limits WHERE expires_at <= $1
`

type Store struct {
	db            *sql.DB
	selectRecord  *sql.Stmt
	upsertRecord  *sql.Stmt
	deleteExpired *sql.Stmt
	now           func() time.Time
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY between our own goroutines
	db.SetMaxOpenConns(1)

	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore prepares statements on an already open database.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}

	if _, err := db.Exec(rateLimitsSchema); err != nil {
		return nil, fmt.Errorf("db.Exec: %w", err)
	}

	var err error
	if s.selectRecord, err = db.Prepare(selectRecordStmt); err != nil {
		return nil, fmt.Errorf("db.Prepare(selectRecord): %w", err)
	}
	if s.upsertRecord, err = db.Prepare(upsertRecordStmt); err != nil {
		return nil, fmt.Errorf("db.Prepare(upsertRecord): %w", err)
	}
	if s.deleteExpired, err = db.Prepare(deleteExpiredStmt); err != nil {
		return nil, fmt.Errorf("db.Prepare(deleteExpired): %w", err)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]int64, error) {
	var raw string
	err := s.selectRecord.QueryRowContext(ctx, key, s.now().UnixMilli()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selectRecord: %w", err)
	}

	var stamps []int64
	if err := json.Unmarshal([]byte(raw), &stamps); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}
	return stamps, nil
}

func (s *Store) Set(ctx context.Context, key string, stamps []int64, ttl time.Duration) error {
	raw, err := json.Marshal(stamps)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	expiresAt := s.now().Add(ttl).UnixMilli()
	if _, err := s.upsertRecord.ExecContext(ctx, key, string(raw), expiresAt); err != nil {
		return fmt.Errorf("upsertRecord: %w", err)
	}
	return nil
}

// DeleteExpired removes records whose TTL has passed and returns how many went.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.deleteExpired.ExecContext(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("deleteExpired: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
