package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"braces.dev/errtrace"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/bgtimer/internal/foundation"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errtrace.Wrap(fmt.Errorf("create data directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("open sqlite database: %w", err))
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errtrace.Wrap(fmt.Errorf("initialize schema: %w", err))
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	PRAGMA busy_timeout = 2000;
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (foundation.Option[string], error) {
	if err := checkKey(key); err != nil {
		return foundation.None[string](), err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return foundation.None[string](), nil
	case err != nil:
		return foundation.None[string](), errtrace.Wrap(fmt.Errorf("query key %s: %w", key, err))
	}
	return foundation.Some(value), nil
}

// Set stores value under key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano(),
	)
	if err != nil {
		return errtrace.Wrap(fmt.Errorf("upsert key %s: %w", key, err))
	}
	return nil
}

// Delete removes key; missing keys are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return errtrace.Wrap(fmt.Errorf("delete key %s: %w", key, err))
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
