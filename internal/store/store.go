// Package store is the durable local state of the app: session snapshots
// keyed by session id, and an append-only event log feeding local stats.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database and hands out repositories.
type Store struct {
	db *sql.DB
}

// Open creates a Store connected to the SQLite database at dsn, applies
// recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// SessionRepo returns the snapshot repository backed by this store.
func (s *Store) SessionRepo() SessionRepo { return &sessionRepo{db: s.db} }

// EventRepo returns the event log backed by this store.
func (s *Store) EventRepo() EventRepo { return &eventRepo{db: s.db} }

// Wipe deletes all local data: saved sessions and practice history.
func (s *Store) Wipe(ctx context.Context) error {
	for _, table := range []string{"session_snapshots", "answer_events", "session_events"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	return nil
}

// applyPragmas configures SQLite for single-user durability.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS session_snapshots (
			session_id TEXT PRIMARY KEY,
			updated_at TIMESTAMP NOT NULL,
			data       TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS answer_events (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id      TEXT NOT NULL,
			question_id     TEXT NOT NULL,
			subject         TEXT NOT NULL DEFAULT '',
			chapter         TEXT NOT NULL DEFAULT '',
			correct         INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			created_at      TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id    TEXT NOT NULL,
			action        TEXT NOT NULL,
			kind          TEXT NOT NULL DEFAULT '',
			score         INTEGER NOT NULL DEFAULT 0,
			total         INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answer_events_subject ON answer_events (subject)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ddl: %w", err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PREPT_DB environment variable
// 2. $XDG_DATA_HOME/prept/prept.db
// 3. ~/.local/share/prept/prept.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PREPT_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "prept", "prept.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
