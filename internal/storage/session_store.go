// Package storage implements the on-device persistence for session and
// display preferences. Transactions themselves are never stored locally; the
// remote API is the source of truth for ledger data.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/julio3266/finance-control-app-sub000/internal/common"
)

// Preference keys.
const (
	keySessionToken = "session_token"
	keyTheme        = "theme"
)

// SessionStore is a small SQLite-backed key/value store for the session
// token and UI preferences. It satisfies api.TokenSource.
type SessionStore struct {
	db     *sql.DB
	dbPath string
}

// NewSessionStore opens (and if needed creates) the store at dbPath.
func NewSessionStore(dbPath string) (*SessionStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required: %w", common.ErrMissingConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SessionStore{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SessionStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate preferences table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, nil
}

func (s *SessionStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}

func (s *SessionStore) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete preference %s: %w", key, err)
	}
	return nil
}

// Token returns the stored session token, or empty when no session exists.
// It implements api.TokenSource.
func (s *SessionStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, keySessionToken)
}

// SaveSessionToken stores the bearer token of an authenticated session.
func (s *SessionStore) SaveSessionToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to save an empty session token")
	}
	return s.set(ctx, keySessionToken, token)
}

// ClearSession removes the stored session token.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	return s.delete(ctx, keySessionToken)
}

// Theme returns the stored theme name, or empty when unset.
func (s *SessionStore) Theme(ctx context.Context) (string, error) {
	return s.get(ctx, keyTheme)
}

// SaveTheme stores the preferred theme name.
func (s *SessionStore) SaveTheme(ctx context.Context, name string) error {
	return s.set(ctx, keyTheme, name)
}
