// Package postgres implements the entry ledger on a remote Postgres database
// scoped to authenticated users, with image payloads handed off to a separate
// object store.
package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/caltrack/caltrack/internal/blob"
)

// Store wraps the connection pool, the blob store for image payloads and a
// logger for the degraded-upload path.
type Store struct {
	conn   *sql.DB
	blobs  blob.Store
	logger *slog.Logger
}

// New connects with the given DSN and runs migrations.
func New(dsn string, blobs blob.Store, logger *slog.Logger) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	s := &Store{conn: conn, blobs: blobs, logger: logger}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS food_entries (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			date       TEXT NOT NULL,
			timestamp  BIGINT NOT NULL,
			name       TEXT NOT NULL,
			calories   INTEGER NOT NULL DEFAULT 0,
			protein    INTEGER NOT NULL DEFAULT 0,
			carbs      INTEGER NOT NULL DEFAULT 0,
			fat        INTEGER NOT NULL DEFAULT 0,
			portion    TEXT NOT NULL DEFAULT '',
			tags       JSONB NOT NULL DEFAULT '[]',
			health_tip TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			confidence TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("creating food_entries table: %w", err)
	}

	_, err = s.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_food_entries_user_date
		ON food_entries(user_id, date, timestamp)`)
	if err != nil {
		return fmt.Errorf("creating food_entries index: %w", err)
	}

	return nil
}
