// Package sqlite implements the entry ledger on an embedded SQLite database.
//
// This is the local backend: device-scoped, no authentication concept, image
// payloads inlined into the entry row. modernc.org/sqlite keeps the build
// pure Go (no CGo), which matters for cross-compiled mobile-adjacent deploys.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB connection pool and implements ledger.Ledger.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows reads to proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the connection pool, flushing the WAL.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	// date is the partition key, timestamp the within-day ordering key; the
	// compound index serves both the per-day query and the weekly range scan.
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS food_entries (
			id         TEXT PRIMARY KEY,
			date       TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			name       TEXT NOT NULL,
			calories   INTEGER NOT NULL DEFAULT 0,
			protein    INTEGER NOT NULL DEFAULT 0,
			carbs      INTEGER NOT NULL DEFAULT 0,
			fat        INTEGER NOT NULL DEFAULT 0,
			portion    TEXT NOT NULL DEFAULT '',
			tags       TEXT NOT NULL DEFAULT '[]',
			health_tip TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			confidence TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_food_entries_date_ts ON food_entries(date, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("creating food_entries table: %w", err)
	}
	return nil
}
