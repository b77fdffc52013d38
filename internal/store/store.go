// Package store provides SQLite storage for exam sessions and violation evidence.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Store represents a SQLite database connection.
type Store struct {
	db   *sql.DB
	path string
}

// New creates a new Store with the given database path.
// It opens the database connection, enables foreign keys, and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps PRAGMA foreign_keys applied to every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Stats summarizes stored data.
type Stats struct {
	Sessions   int `json:"exam_sessions"`
	Submitted  int `json:"submitted_sessions"`
	Violations int `json:"violations"`
	Evidence   int `json:"evidence_frames"`
}

// Stats returns row counts across the store.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM exam_sessions),
			(SELECT COUNT(*) FROM exam_sessions WHERE submitted_at IS NOT NULL),
			(SELECT COUNT(*) FROM violations),
			(SELECT COUNT(*) FROM violations WHERE screenshot_path != '')`,
	).Scan(&st.Sessions, &st.Submitted, &st.Violations, &st.Evidence)
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}
