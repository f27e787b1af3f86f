// Package store persists analysis entries and their detections in SQLite.
//
// Detections carry full provenance: AI origin, correction classification,
// original geometry for moved or resized boxes, and a soft-delete flag.
// Nothing is physically removed, so the correction history stays intact for
// accuracy reporting and retraining.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEntryNotFound is returned when the referenced entry does not exist.
var ErrEntryNotFound = errors.New("store: entry not found")

// Store wraps the SQLite connection with thread-safe access.
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens (creating when absent) the database at dbPath and applies the
// schema. Use ":memory:" for an ephemeral store.
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_path TEXT NOT NULL,
		thumbnail_path TEXT DEFAULT '',
		method INTEGER DEFAULT 0,
		ai_count INTEGER DEFAULT 0,
		final_count INTEGER DEFAULT 0,
		color_breakdown TEXT DEFAULT '{}',
		was_edited INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		label TEXT DEFAULT '',
		color TEXT DEFAULT '',
		confidence REAL DEFAULT 0,
		is_ai_detected INTEGER DEFAULT 0,
		is_corrected INTEGER DEFAULT 0,
		is_deleted INTEGER DEFAULT 0,
		original_x REAL,
		original_y REAL,
		original_width REAL,
		original_height REAL,
		correction_type TEXT DEFAULT '',
		corrected_by INTEGER DEFAULT 0,
		corrected_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (entry_id) REFERENCES entries(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_detections_entry_id ON detections(entry_id);
	CREATE INDEX IF NOT EXISTS idx_detections_correction ON detections(correction_type);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
