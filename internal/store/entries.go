package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"roll-counter/internal/model"
)

// CreateEntry inserts a new analysis entry and returns its ID.
func (s *Store) CreateEntry(e *model.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdown, err := json.Marshal(e.ColorBreakdown)
	if err != nil {
		return 0, fmt.Errorf("failed to encode color breakdown: %w", err)
	}

	result, err := s.conn.Exec(`
		INSERT INTO entries (image_path, thumbnail_path, method, ai_count, final_count, color_breakdown, was_edited)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ImagePath, e.ThumbnailPath, int(e.Method), e.AICount, e.FinalCount, string(breakdown), e.WasEdited)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	return result.LastInsertId()
}

// GetEntry retrieves one entry by ID, or ErrEntryNotFound.
func (s *Store) GetEntry(id int64) (*model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRow(`
		SELECT id, image_path, thumbnail_path, method, ai_count, final_count, color_breakdown, was_edited, created_at, updated_at
		FROM entries WHERE id = ?
	`, id)
	return scanEntry(row)
}

// ListEntries returns all entries, newest first.
func (s *Store) ListEntries() ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT id, image_path, thumbnail_path, method, ai_count, final_count, color_breakdown, was_edited, created_at, updated_at
		FROM entries ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// InsertFromResult records a detection run as a new entry plus its AI
// detections, atomically. FinalCount starts at the AI count.
func (s *Store) InsertFromResult(imagePath, thumbnailPath string, res *model.DetectionResult) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdown, err := json.Marshal(res.ColorBreakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to encode color breakdown: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO entries (image_path, thumbnail_path, method, ai_count, final_count, color_breakdown, was_edited)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, imagePath, thumbnailPath, int(res.Method), res.TotalCount, res.TotalCount, string(breakdown))
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	entryID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detections (entry_id, x, y, width, height, label, color, confidence, is_ai_detected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range res.Boxes {
		if _, err := stmt.Exec(entryID, b.X, b.Y, b.Width, b.Height, b.Label, b.Color, b.Confidence); err != nil {
			return nil, fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit entry: %w", err)
	}

	now := time.Now()
	return &model.Entry{
		ID:             entryID,
		ImagePath:      imagePath,
		ThumbnailPath:  thumbnailPath,
		Method:         res.Method,
		AICount:        res.TotalCount,
		FinalCount:     res.TotalCount,
		ColorBreakdown: res.ColorBreakdown,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// InsertDetections bulk-inserts AI detections for an existing entry in one
// transaction.
func (s *Store) InsertDetections(entryID int64, boxes []model.DetectedBox) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO detections (entry_id, x, y, width, height, label, color, confidence, is_ai_detected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range boxes {
		if _, err := stmt.Exec(entryID, b.X, b.Y, b.Width, b.Height, b.Label, b.Color, b.Confidence); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*model.Entry, error) {
	var e model.Entry
	var method int
	var breakdown string

	err := row.Scan(&e.ID, &e.ImagePath, &e.ThumbnailPath, &method, &e.AICount, &e.FinalCount,
		&breakdown, &e.WasEdited, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Method = model.Method(method)
	if breakdown != "" {
		if err := json.Unmarshal([]byte(breakdown), &e.ColorBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode color breakdown: %w", err)
		}
	}
	return &e, nil
}
