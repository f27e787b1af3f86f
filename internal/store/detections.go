package store

import (
	"database/sql"
	"fmt"
	"time"

	"roll-counter/internal/model"
)

const detectionColumns = `id, entry_id, x, y, width, height, label, color, confidence,
	is_ai_detected, is_corrected, is_deleted,
	original_x, original_y, original_width, original_height,
	correction_type, corrected_by, corrected_at, created_at, updated_at`

// DetectionsByEntry returns every detection row of an entry, including
// soft-deleted ones, ordered by ID.
func (s *Store) DetectionsByEntry(entryID int64) ([]model.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryDetections(`WHERE entry_id = ?`, entryID)
}

// ActiveAIDetections returns the AI detections of an entry that have not
// been soft-deleted. This is the set reconciliation matches against.
func (s *Store) ActiveAIDetections(entryID int64) ([]model.Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryDetections(`WHERE entry_id = ? AND is_ai_detected = 1 AND is_deleted = 0`, entryID)
}

func (s *Store) queryDetections(where string, args ...any) ([]model.Detection, error) {
	rows, err := s.conn.Query(`SELECT `+detectionColumns+` FROM detections `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

func scanDetection(row rowScanner) (model.Detection, error) {
	var d model.Detection
	var origX, origY, origW, origH sql.NullFloat64
	var correctedAt sql.NullTime

	err := row.Scan(&d.ID, &d.EntryID, &d.X, &d.Y, &d.Width, &d.Height, &d.Label, &d.Color, &d.Confidence,
		&d.IsAIDetected, &d.IsCorrected, &d.IsDeleted,
		&origX, &origY, &origW, &origH,
		&d.CorrectionType, &d.CorrectedBy, &correctedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return d, fmt.Errorf("failed to scan detection: %w", err)
	}

	if origX.Valid {
		d.OriginalX = &origX.Float64
	}
	if origY.Valid {
		d.OriginalY = &origY.Float64
	}
	if origW.Valid {
		d.OriginalWidth = &origW.Float64
	}
	if origH.Valid {
		d.OriginalHeight = &origH.Float64
	}
	if correctedAt.Valid {
		t := correctedAt.Time
		d.CorrectedAt = &t
	}
	return d, nil
}

// ActiveAIDetectionsTx is the transactional variant of ActiveAIDetections,
// for use inside WithEntryTx.
func ActiveAIDetectionsTx(tx *sql.Tx, entryID int64) ([]model.Detection, error) {
	rows, err := tx.Query(`SELECT `+detectionColumns+` FROM detections
		WHERE entry_id = ? AND is_ai_detected = 1 AND is_deleted = 0 ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// WithEntryTx runs fn inside a write transaction after verifying the entry
// exists. The store-wide lock is held for the duration, so concurrent
// reconciliations of the same entry serialize.
func (s *Store) WithEntryTx(entryID int64, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	if err := s.conn.QueryRow(`SELECT 1 FROM entries WHERE id = ?`, entryID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return ErrEntryNotFound
		}
		return fmt.Errorf("failed to check entry: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateDetectionTx writes the full mutable state of a detection row.
func UpdateDetectionTx(tx *sql.Tx, d model.Detection) error {
	_, err := tx.Exec(`
		UPDATE detections
		SET x = ?, y = ?, width = ?, height = ?, label = ?, color = ?,
			is_corrected = ?, is_deleted = ?,
			original_x = ?, original_y = ?, original_width = ?, original_height = ?,
			correction_type = ?, corrected_by = ?, corrected_at = ?, updated_at = ?
		WHERE id = ?
	`, d.X, d.Y, d.Width, d.Height, d.Label, d.Color,
		d.IsCorrected, d.IsDeleted,
		nullable(d.OriginalX), nullable(d.OriginalY), nullable(d.OriginalWidth), nullable(d.OriginalHeight),
		d.CorrectionType, d.CorrectedBy, nullableTime(d.CorrectedAt), d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update detection %d: %w", d.ID, err)
	}
	return nil
}

// InsertDetectionTx inserts a detection row, returning its new ID.
func InsertDetectionTx(tx *sql.Tx, d model.Detection) (int64, error) {
	result, err := tx.Exec(`
		INSERT INTO detections (entry_id, x, y, width, height, label, color, confidence,
			is_ai_detected, is_corrected, is_deleted, correction_type, corrected_by, corrected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.EntryID, d.X, d.Y, d.Width, d.Height, d.Label, d.Color, d.Confidence,
		d.IsAIDetected, d.IsCorrected, d.IsDeleted, d.CorrectionType, d.CorrectedBy, nullableTime(d.CorrectedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}
	return result.LastInsertId()
}

// UpdateEntryCountsTx records the post-reconciliation totals on the entry.
func UpdateEntryCountsTx(tx *sql.Tx, entryID int64, finalCount int, wasEdited bool) error {
	_, err := tx.Exec(`
		UPDATE entries SET final_count = ?, was_edited = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, finalCount, wasEdited, entryID)
	if err != nil {
		return fmt.Errorf("failed to update entry %d: %w", entryID, err)
	}
	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
