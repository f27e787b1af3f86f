// Package model defines the detection domain types shared by the vision
// pipeline, the reconciliation engine, and persistence.
package model

import "time"

// Correction types recorded on a Detection after reconciliation.
const (
	CorrectionUnchanged    = "unchanged"
	CorrectionMoved        = "moved"
	CorrectionResized      = "resized"
	CorrectionMovedResized = "moved_resized"
	CorrectionAdded        = "added"
	CorrectionDeleted      = "deleted"
)

// DefaultLabel is the label assigned to boxes without an explicit class.
const DefaultLabel = "Roll"

// DetectedBox is a bounding box in percentage space: x/y are the left/top
// edges and width/height the extents, all 0-100 relative to the image.
type DetectedBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Label      string  `json:"label"`
	Color      string  `json:"color,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Clamp constrains the box to the 0-100 percentage space, preserving the
// invariant x+width <= 100 and y+height <= 100.
func (b DetectedBox) Clamp() DetectedBox {
	b.X = clampPct(b.X)
	b.Y = clampPct(b.Y)
	b.Width = clampPct(b.Width)
	b.Height = clampPct(b.Height)
	if b.X+b.Width > 100 {
		b.Width = 100 - b.X
	}
	if b.Y+b.Height > 100 {
		b.Height = 100 - b.Y
	}
	return b
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Detection is one persisted bounding box belonging to an analysis entry.
// AI detections are never physically removed: a human "delete" only flips
// IsDeleted, preserving the false-positive signal for retraining.
type Detection struct {
	ID      int64 `json:"id"`
	EntryID int64 `json:"entry_id"`

	// Current geometry, percentage space
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Label      string  `json:"label"`
	Color      string  `json:"color,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	// Provenance
	IsAIDetected bool `json:"is_ai_detected"`
	IsCorrected  bool `json:"is_corrected"`
	IsDeleted    bool `json:"is_deleted"`

	// Pre-correction geometry, set only when the box was moved or resized
	OriginalX      *float64 `json:"original_x,omitempty"`
	OriginalY      *float64 `json:"original_y,omitempty"`
	OriginalWidth  *float64 `json:"original_width,omitempty"`
	OriginalHeight *float64 `json:"original_height,omitempty"`

	CorrectionType string     `json:"correction_type,omitempty"`
	CorrectedBy    int64      `json:"corrected_by_user_id,omitempty"`
	CorrectedAt    *time.Time `json:"corrected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Box returns the detection's current geometry as a DetectedBox.
func (d Detection) Box() DetectedBox {
	return DetectedBox{
		X: d.X, Y: d.Y, Width: d.Width, Height: d.Height,
		Label: d.Label, Color: d.Color, Confidence: d.Confidence,
	}
}

// CropInfo records an auto-crop applied before detection so downstream
// consumers can map box coordinates back to the original image.
type CropInfo struct {
	X                int     `json:"x"`
	Y                int     `json:"y"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	OriginalWidth    int     `json:"original_width"`
	OriginalHeight   int     `json:"original_height"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// CorrectionStats aggregates the classifications of one reconciliation run.
// Ambiguous counts corrected boxes that had more than one AI detection
// within matching tolerance; the first match won (greedy policy) but the
// ambiguity is surfaced for observability.
type CorrectionStats struct {
	Deleted   int `json:"deleted"`
	Added     int `json:"added"`
	Moved     int `json:"moved"`
	Resized   int `json:"resized"`
	Unchanged int `json:"unchanged"`
	Ambiguous int `json:"ambiguous,omitempty"`
}

// Edited reports whether the run produced any non-unchanged classification.
func (s CorrectionStats) Edited() bool {
	return s.Deleted > 0 || s.Added > 0 || s.Moved > 0 || s.Resized > 0
}
