// Package reconcile merges human box corrections back into the stored AI
// detections.
//
// Matching is greedy first-fit: each corrected box claims the first
// still-unclaimed AI detection whose geometry agrees within tolerance on
// every axis. Claimed pairs are classified as unchanged, moved, resized, or
// both; unclaimed AI detections become soft deletions; unclaimed corrected
// boxes become human-added detections. The entry's final count is the
// human-verified box count, always.
package reconcile

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/rs/zerolog"

	"roll-counter/internal/model"
	"roll-counter/internal/store"
)

// Per-axis tolerance (percentage points) for a corrected box to match an AI
// detection.
const matchTolerance = 5.0

// Movement or resize below this (percentage points) is treated as noise and
// classified unchanged.
const geometryEpsilon = 1.0

// Outcome is the complete effect of one reconciliation: the mutated
// existing detections, the newly added ones, the classification stats, and
// the entry's new final count.
type Outcome struct {
	Updated    []model.Detection
	Added      []model.Detection
	Stats      model.CorrectionStats
	FinalCount int
}

// Match computes the reconciliation of corrected boxes against the active
// AI detections. Pure: it touches no storage and derives all timestamps
// from now.
func Match(existing []model.Detection, corrected []model.DetectedBox, actorID int64, now time.Time) Outcome {
	out := Outcome{FinalCount: len(corrected)}
	claimed := make([]bool, len(existing))

	for _, raw := range corrected {
		cb := raw.Clamp()

		matchIdx := -1
		matchCount := 0
		for i := range existing {
			if claimed[i] {
				continue
			}
			if withinTolerance(existing[i], cb) {
				matchCount++
				if matchIdx < 0 {
					matchIdx = i
				}
			}
		}

		if matchIdx < 0 {
			out.Added = append(out.Added, newAddedDetection(cb, existingEntryID(existing), actorID, now))
			out.Stats.Added++
			continue
		}

		claimed[matchIdx] = true
		if matchCount > 1 {
			out.Stats.Ambiguous++
		}
		out.Updated = append(out.Updated, classify(existing[matchIdx], cb, actorID, now, &out.Stats))
	}

	for i, d := range existing {
		if claimed[i] {
			continue
		}
		d.IsDeleted = true
		d.IsCorrected = true
		d.CorrectionType = model.CorrectionDeleted
		d.CorrectedBy = actorID
		d.CorrectedAt = &now
		d.UpdatedAt = now
		out.Updated = append(out.Updated, d)
		out.Stats.Deleted++
	}

	return out
}

// classify updates one matched detection from its corrected box and
// increments the stats. A box both moved and resized counts toward both
// totals.
func classify(d model.Detection, cb model.DetectedBox, actorID int64, now time.Time, stats *model.CorrectionStats) model.Detection {
	moved := math.Abs(d.X-cb.X) > geometryEpsilon || math.Abs(d.Y-cb.Y) > geometryEpsilon
	resized := math.Abs(d.Width-cb.Width) > geometryEpsilon || math.Abs(d.Height-cb.Height) > geometryEpsilon

	switch {
	case moved && resized:
		d.CorrectionType = model.CorrectionMovedResized
		stats.Moved++
		stats.Resized++
	case moved:
		d.CorrectionType = model.CorrectionMoved
		stats.Moved++
	case resized:
		d.CorrectionType = model.CorrectionResized
		stats.Resized++
	default:
		d.CorrectionType = model.CorrectionUnchanged
		stats.Unchanged++
	}

	if moved || resized {
		origX, origY, origW, origH := d.X, d.Y, d.Width, d.Height
		d.OriginalX = &origX
		d.OriginalY = &origY
		d.OriginalWidth = &origW
		d.OriginalHeight = &origH

		d.X, d.Y, d.Width, d.Height = cb.X, cb.Y, cb.Width, cb.Height
		d.IsCorrected = true
		d.CorrectedBy = actorID
		d.CorrectedAt = &now
	}
	d.UpdatedAt = now
	return d
}

func withinTolerance(d model.Detection, cb model.DetectedBox) bool {
	return math.Abs(d.X-cb.X) <= matchTolerance &&
		math.Abs(d.Y-cb.Y) <= matchTolerance &&
		math.Abs(d.Width-cb.Width) <= matchTolerance &&
		math.Abs(d.Height-cb.Height) <= matchTolerance
}

func newAddedDetection(cb model.DetectedBox, entryID, actorID int64, now time.Time) model.Detection {
	label := cb.Label
	if label == "" {
		label = model.DefaultLabel
	}
	return model.Detection{
		EntryID:        entryID,
		X:              cb.X,
		Y:              cb.Y,
		Width:          cb.Width,
		Height:         cb.Height,
		Label:          label,
		Color:          cb.Color,
		Confidence:     cb.Confidence,
		IsAIDetected:   false,
		IsCorrected:    true,
		CorrectionType: model.CorrectionAdded,
		CorrectedBy:    actorID,
		CorrectedAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func existingEntryID(existing []model.Detection) int64 {
	if len(existing) > 0 {
		return existing[0].EntryID
	}
	return 0
}

// Engine applies reconciliations to the store.
type Engine struct {
	store *store.Store
	log   zerolog.Logger
}

func NewEngine(s *store.Store, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// Reconcile merges the corrected boxes into the entry's detections inside a
// single transaction and updates the entry's final count and edited flag.
// Returns store.ErrEntryNotFound when the entry does not exist.
func (e *Engine) Reconcile(ctx context.Context, entryID int64, corrected []model.DetectedBox, actorID int64) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out Outcome

	err := e.store.WithEntryTx(entryID, func(tx *sql.Tx) error {
		existing, err := store.ActiveAIDetectionsTx(tx, entryID)
		if err != nil {
			return err
		}

		out = Match(existing, corrected, actorID, time.Now())

		for i := range out.Added {
			out.Added[i].EntryID = entryID
			id, err := store.InsertDetectionTx(tx, out.Added[i])
			if err != nil {
				return err
			}
			out.Added[i].ID = id
		}
		for _, d := range out.Updated {
			if err := store.UpdateDetectionTx(tx, d); err != nil {
				return err
			}
		}

		return store.UpdateEntryCountsTx(tx, entryID, out.FinalCount, out.Stats.Edited())
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("entry_id", entryID).
		Int("final_count", out.FinalCount).
		Int("deleted", out.Stats.Deleted).
		Int("added", out.Stats.Added).
		Int("moved", out.Stats.Moved).
		Int("resized", out.Stats.Resized).
		Int("unchanged", out.Stats.Unchanged).
		Msg("corrections reconciled")

	return &out, nil
}
