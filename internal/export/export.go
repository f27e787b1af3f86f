// Package export shapes reconciled detections into retraining feedback and
// accuracy summaries.
package export

import (
	"encoding/json"
	"io"
	"math"
	"time"

	"roll-counter/internal/model"
)

// Feedback tags for retraining. A kept box was a true positive, a
// false_positive was deleted by a human, an added box was missed by the
// detector.
const (
	TagKept          = "kept"
	TagFalsePositive = "false_positive"
	TagAdded         = "added"
)

// Record is one detection prepared for the retraining set: the final
// geometry, the feedback tag, and the correction provenance.
type Record struct {
	Tag string `json:"tag"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Label string `json:"label"`
	Color string `json:"color,omitempty"`

	CorrectionType string     `json:"correction_type,omitempty"`
	OriginalX      *float64   `json:"original_x,omitempty"`
	OriginalY      *float64   `json:"original_y,omitempty"`
	OriginalWidth  *float64   `json:"original_width,omitempty"`
	OriginalHeight *float64   `json:"original_height,omitempty"`
	CorrectedBy    int64      `json:"corrected_by,omitempty"`
	CorrectedAt    *time.Time `json:"corrected_at,omitempty"`
}

// Records converts an entry's detections (including soft-deleted ones) to
// tagged feedback records.
func Records(detections []model.Detection) []Record {
	records := make([]Record, 0, len(detections))
	for _, d := range detections {
		records = append(records, Record{
			Tag:            tagFor(d),
			X:              d.X,
			Y:              d.Y,
			Width:          d.Width,
			Height:         d.Height,
			Label:          d.Label,
			Color:          d.Color,
			CorrectionType: d.CorrectionType,
			OriginalX:      d.OriginalX,
			OriginalY:      d.OriginalY,
			OriginalWidth:  d.OriginalWidth,
			OriginalHeight: d.OriginalHeight,
			CorrectedBy:    d.CorrectedBy,
			CorrectedAt:    d.CorrectedAt,
		})
	}
	return records
}

func tagFor(d model.Detection) string {
	switch {
	case d.IsDeleted:
		return TagFalsePositive
	case !d.IsAIDetected:
		return TagAdded
	default:
		return TagKept
	}
}

// Summary is the detector accuracy roll-up across entries.
type Summary struct {
	Entries       int `json:"entries"`
	EditedEntries int `json:"edited_entries"`
	AITotal       int `json:"ai_total"`
	FinalTotal    int `json:"final_total"`

	// Mean per-entry accuracy: 100 * (1 - |final - ai| / final), floored
	// at zero. Entries with a zero final count are skipped.
	AccuracyPercent float64 `json:"accuracy_percent"`
}

// Summarize computes the accuracy roll-up over a set of entries.
func Summarize(entries []model.Entry) Summary {
	s := Summary{Entries: len(entries)}

	var accSum float64
	var accN int
	for _, e := range entries {
		s.AITotal += e.AICount
		s.FinalTotal += e.FinalCount
		if e.WasEdited {
			s.EditedEntries++
		}
		if e.FinalCount > 0 {
			acc := 100 * (1 - math.Abs(float64(e.CountDelta()))/float64(e.FinalCount))
			if acc < 0 {
				acc = 0
			}
			accSum += acc
			accN++
		}
	}
	if accN > 0 {
		s.AccuracyPercent = math.Round(accSum/float64(accN)*10) / 10
	}
	return s
}

// WriteJSON writes records as indented JSON.
func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
