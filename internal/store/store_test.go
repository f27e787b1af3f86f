package store

import (
	"database/sql"
	"errors"
	"testing"

	"roll-counter/internal/model"
)

func memoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *model.DetectionResult {
	boxes := []model.DetectedBox{
		{X: 10, Y: 10, Width: 8, Height: 8, Label: model.DefaultLabel, Color: "pink", Confidence: 0.9},
		{X: 30, Y: 10, Width: 8, Height: 8, Label: model.DefaultLabel, Color: "pink", Confidence: 0.8},
		{X: 50, Y: 10, Width: 8, Height: 8, Label: model.DefaultLabel, Color: "orange", Confidence: 0.7},
	}
	return &model.DetectionResult{
		TotalCount:     len(boxes),
		ColorBreakdown: model.BreakdownFromBoxes(boxes),
		Boxes:          boxes,
		Method:         model.MethodGeometricGrid,
	}
}

func TestEntryRoundTrip(t *testing.T) {
	s := memoryStore(t)

	id, err := s.CreateEntry(&model.Entry{
		ImagePath:      "rack.jpg",
		Method:         model.MethodGeometricHough,
		AICount:        109,
		FinalCount:     109,
		ColorBreakdown: map[string]int{"pink": 100, "orange": 9},
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	got, err := s.GetEntry(id)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.ImagePath != "rack.jpg" || got.Method != model.MethodGeometricHough {
		t.Errorf("entry fields lost: %+v", got)
	}
	if got.AICount != 109 || got.FinalCount != 109 || got.WasEdited {
		t.Errorf("entry counts wrong: %+v", got)
	}
	if got.ColorBreakdown["pink"] != 100 || got.ColorBreakdown["orange"] != 9 {
		t.Errorf("color breakdown lost: %+v", got.ColorBreakdown)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	s := memoryStore(t)

	if _, err := s.GetEntry(42); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("GetEntry(42) error = %v, want ErrEntryNotFound", err)
	}
}

func TestInsertFromResult(t *testing.T) {
	s := memoryStore(t)

	entry, err := s.InsertFromResult("rack.jpg", "thumb.jpg", sampleResult())
	if err != nil {
		t.Fatalf("InsertFromResult: %v", err)
	}
	if entry.AICount != 3 || entry.FinalCount != 3 {
		t.Errorf("entry counts = %d/%d, want 3/3", entry.AICount, entry.FinalCount)
	}

	detections, err := s.ActiveAIDetections(entry.ID)
	if err != nil {
		t.Fatalf("ActiveAIDetections: %v", err)
	}
	if len(detections) != 3 {
		t.Fatalf("got %d active detections, want 3", len(detections))
	}
	for _, d := range detections {
		if !d.IsAIDetected || d.IsDeleted || d.IsCorrected {
			t.Errorf("fresh detection has wrong flags: %+v", d)
		}
		if d.EntryID != entry.ID {
			t.Errorf("detection bound to entry %d, want %d", d.EntryID, entry.ID)
		}
	}
}

func TestActiveExcludesSoftDeleted(t *testing.T) {
	s := memoryStore(t)

	entry, err := s.InsertFromResult("rack.jpg", "", sampleResult())
	if err != nil {
		t.Fatalf("InsertFromResult: %v", err)
	}

	err = s.WithEntryTx(entry.ID, func(tx *sql.Tx) error {
		detections, err := ActiveAIDetectionsTx(tx, entry.ID)
		if err != nil {
			return err
		}
		d := detections[0]
		d.IsDeleted = true
		d.IsCorrected = true
		d.CorrectionType = model.CorrectionDeleted
		return UpdateDetectionTx(tx, d)
	})
	if err != nil {
		t.Fatalf("WithEntryTx: %v", err)
	}

	active, err := s.ActiveAIDetections(entry.ID)
	if err != nil {
		t.Fatalf("ActiveAIDetections: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("got %d active detections after soft delete, want 2", len(active))
	}

	all, err := s.DetectionsByEntry(entry.ID)
	if err != nil {
		t.Fatalf("DetectionsByEntry: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d total detections, want 3 (soft delete keeps the row)", len(all))
	}
}

func TestWithEntryTxUnknownEntry(t *testing.T) {
	s := memoryStore(t)

	err := s.WithEntryTx(99, func(tx *sql.Tx) error { return nil })
	if !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("WithEntryTx(99) error = %v, want ErrEntryNotFound", err)
	}
}

func TestUpdateEntryCounts(t *testing.T) {
	s := memoryStore(t)

	entry, err := s.InsertFromResult("rack.jpg", "", sampleResult())
	if err != nil {
		t.Fatalf("InsertFromResult: %v", err)
	}

	err = s.WithEntryTx(entry.ID, func(tx *sql.Tx) error {
		return UpdateEntryCountsTx(tx, entry.ID, 5, true)
	})
	if err != nil {
		t.Fatalf("WithEntryTx: %v", err)
	}

	got, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.FinalCount != 5 || !got.WasEdited {
		t.Errorf("entry after update: final=%d edited=%v, want 5/true", got.FinalCount, got.WasEdited)
	}
	if got.AICount != 3 {
		t.Errorf("AI count changed to %d, must stay 3", got.AICount)
	}
}
