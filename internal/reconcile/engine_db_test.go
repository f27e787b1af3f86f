package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"

	"roll-counter/internal/logging"
	"roll-counter/internal/model"
	"roll-counter/internal/store"
)

func testEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewEngine(s, logging.NewWriter(io.Discard, "error")), s
}

func seedEntry(t *testing.T, s *store.Store) *model.Entry {
	t.Helper()
	boxes := []model.DetectedBox{
		{X: 10, Y: 10, Width: 8, Height: 8, Label: model.DefaultLabel, Color: "pink"},
		{X: 30, Y: 10, Width: 8, Height: 8, Label: model.DefaultLabel, Color: "pink"},
		{X: 50, Y: 10, Width: 8, Height: 8, Label: model.DefaultLabel, Color: "pink"},
	}
	entry, err := s.InsertFromResult("rack.jpg", "", &model.DetectionResult{
		TotalCount:     len(boxes),
		ColorBreakdown: model.BreakdownFromBoxes(boxes),
		Boxes:          boxes,
		Method:         model.MethodGeometricGrid,
	})
	if err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
	return entry
}

func TestReconcilePersistsOutcome(t *testing.T) {
	engine, s := testEngine(t)
	entry := seedEntry(t, s)

	// Keep the first box, move the second, drop the third, add a fourth
	corrected := []model.DetectedBox{
		{X: 10, Y: 10, Width: 8, Height: 8},
		{X: 33, Y: 10, Width: 8, Height: 8},
		{X: 80, Y: 80, Width: 8, Height: 8},
	}

	outcome, err := engine.Reconcile(context.Background(), entry.ID, corrected, 7)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	want := model.CorrectionStats{Unchanged: 1, Moved: 1, Deleted: 1, Added: 1}
	if outcome.Stats != want {
		t.Errorf("stats = %+v, want %+v", outcome.Stats, want)
	}
	if outcome.FinalCount != 3 {
		t.Errorf("FinalCount = %d, want 3", outcome.FinalCount)
	}

	got, err := s.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if got.FinalCount != 3 || !got.WasEdited {
		t.Errorf("entry after reconcile: final=%d edited=%v, want 3/true", got.FinalCount, got.WasEdited)
	}

	all, err := s.DetectionsByEntry(entry.ID)
	if err != nil {
		t.Fatalf("DetectionsByEntry: %v", err)
	}
	// 3 AI rows (one soft-deleted) plus the human addition
	if len(all) != 4 {
		t.Fatalf("got %d detection rows, want 4", len(all))
	}

	var deleted, added, moved int
	for _, d := range all {
		switch d.CorrectionType {
		case model.CorrectionDeleted:
			deleted++
			if !d.IsDeleted || !d.IsAIDetected {
				t.Errorf("deleted row has wrong flags: %+v", d)
			}
		case model.CorrectionAdded:
			added++
			if d.IsAIDetected || d.IsDeleted {
				t.Errorf("added row has wrong flags: %+v", d)
			}
		case model.CorrectionMoved:
			moved++
			if d.OriginalX == nil || *d.OriginalX != 30 {
				t.Errorf("moved row missing original geometry: %+v", d)
			}
			if d.X != 33 {
				t.Errorf("moved row x = %v, want 33", d.X)
			}
		}
	}
	if deleted != 1 || added != 1 || moved != 1 {
		t.Errorf("row classifications: deleted=%d added=%d moved=%d, want 1 each", deleted, added, moved)
	}
}

func TestReconcileIdempotentOnRepeat(t *testing.T) {
	engine, s := testEngine(t)
	entry := seedEntry(t, s)

	corrected := []model.DetectedBox{
		{X: 10, Y: 10, Width: 8, Height: 8},
		{X: 30, Y: 10, Width: 8, Height: 8},
		{X: 50, Y: 10, Width: 8, Height: 8},
	}

	for i := 0; i < 2; i++ {
		outcome, err := engine.Reconcile(context.Background(), entry.ID, corrected, 7)
		if err != nil {
			t.Fatalf("Reconcile run %d: %v", i+1, err)
		}
		if outcome.Stats != (model.CorrectionStats{Unchanged: 3}) {
			t.Errorf("run %d stats = %+v, want 3 unchanged", i+1, outcome.Stats)
		}
	}

	all, err := s.DetectionsByEntry(entry.ID)
	if err != nil {
		t.Fatalf("DetectionsByEntry: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("repeat reconciliation grew the row count to %d", len(all))
	}
}

func TestReconcileUnknownEntry(t *testing.T) {
	engine, _ := testEngine(t)

	_, err := engine.Reconcile(context.Background(), 999, nil, 7)
	if !errors.Is(err, store.ErrEntryNotFound) {
		t.Errorf("Reconcile(999) error = %v, want store.ErrEntryNotFound", err)
	}
}
