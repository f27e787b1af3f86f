package reconcile

import (
	"testing"
	"time"

	"roll-counter/internal/model"
)

func aiDetection(id int64, x, y, w, h float64) model.Detection {
	return model.Detection{
		ID: id, EntryID: 1,
		X: x, Y: y, Width: w, Height: h,
		Label: model.DefaultLabel, IsAIDetected: true,
	}
}

func box(x, y, w, h float64) model.DetectedBox {
	return model.DetectedBox{X: x, Y: y, Width: w, Height: h, Label: model.DefaultLabel}
}

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestMatchIdentity(t *testing.T) {
	existing := []model.Detection{
		aiDetection(1, 10, 10, 8, 8),
		aiDetection(2, 30, 10, 8, 8),
		aiDetection(3, 10, 30, 8, 8),
		aiDetection(4, 30, 30, 8, 8),
	}
	corrected := make([]model.DetectedBox, len(existing))
	for i, d := range existing {
		corrected[i] = d.Box()
	}

	out := Match(existing, corrected, 7, now)

	if out.Stats != (model.CorrectionStats{Unchanged: 4}) {
		t.Errorf("stats = %+v, want 4 unchanged", out.Stats)
	}
	if out.FinalCount != 4 {
		t.Errorf("FinalCount = %d, want 4", out.FinalCount)
	}
	if len(out.Added) != 0 {
		t.Errorf("Added = %d, want 0", len(out.Added))
	}
	for _, d := range out.Updated {
		if d.CorrectionType != model.CorrectionUnchanged {
			t.Errorf("detection %d classified %q, want unchanged", d.ID, d.CorrectionType)
		}
		if d.IsCorrected || d.IsDeleted {
			t.Errorf("detection %d flagged corrected/deleted on identity input", d.ID)
		}
		if d.OriginalX != nil {
			t.Errorf("detection %d has original geometry snapshot on identity input", d.ID)
		}
	}
	if out.Stats.Edited() {
		t.Error("identity reconciliation should not count as edited")
	}
}

func TestMatchAddAndDelete(t *testing.T) {
	existing := []model.Detection{
		aiDetection(1, 10, 10, 8, 8),
		aiDetection(2, 30, 10, 8, 8),
		aiDetection(3, 10, 30, 8, 8),
		aiDetection(4, 30, 30, 8, 8),
		aiDetection(5, 50, 50, 8, 8), // human will reject this one
	}
	corrected := []model.DetectedBox{
		box(10, 10, 8, 8),
		box(30, 10, 8, 8),
		box(10, 30, 8, 8),
		box(30, 30, 8, 8),
		box(80, 80, 8, 8), // human spotted a roll the AI missed
	}

	out := Match(existing, corrected, 7, now)

	want := model.CorrectionStats{Unchanged: 4, Added: 1, Deleted: 1}
	if out.Stats != want {
		t.Errorf("stats = %+v, want %+v", out.Stats, want)
	}
	if out.FinalCount != 5 {
		t.Errorf("FinalCount = %d, want 5", out.FinalCount)
	}

	if len(out.Added) != 1 {
		t.Fatalf("Added = %d, want 1", len(out.Added))
	}
	added := out.Added[0]
	if added.IsAIDetected || !added.IsCorrected || added.CorrectionType != model.CorrectionAdded {
		t.Errorf("added detection has wrong provenance: %+v", added)
	}
	if added.CorrectedBy != 7 || added.CorrectedAt == nil {
		t.Error("added detection missing correction attribution")
	}

	var deleted *model.Detection
	for i := range out.Updated {
		if out.Updated[i].ID == 5 {
			deleted = &out.Updated[i]
		}
	}
	if deleted == nil {
		t.Fatal("rejected detection 5 not in Updated")
	}
	if !deleted.IsDeleted || deleted.CorrectionType != model.CorrectionDeleted {
		t.Errorf("rejected detection not soft-deleted: %+v", deleted)
	}
	if deleted.X != 50 || deleted.Y != 50 {
		t.Error("soft delete must preserve the original geometry")
	}
}

func TestMatchMoved(t *testing.T) {
	existing := []model.Detection{aiDetection(1, 10, 10, 8, 8)}
	corrected := []model.DetectedBox{box(12, 10, 8, 8)} // nudged 2pt right

	out := Match(existing, corrected, 7, now)

	if out.Stats.Moved != 1 || out.Stats.Resized != 0 {
		t.Fatalf("stats = %+v, want 1 moved", out.Stats)
	}
	d := out.Updated[0]
	if d.CorrectionType != model.CorrectionMoved {
		t.Errorf("classified %q, want moved", d.CorrectionType)
	}
	if d.X != 12 || d.Width != 8 {
		t.Errorf("geometry not updated: x=%v w=%v", d.X, d.Width)
	}
	if d.OriginalX == nil || *d.OriginalX != 10 {
		t.Error("original x not snapshotted")
	}
	if d.OriginalWidth == nil || *d.OriginalWidth != 8 {
		t.Error("original width not snapshotted")
	}
	if !d.IsCorrected || d.CorrectedBy != 7 || d.CorrectedAt == nil || !d.CorrectedAt.Equal(now) {
		t.Error("correction attribution missing")
	}
}

func TestMatchMovedAndResized(t *testing.T) {
	existing := []model.Detection{aiDetection(1, 10, 10, 8, 8)}
	corrected := []model.DetectedBox{box(13, 10, 10.5, 8)}

	out := Match(existing, corrected, 7, now)

	// A moved and resized box counts toward both totals
	if out.Stats.Moved != 1 || out.Stats.Resized != 1 {
		t.Fatalf("stats = %+v, want moved and resized both 1", out.Stats)
	}
	if out.Updated[0].CorrectionType != model.CorrectionMovedResized {
		t.Errorf("classified %q, want moved_resized", out.Updated[0].CorrectionType)
	}
}

func TestMatchSubEpsilonNoise(t *testing.T) {
	existing := []model.Detection{aiDetection(1, 10, 10, 8, 8)}
	corrected := []model.DetectedBox{box(10.5, 10, 8, 8.9)} // below the 1pt threshold

	out := Match(existing, corrected, 7, now)

	if out.Stats != (model.CorrectionStats{Unchanged: 1}) {
		t.Errorf("stats = %+v, want 1 unchanged", out.Stats)
	}
}

func TestMatchEmptyCorrections(t *testing.T) {
	existing := []model.Detection{
		aiDetection(1, 10, 10, 8, 8),
		aiDetection(2, 30, 10, 8, 8),
	}

	out := Match(existing, nil, 7, now)

	if out.FinalCount != 0 {
		t.Errorf("FinalCount = %d, want 0", out.FinalCount)
	}
	if out.Stats.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", out.Stats.Deleted)
	}
	for _, d := range out.Updated {
		if !d.IsDeleted {
			t.Errorf("detection %d not soft-deleted", d.ID)
		}
	}
}

func TestMatchAmbiguousClaimsFirst(t *testing.T) {
	// Two AI boxes both within tolerance of one corrected box: the first
	// wins, the second is deleted, and the ambiguity is surfaced.
	existing := []model.Detection{
		aiDetection(1, 10, 10, 8, 8),
		aiDetection(2, 13, 10, 8, 8),
	}
	corrected := []model.DetectedBox{box(11, 10, 8, 8)}

	out := Match(existing, corrected, 7, now)

	if out.Stats.Ambiguous != 1 {
		t.Errorf("Ambiguous = %d, want 1", out.Stats.Ambiguous)
	}
	if out.Stats.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", out.Stats.Deleted)
	}
	for _, d := range out.Updated {
		if d.ID == 1 && d.IsDeleted {
			t.Error("first match should have been claimed, not deleted")
		}
		if d.ID == 2 && !d.IsDeleted {
			t.Error("second overlapping detection should be deleted")
		}
	}
}

func TestMatchClampsCorrectedBoxes(t *testing.T) {
	out := Match(nil, []model.DetectedBox{box(96, 10, 10, 8)}, 7, now)

	if len(out.Added) != 1 {
		t.Fatalf("Added = %d, want 1", len(out.Added))
	}
	d := out.Added[0]
	if d.X+d.Width > 100 {
		t.Errorf("added box exceeds bounds: x=%v w=%v", d.X, d.Width)
	}
}
