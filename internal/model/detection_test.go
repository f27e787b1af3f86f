package model

import "testing"

func TestClampKeepsBoxInBounds(t *testing.T) {
	tests := []struct {
		name string
		in   DetectedBox
	}{
		{"negative origin", DetectedBox{X: -5, Y: -3, Width: 10, Height: 10}},
		{"overflow right", DetectedBox{X: 96, Y: 10, Width: 10, Height: 8}},
		{"overflow bottom", DetectedBox{X: 10, Y: 98, Width: 8, Height: 10}},
		{"everything oversized", DetectedBox{X: 150, Y: 150, Width: 200, Height: 200}},
	}
	for _, tt := range tests {
		got := tt.in.Clamp()
		if got.X < 0 || got.Y < 0 || got.Width < 0 || got.Height < 0 {
			t.Errorf("%s: negative component after clamp: %+v", tt.name, got)
		}
		if got.X+got.Width > 100 || got.Y+got.Height > 100 {
			t.Errorf("%s: box exceeds bounds after clamp: %+v", tt.name, got)
		}
	}
}

func TestClampNoOpInBounds(t *testing.T) {
	in := DetectedBox{X: 10, Y: 20, Width: 30, Height: 40}
	if got := in.Clamp(); got != in {
		t.Errorf("in-bounds box changed by clamp: %+v", got)
	}
}

func TestBreakdownSumsToBoxCount(t *testing.T) {
	boxes := []DetectedBox{
		{Color: "pink"},
		{Color: "pink"},
		{Color: "orange"},
		{Color: ""}, // unclassifiable, still counted
	}

	breakdown := BreakdownFromBoxes(boxes)
	sum := 0
	for _, n := range breakdown {
		sum += n
	}
	if sum != len(boxes) {
		t.Errorf("breakdown sums to %d, want %d", sum, len(boxes))
	}
	if breakdown["pink"] != 2 || breakdown["unknown"] != 1 {
		t.Errorf("breakdown = %v", breakdown)
	}
}

func TestCorrectionStatsEdited(t *testing.T) {
	if (CorrectionStats{Unchanged: 10}).Edited() {
		t.Error("all-unchanged stats should not count as edited")
	}
	if !(CorrectionStats{Unchanged: 9, Moved: 1}).Edited() {
		t.Error("a single move should count as edited")
	}
	if (CorrectionStats{Ambiguous: 1}).Edited() {
		t.Error("ambiguity alone is not an edit")
	}
}
