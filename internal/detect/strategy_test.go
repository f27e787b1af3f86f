package detect

import (
	"math"
	"testing"

	"roll-counter/pkg/geometry"
)

func circleAt(x, y, r float64) geometry.Circle {
	return geometry.Circle{Center: geometry.Point2D{X: x, Y: y}, Radius: r}
}

func TestNMSSuppressesOverlaps(t *testing.T) {
	circles := []geometry.Circle{
		circleAt(100, 100, 20),
		circleAt(105, 100, 20), // within minDist of the first
		circleAt(200, 100, 20),
	}

	kept := nms(circles, 36)
	if len(kept) != 2 {
		t.Fatalf("nms kept %d circles, want 2", len(kept))
	}
	if kept[0].Center.X != 100 || kept[1].Center.X != 200 {
		t.Errorf("nms kept wrong circles: %+v", kept)
	}
}

func TestNMSMinSpacingInvariant(t *testing.T) {
	var circles []geometry.Circle
	for i := 0; i < 50; i++ {
		circles = append(circles, circleAt(float64(i*13), 100, 20))
	}

	minDist := 36.0
	kept := nms(circles, minDist)
	for i := range kept {
		for j := i + 1; j < len(kept); j++ {
			if d := kept[i].Center.Distance(kept[j].Center); d < minDist {
				t.Fatalf("kept circles %d and %d are %.1f apart, want >= %.1f", i, j, d, minDist)
			}
		}
	}
}

func TestScoreWithHint(t *testing.T) {
	p := DefaultParams()

	if got := p.score(100, 100); got != 0 {
		t.Errorf("score(100, hint 100) = %v, want 0", got)
	}
	if p.score(90, 100) <= p.score(95, 100) {
		t.Error("counts farther from the hint should score worse")
	}
	if !math.IsInf(p.score(0, 100), 1) {
		t.Error("zero count should never win")
	}
}

func TestScoreOutOfBandPenalty(t *testing.T) {
	p := DefaultParams()

	// 130 is farther from the target than 89, but 89 is outside the band
	if p.score(89, 0) <= p.score(130, 0) {
		t.Error("an in-band count should always beat an out-of-band count")
	}
}

func TestPlausible(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		count, hint int
		want        bool
	}{
		{109, 0, true},
		{90, 0, true},
		{130, 0, true},
		{89, 0, false},
		{131, 0, false},
		{0, 0, false},
		{100, 100, true},
		{95, 100, true}, // within hint/10
		{80, 100, false},
		{0, 100, false},
		{4, 5, true}, // minimum tolerance of 2
		{2, 5, false},
	}
	for _, tt := range tests {
		if got := p.plausible(tt.count, tt.hint); got != tt.want {
			t.Errorf("plausible(%d, hint %d) = %v, want %v", tt.count, tt.hint, got, tt.want)
		}
	}
}

func TestStrategyMethod(t *testing.T) {
	tests := []struct {
		s    Strategy
		want string
	}{
		{StrategyGridFromCenters, "GeometricGrid"},
		{StrategyHoughSweep, "GeometricHough"},
		{StrategyUniformGrid, "GeometricGridFallback"},
		{StrategyNone, "None"},
	}
	for _, tt := range tests {
		if got := tt.s.Method().String(); got != tt.want {
			t.Errorf("%s.Method() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
