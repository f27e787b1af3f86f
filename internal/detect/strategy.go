package detect

import (
	"math"

	"roll-counter/internal/model"
	"roll-counter/pkg/geometry"
)

// Strategy identifies one variant of the geometric localization cascade.
type Strategy int

const (
	StrategyNone Strategy = iota
	// StrategyGridFromCenters places circles on validated roll centers with
	// the radius derived from their spacing.
	StrategyGridFromCenters
	// StrategyHoughSweep runs a Hough circle transform over a parameter grid.
	StrategyHoughSweep
	// StrategyUniformGrid partitions the region into cells, one candidate
	// per cell center. Non-overlap holds by construction.
	StrategyUniformGrid
)

func (s Strategy) String() string {
	switch s {
	case StrategyGridFromCenters:
		return "GridFromCenters"
	case StrategyHoughSweep:
		return "HoughSweep"
	case StrategyUniformGrid:
		return "UniformGrid"
	default:
		return "None"
	}
}

// Method maps the strategy to the result method reported for observability.
func (s Strategy) Method() model.Method {
	switch s {
	case StrategyGridFromCenters:
		return model.MethodGeometricGrid
	case StrategyHoughSweep:
		return model.MethodGeometricHough
	case StrategyUniformGrid:
		return model.MethodGeometricGridFallback
	default:
		return model.MethodNone
	}
}

// StrategyResult is the outcome of one strategy attempt.
type StrategyResult struct {
	Strategy Strategy
	Circles  []geometry.Circle
}

// outOfBandPenalty dominates any in-band distance so that an implausible
// count never beats a plausible one.
const outOfBandPenalty = 1000

// score rates a candidate count: lower is better. With a hint the reference
// is the hint; otherwise the deployment target, with counts outside the
// plausible band pushed behind every in-band result.
func (p Params) score(count, hint int) float64 {
	if count == 0 {
		return math.Inf(1)
	}
	if hint > 0 {
		return math.Abs(float64(count - hint))
	}
	s := math.Abs(float64(count - p.CountTarget))
	if count < p.CountBandMin || count > p.CountBandMax {
		s += outOfBandPenalty
	}
	return s
}

// plausible reports whether a count is good enough to stop the cascade.
func (p Params) plausible(count, hint int) bool {
	if count == 0 {
		return false
	}
	if hint > 0 {
		tolerance := hint / 10
		if tolerance < 2 {
			tolerance = 2
		}
		return int(math.Abs(float64(count-hint))) <= tolerance
	}
	return count >= p.CountBandMin && count <= p.CountBandMax
}

// nms applies first-fit non-maximum suppression: a circle is kept only when
// its center is at least minDist from every previously kept center.
func nms(circles []geometry.Circle, minDist float64) []geometry.Circle {
	if len(circles) <= 1 {
		return circles
	}

	kept := make([]geometry.Circle, 0, len(circles))
	for _, c := range circles {
		dup := false
		for _, k := range kept {
			if c.Center.Distance(k.Center) < minDist {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}
