package detect

import (
	"math"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"roll-counter/internal/centers"
	"roll-counter/internal/region"
)

// Geometric runs the escalating localization cascade: calibrated grid from
// validated centers, Hough parameter sweep, uniform grid fallback. Each
// stage is attempted only when the previous one yields an implausible
// count, and the best-scoring result wins overall, even when empty.
func (p Params) Geometric(img gocv.Mat, loc region.Located, hint int, log zerolog.Logger) StrategyResult {
	best := StrategyResult{Strategy: StrategyNone}
	bestScore := math.Inf(1)

	consider := func(r StrategyResult) bool {
		s := p.score(len(r.Circles), hint)
		if s < bestScore {
			bestScore = s
			best = r
		}
		return p.plausible(len(r.Circles), hint)
	}

	cands := centers.Find(img, loc.Region, loc.Mask)
	radius := centers.DeriveRadius(cands, loc.Region)
	log.Debug().
		Int("centers", len(cands)).
		Float64("radius", radius).
		Msg("center estimation")

	if len(cands) >= p.MinCentersForGrid {
		r := StrategyResult{
			Strategy: StrategyGridFromCenters,
			Circles:  p.gridFromCenters(cands, radius),
		}
		log.Debug().Int("count", len(r.Circles)).Str("strategy", r.Strategy.String()).Msg("strategy attempt")
		if consider(r) {
			return best
		}
	}

	hough := StrategyResult{
		Strategy: StrategyHoughSweep,
		Circles:  p.houghSweep(img, loc.Region, loc.Mask, hint),
	}
	log.Debug().Int("count", len(hough.Circles)).Str("strategy", hough.Strategy.String()).Msg("strategy attempt")
	if consider(hough) {
		return best
	}

	uniform := StrategyResult{
		Strategy: StrategyUniformGrid,
		Circles:  p.uniformGrid(loc.Region, loc.Mask, hint),
	}
	log.Debug().Int("count", len(uniform.Circles)).Str("strategy", uniform.Strategy.String()).Msg("strategy attempt")
	consider(uniform)

	return best
}
