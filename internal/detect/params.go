// Package detect implements the geometric localization cascade and the
// detection pipeline orchestrator.
package detect

import "roll-counter/internal/config"

// Params configures the geometric cascade.
type Params struct {
	// NMS: minimum center spacing as a multiple of the roll radius.
	// 1.8 guarantees no overlapping detections.
	NMSSpacingFactor float64

	// Minimum validated centers required to trust the calibrated grid.
	MinCentersForGrid int

	// Hough sweep parameter grid. Each (dp, param2) combination is tried
	// and the best-scoring set of validated circles wins.
	HoughDPs     []float64
	HoughParam2s []float64
	HoughParam1  float64

	// Ring validation of Hough and grid candidates against the color mask.
	RingSamples    int
	RingHitsMin    int
	RingRadiusFrac float64

	// Uniform grid fallback.
	GridRadiusFactor float64 // radius as fraction of the smaller cell dim
	GridColsMin      int     // density sweep bounds when no hint exists
	GridColsMax      int
	GridRowsMin      int
	GridRowsMax      int
	CellSizeMin      float64 // px; reject absurd cell dimensions
	CellSizeMax      float64

	// Count plausibility. Target is the typical load of the deployment;
	// the band bounds acceptable counts when no hint is available.
	CountTarget  int
	CountBandMin int
	CountBandMax int
}

// DefaultParams returns cascade parameters tuned for the reference rack
// imagery (~109 rolls in an 11x10 arrangement).
func DefaultParams() Params {
	return Params{
		NMSSpacingFactor:  1.8,
		MinCentersForGrid: 10,

		HoughDPs:     []float64{1.0, 1.2, 0.8, 1.5},
		HoughParam2s: []float64{20, 25, 30, 15, 35},
		HoughParam1:  50,

		RingSamples:    12,
		RingHitsMin:    5,
		RingRadiusFrac: 0.6,

		GridRadiusFactor: 0.40,
		GridColsMin:      9,
		GridColsMax:      14,
		GridRowsMin:      8,
		GridRowsMax:      13,
		CellSizeMin:      20,
		CellSizeMax:      150,

		CountTarget:  109,
		CountBandMin: 90,
		CountBandMax: 130,
	}
}

// WithConfig overrides the deployment-specific count targets from config.
func (p Params) WithConfig(cfg *config.Config) Params {
	if cfg == nil {
		return p
	}
	if cfg.CountTarget > 0 {
		p.CountTarget = cfg.CountTarget
	}
	if cfg.CountBandMin > 0 {
		p.CountBandMin = cfg.CountBandMin
	}
	if cfg.CountBandMax > 0 {
		p.CountBandMax = cfg.CountBandMax
	}
	return p
}
