// Package centers finds candidate roll centers by detecting the dark core
// hole of each roll and validating it against the color mask.
//
// A dark contour alone is ambiguous: the shadowed gaps between packed rolls
// are dark too. A true center is surrounded by roll material, so each
// candidate must pass a two-ring test: mostly on-color close to the hole,
// partially on-color near the roll edge.
package centers

import (
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"roll-counter/internal/mask"
	"roll-counter/pkg/geometry"
)

const (
	darkThreshold  = 50   // grayscale level below which a pixel counts as hole
	circularityMin = 0.45 // 4πA/P²; gaps between rolls are irregular
	interiorMargin = 15   // px a center must keep from the region edge

	// Ring validation against the color mask
	innerRingScale = 2.0
	outerRingScale = 3.5
	ringSamples    = 16
	innerRingMin   = 0.75
	outerRingMin   = 0.40

	// Hole radius to full roll radius, the empirical ratio for this stock
	holeToRollRadius = 3.4

	// Nearest-neighbor distances below this are sensor noise, not spacing
	minNeighborDist = 10.0
)

// Candidate is one validated roll center with its measured hole radius.
type Candidate struct {
	Center     geometry.Point2D
	HoleRadius float64
}

// Find detects validated roll centers inside the region. The color mask is
// in full-image coordinates.
func Find(img gocv.Mat, reg geometry.RectInt, colorMask *mask.Bitmap) []Candidate {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	roi := gray.Region(image.Rect(reg.X, reg.Y, reg.X+reg.Width, reg.Y+reg.Height))
	defer roi.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(roi, &blurred, image.Point{5, 5}, 0, 0, gocv.BorderDefault)

	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(blurred, &dark, darkThreshold, 255, gocv.ThresholdBinaryInv)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()
	gocv.MorphologyEx(dark, &dark, gocv.MorphOpen, kernel)
	gocv.MorphologyEx(dark, &dark, gocv.MorphOpen, kernel)
	gocv.MorphologyEx(dark, &dark, gocv.MorphClose, kernel)

	contours := gocv.FindContours(dark, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	// Hole size bounds derived from the expected roll diameter: roughly ten
	// rolls span the region's short side and the hole is ~15% of a roll.
	expectedDiameter := float64(reg.MinDim()) / 10
	expectedHoleR := expectedDiameter * 0.15
	minArea := math.Max(30, math.Pi*(0.5*expectedHoleR)*(0.5*expectedHoleR))
	maxArea := math.Pi * (2.5 * expectedHoleR) * (2.5 * expectedHoleR)

	var out []Candidate
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)

		area := gocv.ContourArea(c)
		if area < minArea || area > maxArea {
			continue
		}

		perimeter := gocv.ArcLength(c, true)
		if perimeter == 0 {
			continue
		}
		if 4*math.Pi*area/(perimeter*perimeter) < circularityMin {
			continue
		}

		ex, ey, _ := gocv.MinEnclosingCircle(c)
		cx := float64(ex) + float64(reg.X)
		cy := float64(ey) + float64(reg.Y)

		if cx < float64(reg.X+interiorMargin) || cx > float64(reg.X+reg.Width-interiorMargin) ||
			cy < float64(reg.Y+interiorMargin) || cy > float64(reg.Y+reg.Height-interiorMargin) {
			continue
		}

		holeR := math.Sqrt(area / math.Pi)
		if !Validate(colorMask, cx, cy, holeR) {
			continue
		}

		out = append(out, Candidate{
			Center:     geometry.Point2D{X: cx, Y: cy},
			HoleRadius: holeR,
		})
	}
	return out
}

// Validate applies the two-ring test distinguishing a real roll center from
// an inter-roll gap: the inner ring at 2.0x the hole radius must be mostly
// on the color mask and the outer ring at 3.5x must still hit it partially.
func Validate(colorMask *mask.Bitmap, cx, cy, holeRadius float64) bool {
	inner := colorMask.RingRatio(cx, cy, holeRadius*innerRingScale, ringSamples)
	if inner < innerRingMin {
		return false
	}
	outer := colorMask.RingRatio(cx, cy, holeRadius*outerRingScale, ringSamples)
	return outer >= outerRingMin
}

// DeriveRadius derives the roll radius for a set of centers.
//
// With two or more centers the radius comes from the median nearest-neighbor
// spacing (45% of it, since neighbors in a packed rack sit one diameter
// apart), clamped to a plausible range for the region size. With too few
// centers it falls back to the median hole radius scaled by the empirical
// hole-to-roll ratio, and finally to a density guess from the region alone.
func DeriveRadius(cands []Candidate, reg geometry.RectInt) float64 {
	minDim := float64(reg.MinDim())
	lo := math.Max(15, minDim/40)
	hi := minDim / 15

	if len(cands) >= 2 {
		var spacings []float64
		for i := range cands {
			nearest := math.Inf(1)
			for j := range cands {
				if i == j {
					continue
				}
				if d := cands[i].Center.Distance(cands[j].Center); d < nearest {
					nearest = d
				}
			}
			if !math.IsInf(nearest, 1) && nearest > minNeighborDist {
				spacings = append(spacings, nearest)
			}
		}
		if len(spacings) > 0 {
			sort.Float64s(spacings)
			r := 0.45 * stat.Quantile(0.5, stat.Empirical, spacings, nil)
			return clampF(r, lo, hi)
		}
	}

	if len(cands) > 0 {
		radii := make([]float64, len(cands))
		for i, c := range cands {
			radii[i] = c.HoleRadius
		}
		sort.Float64s(radii)
		r := stat.Quantile(0.5, stat.Empirical, radii, nil) * holeToRollRadius
		return clampF(r, lo, hi)
	}

	return minDim / 22
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
