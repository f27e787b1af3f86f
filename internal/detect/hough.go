package detect

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"roll-counter/internal/mask"
	"roll-counter/pkg/geometry"
)

// houghRadiusBounds derives the expected radius range and minimum circle
// spacing from the region geometry and the count hint (if any).
func houghRadiusBounds(reg geometry.RectInt, hint int) (minR, maxR int, minDist float64) {
	var diameter float64
	if hint > 0 {
		rollsPerRow := math.Sqrt(float64(hint) * float64(reg.Width) / float64(reg.Height))
		diameter = float64(reg.Width) / math.Max(rollsPerRow, 8)
	} else {
		diameter = math.Min(float64(reg.Width)/11, float64(reg.Height)/10)
	}

	minR = int(math.Max(15, diameter*0.25))
	maxR = int(math.Min(100, diameter*0.65))
	if maxR <= minR {
		maxR = minR + 1
	}
	return minR, maxR, diameter * 0.65
}

// houghSweep runs Hough circle detection over the (dp, param2) parameter
// grid, validates every candidate by containment and ring sampling, and
// returns the best-scoring set.
func (p Params) houghSweep(img gocv.Mat, reg geometry.RectInt, colorMask *mask.Bitmap, hint int) []geometry.Circle {
	roi := img.Region(image.Rect(reg.X, reg.Y, reg.X+reg.Width, reg.Y+reg.Height))
	defer roi.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(roi, &gray, gocv.ColorBGRToGray)
	gocv.GaussianBlur(gray, &gray, image.Point{5, 5}, 0, 0, gocv.BorderDefault)

	minR, maxR, minDist := houghRadiusBounds(reg, hint)

	var best []geometry.Circle
	bestScore := math.Inf(1)

	for _, param2 := range p.HoughParam2s {
		for _, dp := range p.HoughDPs {
			circles := gocv.NewMat()
			gocv.HoughCirclesWithParams(gray, &circles, gocv.HoughGradient,
				dp, minDist, p.HoughParam1, param2, minR, maxR)

			valid := p.validateHough(circles, reg, colorMask)
			circles.Close()

			if s := p.score(len(valid), hint); s < bestScore {
				bestScore = s
				best = valid
			}

			// Close enough to the hint; the sweep will not do better
			if hint > 0 && len(valid) >= int(float64(hint)*0.9) && len(valid) <= hint {
				return best
			}
		}
	}
	return best
}

// validateHough converts raw Hough output (ROI coordinates) to full-image
// circles, dropping any that poke outside the region or fail ring sampling
// against the color mask.
func (p Params) validateHough(raw gocv.Mat, reg geometry.RectInt, colorMask *mask.Bitmap) []geometry.Circle {
	if raw.Empty() || raw.Cols() == 0 {
		return nil
	}

	var valid []geometry.Circle
	for i := 0; i < raw.Cols(); i++ {
		cx := float64(raw.GetFloatAt(0, i*3)) + float64(reg.X)
		cy := float64(raw.GetFloatAt(0, i*3+1)) + float64(reg.Y)
		r := float64(raw.GetFloatAt(0, i*3+2))

		c := geometry.Circle{Center: geometry.Point2D{X: cx, Y: cy}, Radius: r}
		if !c.InsideRect(reg) {
			continue
		}

		hits := colorMask.RingHits(cx, cy, r*p.RingRadiusFrac, p.RingSamples)
		if hits >= p.RingHitsMin {
			valid = append(valid, c)
		}
	}
	return valid
}
