// Package region locates the caged rack area that holds the rolls.
//
// The locator builds a binary mask of the dominant roll color, cleans it
// with morphology, and takes the bounding rectangle of the largest external
// contour. Absence of a region is not an error: callers treat the whole
// image as the region and accept reduced accuracy.
package region

import (
	"image"

	"gocv.io/x/gocv"

	"roll-counter/internal/mask"
	"roll-counter/pkg/geometry"
)

// Margin shaved off the raw bounding rectangle, in pixels. The contour edge
// tends to include a sliver of the rack frame.
const boundsMargin = 5

// Minimum mask coverage for a color band to count as dominant.
const minBandCoverage = 0.05

// colorBand is an HSV range (OpenCV convention) for one candidate roll color.
type colorBand struct {
	name   string
	lo, hi gocv.Scalar
}

func band(name string, loH, loS, loV, hiH, hiS, hiV float64) colorBand {
	return colorBand{
		name: name,
		lo:   gocv.NewScalar(loH, loS, loV, 0),
		hi:   gocv.NewScalar(hiH, hiS, hiV, 0),
	}
}

// candidateBands are the roll colors seen in production imagery, widest
// (pink) first. Red needs a second wrapped band, handled in buildBandMask.
var candidateBands = []colorBand{
	band("pink", 135, 15, 40, 180, 255, 255),
	band("brown", 8, 20, 60, 30, 180, 220),
	band("orange", 5, 80, 80, 25, 255, 255),
	band("yellow", 20, 60, 100, 40, 255, 255),
	band("red", 0, 70, 50, 10, 255, 255),
	band("blue", 90, 50, 50, 130, 255, 255),
	band("green", 35, 50, 50, 85, 255, 255),
	band("white", 0, 0, 180, 180, 40, 255),
}

var redWrapBand = band("red", 170, 70, 50, 180, 255, 255)

// Located is a successfully detected region: the rectangle, the winning
// color mask (raw, pre-cleanup, as ring sampling wants the sharp edges),
// and the band name that won.
type Located struct {
	Region geometry.RectInt
	Mask   *mask.Bitmap
	Color  string
}

// buildBandMask produces the raw in-range mask for one band.
func buildBandMask(hsv gocv.Mat, b colorBand) gocv.Mat {
	out := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, b.lo, b.hi, &out)
	if b.name == "red" {
		wrap := gocv.NewMat()
		defer wrap.Close()
		gocv.InRangeWithScalar(hsv, redWrapBand.lo, redWrapBand.hi, &wrap)
		gocv.BitwiseOr(out, wrap, &out)
	}
	return out
}

// morphClean applies close then open with a square kernel, each repeated.
func morphClean(m gocv.Mat, kernelSize, closeIters, openIters int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{kernelSize, kernelSize})
	defer kernel.Close()

	cleaned := m.Clone()
	for i := 0; i < closeIters; i++ {
		gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphClose, kernel)
	}
	for i := 0; i < openIters; i++ {
		gocv.MorphologyEx(cleaned, &cleaned, gocv.MorphOpen, kernel)
	}
	return cleaned
}

// DominantMask tests every candidate band and returns the raw mask with the
// largest cleaned area plus its color name. When no band covers at least 5%
// of the image, a generic saturation threshold is returned with color "".
func DominantMask(img gocv.Mat) (gocv.Mat, string) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	var best gocv.Mat
	bestName := ""
	bestArea := 0

	for _, b := range candidateBands {
		raw := buildBandMask(hsv, b)
		cleaned := morphClean(raw, 5, 2, 0)
		area := gocv.CountNonZero(cleaned)
		cleaned.Close()

		if area > bestArea {
			if bestName != "" {
				best.Close()
			}
			best = raw
			bestName = b.name
			bestArea = area
		} else {
			raw.Close()
		}
	}

	total := img.Rows() * img.Cols()
	if bestArea < int(float64(total)*minBandCoverage) {
		if bestName != "" {
			best.Close()
		}
		sat := gocv.NewMat()
		gocv.InRangeWithScalar(hsv,
			gocv.NewScalar(0, 30, 50, 0),
			gocv.NewScalar(180, 255, 255, 0),
			&sat)
		return sat, ""
	}

	return best, bestName
}

// largestContourRect returns the bounding rectangle of the largest external
// contour in a cleaned mask, or false when there are no contours.
func largestContourRect(cleaned gocv.Mat) (geometry.RectInt, bool) {
	contours := gocv.FindContours(cleaned, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return geometry.RectInt{}, false
	}

	bestIdx := 0
	bestArea := gocv.ContourArea(contours.At(0))
	for i := 1; i < contours.Size(); i++ {
		if a := gocv.ContourArea(contours.At(i)); a > bestArea {
			bestArea = a
			bestIdx = i
		}
	}

	r := gocv.BoundingRect(contours.At(bestIdx))
	return geometry.RectInt{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, true
}

// WholeImage is the fallback when no region is found: the full image bounds
// with whatever color mask is available.
func WholeImage(img gocv.Mat) Located {
	colorMask, colorName := DominantMask(img)
	defer colorMask.Close()

	return Located{
		Region: geometry.RectInt{Width: img.Cols(), Height: img.Rows()},
		Mask:   mask.FromMat(colorMask),
		Color:  colorName,
	}
}

// Locate finds the rack region in a BGR image. The second return value is
// false when no contour is found; callers must then treat the whole image
// as the region.
func Locate(img gocv.Mat) (Located, bool) {
	width, height := img.Cols(), img.Rows()

	colorMask, colorName := DominantMask(img)
	defer colorMask.Close()

	cleaned := morphClean(colorMask, 5, 4, 1)
	defer cleaned.Close()

	rect, ok := largestContourRect(cleaned)
	if !ok {
		return Located{}, false
	}

	// Shave the margin and clamp to image bounds
	shrunk := geometry.RectInt{
		X:      rect.X + boundsMargin,
		Y:      rect.Y + boundsMargin,
		Width:  rect.Width - 2*boundsMargin,
		Height: rect.Height - 2*boundsMargin,
	}
	shrunk = shrunk.Intersect(geometry.RectInt{Width: width, Height: height})
	if shrunk.Width <= 0 || shrunk.Height <= 0 {
		return Located{}, false
	}

	return Located{
		Region: shrunk,
		Mask:   mask.FromMat(colorMask),
		Color:  colorName,
	}, true
}
