package region

import (
	"image"

	"gocv.io/x/gocv"

	"roll-counter/internal/model"
	"roll-counter/pkg/geometry"
)

const (
	// Crop only when the roll area covers at least this share of the image.
	cropMinAreaRatio = 0.10
	// Margin added back around the detected area, as a fraction of its size.
	cropMarginRatio = 0.03
	// Crop only when it removes at least this much background.
	cropMinReduction = 0.15
)

// AutoCrop tightens the image around the detected roll area when doing so
// removes a meaningful amount of background. It returns the (possibly
// original) image and a CropInfo describing the crop, or nil when no crop
// was applied. The returned Mat is always a new reference the caller owns.
func AutoCrop(img gocv.Mat) (gocv.Mat, *model.CropInfo) {
	width, height := img.Cols(), img.Rows()

	colorMask, _ := DominantMask(img)
	defer colorMask.Close()

	// Heavier morphology than Locate: the crop wants one solid blob.
	cleaned := morphClean(colorMask, 10, 5, 2)
	defer cleaned.Close()

	rect, ok := largestContourRect(cleaned)
	if !ok {
		return img.Clone(), nil
	}

	if float64(rect.Area()) < float64(width*height)*cropMinAreaRatio {
		return img.Clone(), nil
	}

	marginX := int(float64(rect.Width) * cropMarginRatio)
	marginY := int(float64(rect.Height) * cropMarginRatio)
	crop := geometry.RectInt{
		X:      rect.X - marginX,
		Y:      rect.Y - marginY,
		Width:  rect.Width + 2*marginX,
		Height: rect.Height + 2*marginY,
	}
	crop = crop.Intersect(geometry.RectInt{Width: width, Height: height})

	reduction := 1 - float64(crop.Area())/float64(width*height)
	if reduction < cropMinReduction {
		return img.Clone(), nil
	}

	roi := img.Region(image.Rect(crop.X, crop.Y, crop.X+crop.Width, crop.Y+crop.Height))
	defer roi.Close()
	cropped := roi.Clone()

	return cropped, &model.CropInfo{
		X:                crop.X,
		Y:                crop.Y,
		Width:            crop.Width,
		Height:           crop.Height,
		OriginalWidth:    width,
		OriginalHeight:   height,
		ReductionPercent: float64(int(reduction*1000+0.5)) / 10,
	}
}
