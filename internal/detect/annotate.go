package detect

import (
	"fmt"
	goimage "image"
	"image/color"

	"gocv.io/x/gocv"

	"roll-counter/internal/model"
)

var (
	annotateBox    = color.RGBA{G: 255, A: 255}
	annotateCenter = color.RGBA{R: 255, A: 255}
	annotateText   = color.RGBA{G: 255, A: 255}
)

// Annotate draws the detected boxes onto a copy of the image and writes it
// to outPath. Boxes are rendered as circles inscribed in their bounds with a
// center dot and the confidence value. Input coordinates are never modified.
func Annotate(mat gocv.Mat, boxes []model.DetectedBox, outPath string) error {
	out := mat.Clone()
	defer out.Close()

	w, h := float64(mat.Cols()), float64(mat.Rows())

	for _, b := range boxes {
		px := int(b.X / 100 * w)
		py := int(b.Y / 100 * h)
		pw := int(b.Width / 100 * w)
		ph := int(b.Height / 100 * h)

		cx, cy := px+pw/2, py+ph/2
		radius := pw / 2
		if ph/2 < radius {
			radius = ph / 2
		}

		gocv.Circle(&out, goimage.Pt(cx, cy), radius, annotateBox, 2)
		gocv.Circle(&out, goimage.Pt(cx, cy), 3, annotateCenter, -1)

		if b.Confidence > 0 {
			label := fmt.Sprintf("%.2f", b.Confidence)
			gocv.PutText(&out, label, goimage.Pt(px, py-5),
				gocv.FontHersheySimplex, 0.4, annotateText, 1)
		}
	}

	if ok := gocv.IMWrite(outPath, out); !ok {
		return fmt.Errorf("failed to write annotated image %s", outPath)
	}
	return nil
}
