// Package colorutil provides shared color utilities: HSV conversion in the
// OpenCV convention and classification of sampled pixels into a closed
// vocabulary of roll color names.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used for annotated renders.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// Unknown is returned when there is nothing to classify.
const Unknown = "unknown"

// hsvBand is an inclusive HSV range in the OpenCV convention
// (H 0-180, S 0-255, V 0-255).
type hsvBand struct {
	loH, loS, loV float64
	hiH, hiS, hiV float64
}

func (b hsvBand) contains(h, s, v float64) bool {
	return b.loH <= h && h <= b.hiH &&
		b.loS <= s && s <= b.hiS &&
		b.loV <= v && v <= b.hiV
}

// namedBands are the chromatic color ranges checked after the achromatic and
// pink precedence rules. Red wraps around the hue axis, hence two bands.
var namedBands = []struct {
	name  string
	bands []hsvBand
}{
	{"red", []hsvBand{
		{0, 100, 100, 10, 255, 255},
		{175, 100, 100, 180, 255, 255},
	}},
	{"brown", []hsvBand{{10, 100, 20, 20, 255, 200}}},
	{"orange", []hsvBand{{11, 100, 100, 25, 255, 255}}},
	{"yellow", []hsvBand{{25, 100, 100, 35, 255, 255}}},
	{"green", []hsvBand{{35, 100, 100, 85, 255, 255}}},
	{"cyan", []hsvBand{{85, 100, 100, 95, 255, 255}}},
	{"blue", []hsvBand{{95, 100, 100, 125, 255, 255}}},
	{"purple", []hsvBand{{125, 100, 100, 145, 255, 255}}},
}

// RGBToHSV converts 8-bit RGB to HSV in the OpenCV convention
// (H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b uint8) (h, s, v float64) {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	hDeg, sUnit, vUnit := c.Hsv()
	return hDeg / 2.0, sUnit * 255.0, vUnit * 255.0
}

// Classify maps an HSV color (OpenCV convention) to a color name.
//
// Precedence: achromatic first (low saturation resolved by value), then the
// dedicated pink band (roll imagery is pink-dominant and pink overlaps the
// red/purple ranges), then the named band table, then a coarse hue bucket so
// every input gets a label. Pure function.
func Classify(h, s, v float64) string {
	// Low saturation: white/gray/black by value
	if s < 30 {
		switch {
		case v > 200:
			return "white"
		case v < 50:
			return "black"
		default:
			return "gray"
		}
	}

	// Pink gets a wide dedicated band checked before the table
	if h >= 145 && h <= 180 && s >= 85 && s <= 200 && v >= 100 {
		return "pink"
	}

	for _, nb := range namedBands {
		for _, band := range nb.bands {
			if band.contains(h, s, v) {
				return nb.name
			}
		}
	}

	// Coarse hue fallback
	switch {
	case h < 15 || h > 157:
		if s > 100 {
			return "red"
		}
		return "pink"
	case h < 30:
		return "orange"
	case h < 70:
		return "yellow"
	case h < 85:
		return "green"
	case h < 125:
		return "blue"
	default:
		return "purple"
	}
}

// ClassifyRGB classifies a single 8-bit RGB color.
func ClassifyRGB(r, g, b uint8) string {
	return Classify(RGBToHSV(r, g, b))
}

// ClassifySamples classifies the mean of a pixel sample set, typically
// ring-sampled around a detected circle. Returns Unknown when the sample
// set is empty.
func ClassifySamples(samples []color.RGBA) string {
	if len(samples) == 0 {
		return Unknown
	}

	var sumR, sumG, sumB float64
	for _, s := range samples {
		sumR += float64(s.R)
		sumG += float64(s.G)
		sumB += float64(s.B)
	}
	n := float64(len(samples))
	return ClassifyRGB(uint8(sumR/n+0.5), uint8(sumG/n+0.5), uint8(sumB/n+0.5))
}
