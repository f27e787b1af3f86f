package colorutil

import (
	"image/color"
	"testing"
)

func TestClassifyAchromatic(t *testing.T) {
	tests := []struct {
		h, s, v float64
		want    string
	}{
		{0, 0, 250, "white"},
		{90, 20, 230, "white"},
		{0, 10, 30, "black"},
		{0, 10, 120, "gray"},
	}
	for _, tt := range tests {
		if got := Classify(tt.h, tt.s, tt.v); got != tt.want {
			t.Errorf("Classify(%.0f, %.0f, %.0f) = %q, want %q", tt.h, tt.s, tt.v, got, tt.want)
		}
	}
}

func TestClassifyPinkPrecedence(t *testing.T) {
	// Pink overlaps the red and purple hue ranges; its band wins when
	// saturation is moderate.
	if got := Classify(160, 120, 200); got != "pink" {
		t.Errorf("Classify(160, 120, 200) = %q, want pink", got)
	}
	// Highly saturated wrapped hue is red, not pink
	if got := Classify(178, 220, 150); got != "red" {
		t.Errorf("Classify(178, 220, 150) = %q, want red", got)
	}
}

func TestClassifyNamedBands(t *testing.T) {
	tests := []struct {
		h, s, v float64
		want    string
	}{
		{5, 200, 200, "red"},
		{15, 150, 150, "brown"},
		{15, 150, 230, "orange"}, // too bright for brown
		{30, 200, 200, "yellow"},
		{60, 150, 150, "green"},
		{90, 150, 150, "cyan"},
		{110, 150, 150, "blue"},
		{130, 150, 150, "purple"},
	}
	for _, tt := range tests {
		if got := Classify(tt.h, tt.s, tt.v); got != tt.want {
			t.Errorf("Classify(%.0f, %.0f, %.0f) = %q, want %q", tt.h, tt.s, tt.v, got, tt.want)
		}
	}
}

func TestClassifyCoarseFallback(t *testing.T) {
	// Outside every named band, the coarse hue buckets still assign a label
	tests := []struct {
		h, s, v float64
		want    string
	}{
		{5, 150, 50, "red"},     // too dark for the red band
		{170, 50, 150, "pink"},  // desaturated wrapped hue
		{150, 50, 50, "purple"}, // dark desaturated violet
		{25, 80, 150, "orange"},
		{50, 80, 150, "yellow"},
	}
	for _, tt := range tests {
		if got := Classify(tt.h, tt.s, tt.v); got != tt.want {
			t.Errorf("Classify(%.0f, %.0f, %.0f) = %q, want %q", tt.h, tt.s, tt.v, got, tt.want)
		}
	}
}

func TestClassifyRGB(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    string
	}{
		{255, 0, 0, "red"},
		{255, 105, 180, "pink"}, // hot pink
		{255, 255, 255, "white"},
		{0, 0, 0, "black"},
	}
	for _, tt := range tests {
		if got := ClassifyRGB(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("ClassifyRGB(%d, %d, %d) = %q, want %q", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestClassifySamplesEmpty(t *testing.T) {
	if got := ClassifySamples(nil); got != Unknown {
		t.Errorf("ClassifySamples(nil) = %q, want %q", got, Unknown)
	}
}

func TestClassifySamplesMean(t *testing.T) {
	samples := []color.RGBA{
		{R: 255, G: 0, B: 0, A: 255},
		{R: 255, G: 0, B: 0, A: 255},
		{R: 255, G: 0, B: 0, A: 255},
	}
	if got := ClassifySamples(samples); got != "red" {
		t.Errorf("ClassifySamples(red x3) = %q, want red", got)
	}
}
