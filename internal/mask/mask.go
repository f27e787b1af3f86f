// Package mask provides a pure-Go view of a binary color mask.
//
// The mask is extracted once from an OpenCV Mat per analysis; every
// validation step afterwards (ring sampling, grid membership checks) reads
// the Bitmap so the logic stays deterministic and testable without an
// OpenCV runtime.
package mask

import (
	"math"

	"gocv.io/x/gocv"
)

// Bitmap is a binary mask: Pix[y*W+x] != 0 means the pixel matched.
type Bitmap struct {
	W, H int
	Pix  []uint8
}

// New returns an all-zero bitmap of the given size.
func New(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, Pix: make([]uint8, w*h)}
}

// FromMat copies a single-channel 8-bit mask Mat into a Bitmap.
func FromMat(m gocv.Mat) *Bitmap {
	h, w := m.Rows(), m.Cols()
	b := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Pix[y*w+x] = m.GetUCharAt(y, x)
		}
	}
	return b
}

// At reports whether the mask is set at (x, y). Out-of-bounds is false.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || x >= b.W || y < 0 || y >= b.H {
		return false
	}
	return b.Pix[y*b.W+x] != 0
}

// Set marks the pixel at (x, y).
func (b *Bitmap) Set(x, y int) {
	if x < 0 || x >= b.W || y < 0 || y >= b.H {
		return
	}
	b.Pix[y*b.W+x] = 255
}

// SetCircle marks a filled circle; used by tests to synthesize roll masks.
func (b *Bitmap) SetCircle(cx, cy, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				b.Set(cx+dx, cy+dy)
			}
		}
	}
}

// CountNonZero returns the number of set pixels.
func (b *Bitmap) CountNonZero() int {
	n := 0
	for _, p := range b.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// RingHits samples n evenly spaced angles on a circle of the given radius
// around (cx, cy) and returns how many samples land on set mask pixels.
// Samples falling outside the bitmap count as misses.
func (b *Bitmap) RingHits(cx, cy, radius float64, n int) int {
	hits := 0
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		sx := int(cx + radius*math.Cos(angle))
		sy := int(cy + radius*math.Sin(angle))
		if b.At(sx, sy) {
			hits++
		}
	}
	return hits
}

// RingRatio is RingHits as a fraction of the sample count.
func (b *Bitmap) RingRatio(cx, cy, radius float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(b.RingHits(cx, cy, radius, n)) / float64(n)
}
