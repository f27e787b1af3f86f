package detect

import (
	"math"

	"roll-counter/internal/centers"
	"roll-counter/internal/mask"
	"roll-counter/pkg/geometry"
)

// gridFromCenters places one circle per validated roll center using the
// derived radius, then suppresses overlaps.
func (p Params) gridFromCenters(cands []centers.Candidate, radius float64) []geometry.Circle {
	circles := make([]geometry.Circle, len(cands))
	for i, c := range cands {
		circles[i] = geometry.Circle{Center: c.Center, Radius: radius}
	}
	return nms(circles, radius*p.NMSSpacingFactor)
}

// gridLayout computes a rows x cols partition approximating the hinted
// count given the region's aspect ratio.
func gridLayout(reg geometry.RectInt, hint int) (cols, rows int) {
	aspect := float64(reg.Width) / float64(reg.Height)
	rows = int(math.Sqrt(float64(hint) / aspect))
	if rows < 1 {
		rows = 1
	}
	cols = int(math.Ceil(float64(hint) / float64(rows)))
	if cols < 1 {
		cols = 1
	}
	for cols*rows < hint {
		if float64(reg.Width)/float64(cols) > float64(reg.Height)/float64(rows) {
			cols++
		} else {
			rows++
		}
	}
	return cols, rows
}

// uniformGridCells places one candidate at each cell center of a cols x rows
// partition, keeping cells whose ring samples land on the color mask. A
// limit of 0 means unlimited.
func (p Params) uniformGridCells(reg geometry.RectInt, colorMask *mask.Bitmap, cols, rows, limit int) []geometry.Circle {
	cellW := float64(reg.Width) / float64(cols)
	cellH := float64(reg.Height) / float64(rows)
	r := math.Min(cellW, cellH) * p.GridRadiusFactor

	var out []geometry.Circle
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if limit > 0 && len(out) >= limit {
				return out
			}

			cx := float64(reg.X) + (float64(col)+0.5)*cellW
			cy := float64(reg.Y) + (float64(row)+0.5)*cellH

			c := geometry.Circle{Center: geometry.Point2D{X: cx, Y: cy}, Radius: r}
			if !c.InsideRect(reg) {
				continue
			}

			hits := colorMask.RingHits(cx, cy, r*p.RingRadiusFrac, p.RingSamples)
			if hits >= p.RingHitsMin {
				out = append(out, c)
			}
		}
	}
	return out
}

// uniformGrid is the fallback strategy. With a hint it builds the single
// partition approximating that count; without one it sweeps plausible
// densities and keeps the partition whose accepted count scores best.
func (p Params) uniformGrid(reg geometry.RectInt, colorMask *mask.Bitmap, hint int) []geometry.Circle {
	if hint > 0 {
		cols, rows := gridLayout(reg, hint)
		return p.uniformGridCells(reg, colorMask, cols, rows, hint)
	}

	var best []geometry.Circle
	bestScore := math.Inf(1)

	for cols := p.GridColsMin; cols <= p.GridColsMax; cols++ {
		for rows := p.GridRowsMin; rows <= p.GridRowsMax; rows++ {
			cellW := float64(reg.Width) / float64(cols)
			cellH := float64(reg.Height) / float64(rows)
			if cellW < p.CellSizeMin || cellH < p.CellSizeMin ||
				cellW > p.CellSizeMax || cellH > p.CellSizeMax {
				continue
			}

			circles := p.uniformGridCells(reg, colorMask, cols, rows, 0)
			if s := p.score(len(circles), 0); s < bestScore {
				bestScore = s
				best = circles
			}
		}
	}
	return best
}
