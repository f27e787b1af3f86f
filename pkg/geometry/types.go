// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// RectInt represents an axis-aligned rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r RectInt) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// ContainsPoint reports whether a floating-point location lies inside the rectangle.
func (r RectInt) ContainsPoint(p Point2D) bool {
	return p.X >= float64(r.X) && p.X < float64(r.X+r.Width) &&
		p.Y >= float64(r.Y) && p.Y < float64(r.Y+r.Height)
}

// Area returns the rectangle area in pixels.
func (r RectInt) Area() int {
	return r.Width * r.Height
}

// MinDim returns the smaller of width and height.
func (r RectInt) MinDim() int {
	if r.Width < r.Height {
		return r.Width
	}
	return r.Height
}

// Center returns the rectangle center.
func (r RectInt) Center() Point2D {
	return Point2D{
		X: float64(r.X) + float64(r.Width)/2,
		Y: float64(r.Y) + float64(r.Height)/2,
	}
}

// Intersect clamps the rectangle to the bounds of another rectangle.
func (r RectInt) Intersect(bounds RectInt) RectInt {
	x1 := maxInt(r.X, bounds.X)
	y1 := maxInt(r.Y, bounds.Y)
	x2 := minInt(r.X+r.Width, bounds.X+bounds.Width)
	y2 := minInt(r.Y+r.Height, bounds.Y+bounds.Height)
	if x2 <= x1 || y2 <= y1 {
		return RectInt{}
	}
	return RectInt{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Circle represents a detected circular object: center plus radius in pixels.
type Circle struct {
	Center Point2D `json:"center"`
	Radius float64 `json:"radius"`
}

// Bounds returns the axis-aligned bounding rectangle of the circle.
func (c Circle) Bounds() RectInt {
	return RectInt{
		X:      int(c.Center.X - c.Radius),
		Y:      int(c.Center.Y - c.Radius),
		Width:  int(2 * c.Radius),
		Height: int(2 * c.Radius),
	}
}

// InsideRect reports whether the whole circle fits inside the rectangle.
func (c Circle) InsideRect(r RectInt) bool {
	return c.Center.X-c.Radius >= float64(r.X) &&
		c.Center.X+c.Radius <= float64(r.X+r.Width) &&
		c.Center.Y-c.Radius >= float64(r.Y) &&
		c.Center.Y+c.Radius <= float64(r.Y+r.Height)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
