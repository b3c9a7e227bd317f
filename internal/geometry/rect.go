// Package geometry holds the coordinate-space helpers shared by the stage,
// the transformers and the store: rects, pixel snapping and affine math.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Coordinate is a point in logical stage space unless the caller says
// otherwise ("absolute" values are screen space, after scale and offset).
type Coordinate = r2.Vec

// Rect is an axis-aligned box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the top-left corner.
func (r Rect) Origin() Coordinate {
	return Coordinate{X: r.X, Y: r.Y}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(p Coordinate) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects. Empty rects are
// ignored.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() Coordinate {
	return Coordinate{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Translate shifts the rect by d.
func (r Rect) Translate(d Coordinate) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Expand grows the rect by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{
		X:      r.X - pad,
		Y:      r.Y - pad,
		Width:  r.Width + pad*2,
		Height: r.Height + pad*2,
	}
}

// UnionAll folds Union over rects. The result is the zero Rect when every
// input is empty.
func UnionAll(rects ...Rect) Rect {
	var out Rect
	for _, r := range rects {
		out = out.Union(r)
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// BoundsOf returns the axis-aligned box around a set of points.
func BoundsOf(points []Coordinate) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
