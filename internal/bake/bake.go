// Package bake flattens entity content at a transform: vector objects are
// mapped through the matrix and rasters are resampled.
package bake

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

var ErrEmpty = errors.New("nothing to rasterize")

// Aff3 converts a canvas matrix to the row-major form x/image expects.
func Aff3(m geometry.Matrix2D) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// Objects maps vector objects through m. Line points are transformed and
// stroke widths scaled; rects and images keep their axis-aligned bounds.
func Objects(objs []store.Object, m geometry.Matrix2D) []store.Object {
	sf := m.ScaleFactor()
	out := make([]store.Object, 0, len(objs))
	for _, o := range objs {
		switch o.Kind {
		case store.ObjectBrushLine, store.ObjectEraserLine:
			pts := make([]float64, len(o.Points))
			for i := 0; i+1 < len(o.Points); i += 2 {
				p := m.Apply(geometry.Coordinate{X: o.Points[i], Y: o.Points[i+1]})
				pts[i], pts[i+1] = p.X, p.Y
			}
			o.Points = pts
			o.StrokeWidth *= sf
		default:
			o.Rect = m.ApplyRect(o.Rect)
		}
		out = append(out, o)
	}
	return out
}

// Image resamples src through m onto a new raster covering the transformed
// bounds. The returned point is the raster's top-left in the target space.
func Image(src image.Image, m geometry.Matrix2D) (*image.RGBA, image.Point) {
	b := src.Bounds()
	r := pixelBounds(m.ApplyRect(geometry.Rect{
		X: float64(b.Min.X), Y: float64(b.Min.Y),
		Width: float64(b.Dx()), Height: float64(b.Dy()),
	}))
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	mm := geometry.Translate(float64(-r.Min.X), float64(-r.Min.Y)).Multiply(m)
	draw.BiLinear.Transform(dst, Aff3(mm), src, b, draw.Over, nil)
	return dst, r.Min
}

// Rasterize renders entity-local objects through m, in order, onto one
// raster. Eraser lines clear what is beneath them. It returns the raster and
// its integer-aligned rect in the target space.
func Rasterize(objs []store.Object, m geometry.Matrix2D, reg *Registry) (*image.RGBA, geometry.Rect, error) {
	var bounds geometry.Rect
	for _, o := range objs {
		bounds = bounds.Union(m.ApplyRect(o.Bounds()))
	}
	r := pixelBounds(bounds)
	if r.Empty() {
		return nil, geometry.Rect{}, ErrEmpty
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	mm := geometry.Translate(float64(-r.Min.X), float64(-r.Min.Y)).Multiply(m)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	sf := m.ScaleFactor()

	for _, o := range objs {
		switch o.Kind {
		case store.ObjectRectShape:
			z.Reset(r.Dx(), r.Dy())
			addPolygon(z, []geometry.Coordinate{
				mm.Apply(geometry.Coordinate{X: o.Rect.X, Y: o.Rect.Y}),
				mm.Apply(geometry.Coordinate{X: o.Rect.X + o.Rect.Width, Y: o.Rect.Y}),
				mm.Apply(geometry.Coordinate{X: o.Rect.X + o.Rect.Width, Y: o.Rect.Y + o.Rect.Height}),
				mm.Apply(geometry.Coordinate{X: o.Rect.X, Y: o.Rect.Y + o.Rect.Height}),
			})
			z.DrawOp = draw.Over
			z.Draw(dst, dst.Bounds(), image.NewUniform(toColor(o.Color)), image.Point{})
		case store.ObjectBrushLine, store.ObjectEraserLine:
			z.Reset(r.Dx(), r.Dy())
			stroke(z, mm, o.Points, o.StrokeWidth*sf/2)
			if o.Kind == store.ObjectEraserLine {
				z.DrawOp = draw.Src
				z.Draw(dst, dst.Bounds(), image.Transparent, image.Point{})
				continue
			}
			z.DrawOp = draw.Over
			z.Draw(dst, dst.Bounds(), image.NewUniform(toColor(o.Color)), image.Point{})
		case store.ObjectImage:
			if o.Image == nil {
				continue
			}
			img, err := reg.Get(o.Image.Name)
			if err != nil {
				return nil, geometry.Rect{}, fmt.Errorf("rasterize object %s: %w", o.ID, err)
			}
			ib := img.Bounds()
			fit := geometry.Translate(o.Rect.X, o.Rect.Y).Multiply(
				geometry.Scale(o.Rect.Width/float64(ib.Dx()), o.Rect.Height/float64(ib.Dy())))
			draw.BiLinear.Transform(dst, Aff3(mm.Multiply(fit)), img, ib, draw.Over, nil)
		}
	}

	return dst, geometry.Rect{
		X: float64(r.Min.X), Y: float64(r.Min.Y),
		Width: float64(r.Dx()), Height: float64(r.Dy()),
	}, nil
}

// snapEpsilon absorbs float noise from matrix products before rounding
// bounds outward.
const snapEpsilon = 1e-9

// pixelBounds rounds r outward to whole pixels.
func pixelBounds(r geometry.Rect) image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.X+snapEpsilon)), int(math.Floor(r.Y+snapEpsilon)),
		int(math.Ceil(r.X+r.Width-snapEpsilon)), int(math.Ceil(r.Y+r.Height-snapEpsilon)),
	)
}

func toColor(c store.RgbaColor) color.NRGBA {
	a := math.Max(0, math.Min(1, c.A))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a*255 + 0.5)}
}

// stroke adds a polyline of half-width hw: one quad per segment and an
// octagon at every vertex for the joins and caps.
func stroke(z *vector.Rasterizer, m geometry.Matrix2D, points []float64, hw float64) {
	if hw <= 0 {
		return
	}
	var pts []geometry.Coordinate
	for i := 0; i+1 < len(points); i += 2 {
		pts = append(pts, m.Apply(geometry.Coordinate{X: points[i], Y: points[i+1]}))
	}
	for i, p := range pts {
		addPolygon(z, octagon(p, hw))
		if i == 0 {
			continue
		}
		a := pts[i-1]
		dx, dy := p.X-a.X, p.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		addPolygon(z, []geometry.Coordinate{
			{X: a.X + nx, Y: a.Y + ny},
			{X: p.X + nx, Y: p.Y + ny},
			{X: p.X - nx, Y: p.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
}

func octagon(c geometry.Coordinate, r float64) []geometry.Coordinate {
	pts := make([]geometry.Coordinate, 8)
	for k := range pts {
		a := float64(k) * math.Pi / 4
		pts[k] = geometry.Coordinate{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return pts
}

// addPolygon adds a closed path wound clockwise in screen space, so
// overlapping shapes add up instead of cancelling.
func addPolygon(z *vector.Rasterizer, pts []geometry.Coordinate) {
	if len(pts) < 3 {
		return
	}
	area := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}
