package bake

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/math/f64"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

var red = store.RgbaColor{R: 255, A: 1}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAff3(t *testing.T) {
	m := geometry.Translate(3, 4).Multiply(geometry.Scale(2, 5))
	want := f64.Aff3{2, 0, 3, 0, 5, 4}
	if got := Aff3(m); got != want {
		t.Errorf("Aff3() = %v, want %v", got, want)
	}
}

func TestObjects(t *testing.T) {
	objs := []store.Object{
		{ID: "a", Kind: store.ObjectBrushLine, Points: []float64{0, 0, 10, 5}, StrokeWidth: 4},
		{ID: "b", Kind: store.ObjectRectShape, Rect: geometry.Rect{X: 1, Y: 1, Width: 2, Height: 3}},
	}
	m := geometry.Translate(10, 20).Multiply(geometry.Scale(2, 2))
	got := Objects(objs, m)

	line := got[0]
	if want := []float64{10, 20, 30, 30}; len(line.Points) != 4 || line.Points[0] != want[0] || line.Points[3] != want[3] {
		t.Errorf("line points = %v, want %v", line.Points, want)
	}
	if line.StrokeWidth != 8 {
		t.Errorf("line stroke = %v, want 8", line.StrokeWidth)
	}
	if want := (geometry.Rect{X: 12, Y: 22, Width: 4, Height: 6}); got[1].Rect != want {
		t.Errorf("rect = %+v, want %+v", got[1].Rect, want)
	}
	if objs[0].Points[2] != 10 {
		t.Error("Objects() modified its input")
	}
}

func TestRasterizeRect(t *testing.T) {
	objs := []store.Object{{ID: "r", Kind: store.ObjectRectShape, Rect: geometry.Rect{Width: 10, Height: 10}, Color: red}}
	img, rect, err := Rasterize(objs, geometry.Translate(2.5, 0), NewRegistry())
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if want := (geometry.Rect{X: 2, Y: 0, Width: 11, Height: 10}); rect != want {
		t.Errorf("rect = %+v, want %+v", rect, want)
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel (5, 5) = %v, want opaque red", got)
	}
	if got := img.RGBAAt(0, 5); got.A == 255 {
		t.Errorf("pixel (0, 5) = %v, want partial coverage", got)
	}
}

func TestRasterizeEraserClears(t *testing.T) {
	objs := []store.Object{
		{ID: "r", Kind: store.ObjectRectShape, Rect: geometry.Rect{Width: 20, Height: 20}, Color: red},
		{ID: "e", Kind: store.ObjectEraserLine, Points: []float64{0, 10, 20, 10}, StrokeWidth: 6},
	}
	img, _, err := Rasterize(objs, geometry.Identity(), NewRegistry())
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if got := img.RGBAAt(10, 10); got.A != 0 {
		t.Errorf("erased pixel = %v, want transparent", got)
	}
	if got := img.RGBAAt(10, 2); got.A != 255 {
		t.Errorf("untouched pixel = %v, want opaque", got)
	}
}

func TestRasterizeImage(t *testing.T) {
	reg := NewRegistry()
	reg.Put("blue", solid(4, 4, color.RGBA{B: 255, A: 255}))
	objs := []store.Object{{
		ID: "i", Kind: store.ObjectImage,
		Rect:  geometry.Rect{Width: 8, Height: 8},
		Image: &store.ImageRef{Name: "blue", Width: 4, Height: 4},
	}}
	img, rect, err := Rasterize(objs, geometry.Identity(), reg)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if rect.Width != 8 || rect.Height != 8 {
		t.Errorf("rect = %+v, want 8x8", rect)
	}
	if got := img.RGBAAt(4, 4); got.B != 255 || got.A != 255 {
		t.Errorf("center pixel = %v, want opaque blue", got)
	}

	objs[0].Image.Name = "missing"
	if _, _, err := Rasterize(objs, geometry.Identity(), reg); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Rasterize() error = %v, want ErrImageNotFound", err)
	}
}

func TestRasterizeEmpty(t *testing.T) {
	if _, _, err := Rasterize(nil, geometry.Identity(), NewRegistry()); !errors.Is(err, ErrEmpty) {
		t.Errorf("Rasterize(nil) error = %v, want ErrEmpty", err)
	}
}

func TestImageScales(t *testing.T) {
	src := solid(4, 2, color.RGBA{G: 255, A: 255})
	dst, origin := Image(src, geometry.Translate(-3, 1).Multiply(geometry.Scale(2, 2)))
	if b := dst.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Errorf("bounds = %v, want 8x4", b)
	}
	if origin != (image.Point{X: -3, Y: 1}) {
		t.Errorf("origin = %v, want (-3, 1)", origin)
	}
	if got := dst.RGBAAt(4, 2); got.G != 255 || got.A != 255 {
		t.Errorf("center pixel = %v, want opaque green", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Put("b", solid(2, 2, color.White))
	reg.Put("a", solid(3, 1, color.Black))
	if got := reg.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names() = %v, want [a b]", got)
	}

	var buf bytes.Buffer
	if err := reg.EncodePNG("a", &buf); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 1 {
		t.Errorf("decoded bounds = %v, want 3x1", b)
	}

	reg.Delete("a")
	if _, err := reg.Get("a"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrImageNotFound", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}
