package bake

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"sort"
)

var ErrImageNotFound = errors.New("image not found")

// Registry holds rasters by name. It stands in for the host's image
// service.
type Registry struct {
	images map[string]*image.RGBA
}

func NewRegistry() *Registry {
	return &Registry{images: make(map[string]*image.RGBA)}
}

// Put stores a copy of img normalized to an RGBA with a zero origin.
func (r *Registry) Put(name string, img image.Image) {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	r.images[name] = rgba
}

func (r *Registry) Get(name string) (*image.RGBA, error) {
	img, ok := r.images[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, name)
	}
	return img, nil
}

func (r *Registry) Delete(name string) {
	delete(r.images, name)
}

func (r *Registry) Len() int {
	return len(r.images)
}

// Names returns the stored names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.images))
	for name := range r.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodePNG writes the named raster as a PNG.
func (r *Registry) EncodePNG(name string, w io.Writer) error {
	img, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}
