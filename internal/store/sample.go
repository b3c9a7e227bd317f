package store

import (
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

// NewSampleState builds a canvas with one entity of each kind, used by the
// replay tool and by host demos.
func NewSampleState() *State {
	s := NewEmptyState(1024, 1024)

	layerID := typeid.NewLayerID()
	s.Layers = []Entity{{
		ID:        layerID,
		Kind:      KindLayer,
		IsEnabled: true,
		Position:  geometry.Coordinate{X: 64, Y: 64},
		BBox:      geometry.Rect{X: 0, Y: 0, Width: 256, Height: 192},
		Opacity:   1,
		Objects: []Object{
			{
				ID:    typeid.NewObjectID(),
				Kind:  ObjectRectShape,
				Rect:  geometry.Rect{Width: 256, Height: 192},
				Color: RgbaColor{R: 66, G: 135, B: 245, A: 1},
			},
			{
				ID:          typeid.NewObjectID(),
				Kind:        ObjectBrushLine,
				Points:      []float64{20, 20, 120, 90, 200, 40},
				StrokeWidth: 12,
				Color:       RgbaColor{R: 250, G: 250, B: 250, A: 1},
			},
		},
	}}

	s.RegionalGuidance = []Entity{{
		ID:        typeid.NewRegionalGuidanceID(),
		Kind:      KindRegionalGuidance,
		IsEnabled: true,
		Position:  geometry.Coordinate{X: 400, Y: 300},
		BBox:      geometry.Rect{X: 0, Y: 0, Width: 160, Height: 160},
		Opacity:   1,
		Fill:      RgbColor{R: 121, G: 40, B: 202},
		Objects: []Object{{
			ID:    typeid.NewObjectID(),
			Kind:  ObjectRectShape,
			Rect:  geometry.Rect{Width: 160, Height: 160},
			Color: RgbaColor{R: 121, G: 40, B: 202, A: 1},
		}},
	}}

	s.InpaintMasks = []Entity{{
		ID:        typeid.NewInpaintMaskID(),
		Kind:      KindInpaintMask,
		IsEnabled: true,
		Opacity:   1,
	}}

	s.ControlAdapters = []Entity{{
		ID:        typeid.NewControlAdapterID(),
		Kind:      KindControlAdapter,
		IsEnabled: false,
		Position:  geometry.Coordinate{X: 600, Y: 80},
		BBox:      geometry.Rect{Width: 128, Height: 128},
		Opacity:   1,
		Objects: []Object{{
			ID:    typeid.NewObjectID(),
			Kind:  ObjectImage,
			Rect:  geometry.Rect{Width: 128, Height: 128},
			Image: &ImageRef{Name: "control-sample", Width: 128, Height: 128},
		}},
	}}

	s.SelectedEntity = &EntityIdentifier{ID: layerID, Kind: KindLayer}
	return s
}
