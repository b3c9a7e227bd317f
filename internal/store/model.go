// Package store is the canonical canvas state: entity collections, tool and
// selection state, and the reducer that applies actions to them.
package store

import (
	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

type EntityKind string

const (
	KindLayer            EntityKind = "layer"
	KindRegionalGuidance EntityKind = "regional_guidance"
	KindInpaintMask      EntityKind = "inpaint_mask"
	KindControlAdapter   EntityKind = "control_adapter"
)

// Kinds lists every entity kind in render order.
var Kinds = []EntityKind{KindLayer, KindControlAdapter, KindRegionalGuidance, KindInpaintMask}

type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
	ToolMove   Tool = "move"
	ToolRect   Tool = "rect"
	ToolView   Tool = "view"
	ToolBBox   Tool = "bbox"
)

type ObjectKind string

const (
	ObjectBrushLine  ObjectKind = "brush_line"
	ObjectEraserLine ObjectKind = "eraser_line"
	ObjectRectShape  ObjectKind = "rect_shape"
	ObjectImage      ObjectKind = "image"
)

// RgbColor is an opaque color.
type RgbColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RgbaColor carries alpha in [0, 1].
type RgbaColor struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// WithAlpha returns c with alpha a.
func (c RgbColor) WithAlpha(a float64) RgbaColor {
	return RgbaColor{R: c.R, G: c.G, B: c.B, A: a}
}

// ImageRef names a raster held outside the state.
type ImageRef struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Object is one piece of paint data. Points is a flat x0,y0,x1,y1... list in
// entity-local coordinates.
type Object struct {
	ID          string        `json:"id"`
	Kind        ObjectKind    `json:"kind"`
	Points      []float64     `json:"points,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Color       RgbaColor     `json:"color"`
	Rect        geometry.Rect `json:"rect"`
	Image       *ImageRef     `json:"image,omitempty"`
}

// Bounds returns the object's extent in entity-local coordinates, including
// half the stroke width for lines.
func (o Object) Bounds() geometry.Rect {
	switch o.Kind {
	case ObjectBrushLine, ObjectEraserLine:
		pts := make([]geometry.Coordinate, 0, len(o.Points)/2)
		for i := 0; i+1 < len(o.Points); i += 2 {
			pts = append(pts, geometry.Coordinate{X: o.Points[i], Y: o.Points[i+1]})
		}
		b := geometry.BoundsOf(pts)
		if len(pts) == 0 {
			return b
		}
		return b.Expand(o.StrokeWidth / 2)
	default:
		return o.Rect
	}
}

type Entity struct {
	ID              string              `json:"id"`
	Kind            EntityKind          `json:"kind"`
	IsEnabled       bool                `json:"isEnabled"`
	Position        geometry.Coordinate `json:"position"`
	BBox            geometry.Rect       `json:"bbox"`
	BBoxNeedsUpdate bool                `json:"bboxNeedsUpdate"`
	Objects         []Object            `json:"objects"`
	Opacity         float64             `json:"opacity"`
	Fill            RgbColor            `json:"fill"`
	ImageCache      *ImageRef           `json:"imageCache,omitempty"`
}

// Rect returns the entity's bounding rect in stage space.
func (e *Entity) Rect() geometry.Rect {
	return e.BBox.Translate(e.Position)
}

// EntityIdentifier addresses one entity across collections.
type EntityIdentifier struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

type ToolState struct {
	Selected    Tool      `json:"selected"`
	Fill        RgbaColor `json:"fill"`
	BrushWidth  float64   `json:"brushWidth"`
	EraserWidth float64   `json:"eraserWidth"`
}

// BBoxState is the generation bounding box.
type BBoxState struct {
	Rect geometry.Rect `json:"rect"`
}

type Settings struct {
	MaskOpacity     float64  `json:"maskOpacity"`
	InpaintMaskFill RgbColor `json:"inpaintMaskFill"`
	LogLevel        string   `json:"logLevel"`
}

type State struct {
	Layers           []Entity          `json:"layers"`
	ControlAdapters  []Entity          `json:"controlAdapters"`
	RegionalGuidance []Entity          `json:"regionalGuidance"`
	InpaintMasks     []Entity          `json:"inpaintMasks"`
	SelectedEntity   *EntityIdentifier `json:"selectedEntity"`
	Tool             ToolState         `json:"tool"`
	BBox             BBoxState         `json:"bbox"`
	Settings         Settings          `json:"settings"`
}

// Collection returns a pointer to the slice holding entities of kind.
func (s *State) Collection(kind EntityKind) *[]Entity {
	switch kind {
	case KindLayer:
		return &s.Layers
	case KindRegionalGuidance:
		return &s.RegionalGuidance
	case KindInpaintMask:
		return &s.InpaintMasks
	case KindControlAdapter:
		return &s.ControlAdapters
	}
	return nil
}

// Entity finds an entity by kind and id. It returns nil when there is none.
func (s *State) Entity(kind EntityKind, id string) *Entity {
	coll := s.Collection(kind)
	if coll == nil {
		return nil
	}
	for i := range *coll {
		if (*coll)[i].ID == id {
			return &(*coll)[i]
		}
	}
	return nil
}

// AllEntities returns pointers to every entity in render order.
func (s *State) AllEntities() []*Entity {
	var out []*Entity
	for _, kind := range Kinds {
		coll := s.Collection(kind)
		for i := range *coll {
			out = append(out, &(*coll)[i])
		}
	}
	return out
}

// NewEmptyState returns the state of a fresh canvas.
func NewEmptyState(width, height float64) *State {
	return &State{
		Tool: ToolState{
			Selected:    ToolBrush,
			Fill:        RgbaColor{R: 31, G: 160, B: 224, A: 1},
			BrushWidth:  50,
			EraserWidth: 50,
		},
		BBox: BBoxState{Rect: geometry.Rect{Width: width, Height: height}},
		Settings: Settings{
			MaskOpacity:     0.3,
			InpaintMaskFill: RgbColor{R: 255, G: 90, B: 55},
			LogLevel:        "info",
		},
	}
}
