package store

import (
	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

type ActionType string

// Per-kind entity mutations. The façade routes its polymorphic intents to
// these.
const (
	LayerPositionChanged ActionType = "layer/positionChanged"
	RGPositionChanged    ActionType = "rg/positionChanged"
	IMPositionChanged    ActionType = "im/positionChanged"
	CAPositionChanged    ActionType = "ca/positionChanged"

	RGScaled ActionType = "rg/scaled"
	IMScaled ActionType = "im/scaled"
	CAScaled ActionType = "ca/scaled"

	LayerBBoxChanged ActionType = "layer/bboxChanged"
	RGBBoxChanged    ActionType = "rg/bboxChanged"
	IMBBoxChanged    ActionType = "im/bboxChanged"
	CABBoxChanged    ActionType = "ca/bboxChanged"

	LayerBrushLineAdded ActionType = "layer/brushLineAdded"
	RGBrushLineAdded    ActionType = "rg/brushLineAdded"
	IMBrushLineAdded    ActionType = "im/brushLineAdded"

	LayerEraserLineAdded ActionType = "layer/eraserLineAdded"
	RGEraserLineAdded    ActionType = "rg/eraserLineAdded"
	IMEraserLineAdded    ActionType = "im/eraserLineAdded"

	LayerRectShapeAdded ActionType = "layer/rectShapeAdded"
	RGRectShapeAdded    ActionType = "rg/rectShapeAdded"
	IMRectShapeAdded    ActionType = "im/rectShapeAdded"

	RGImageCacheChanged ActionType = "rg/imageCacheChanged"
	IMImageCacheChanged ActionType = "im/imageCacheChanged"
	CAImageCacheChanged ActionType = "ca/imageCacheChanged"

	LayerRasterized ActionType = "layer/rasterized"
	RGRasterized    ActionType = "rg/rasterized"
	IMRasterized    ActionType = "im/rasterized"
	CARasterized    ActionType = "ca/rasterized"
)

// Canvas-wide mutations.
const (
	ToolSelected      ActionType = "tool/selected"
	EntitySelected    ActionType = "entity/selected"
	EntityAdded       ActionType = "entity/added"
	EntityRemoved     ActionType = "entity/removed"
	EntityEnabled     ActionType = "entity/enabledChanged"
	GenerationBBoxSet ActionType = "bbox/set"
	MaskOpacitySet    ActionType = "settings/maskOpacity"
	LogLevelSet       ActionType = "settings/logLevel"
)

// actionKinds maps each per-kind action to the collection it mutates.
var actionKinds = map[ActionType]EntityKind{
	LayerPositionChanged: KindLayer, RGPositionChanged: KindRegionalGuidance,
	IMPositionChanged: KindInpaintMask, CAPositionChanged: KindControlAdapter,

	RGScaled: KindRegionalGuidance, IMScaled: KindInpaintMask, CAScaled: KindControlAdapter,

	LayerBBoxChanged: KindLayer, RGBBoxChanged: KindRegionalGuidance,
	IMBBoxChanged: KindInpaintMask, CABBoxChanged: KindControlAdapter,

	LayerBrushLineAdded: KindLayer, RGBrushLineAdded: KindRegionalGuidance, IMBrushLineAdded: KindInpaintMask,

	LayerEraserLineAdded: KindLayer, RGEraserLineAdded: KindRegionalGuidance, IMEraserLineAdded: KindInpaintMask,

	LayerRectShapeAdded: KindLayer, RGRectShapeAdded: KindRegionalGuidance, IMRectShapeAdded: KindInpaintMask,

	RGImageCacheChanged: KindRegionalGuidance, IMImageCacheChanged: KindInpaintMask, CAImageCacheChanged: KindControlAdapter,

	LayerRasterized: KindLayer, RGRasterized: KindRegionalGuidance,
	IMRasterized: KindInpaintMask, CARasterized: KindControlAdapter,
}

// KindOf reports which collection a per-kind action mutates.
func KindOf(t ActionType) (EntityKind, bool) {
	k, ok := actionKinds[t]
	return k, ok
}

// Action is a discriminated mutation record. Payload holds one of the
// *Payload types below, matching Type.
type Action struct {
	ID       string     `json:"id"`
	Type     ActionType `json:"type"`
	EntityID string     `json:"entityId,omitempty"`
	Payload  any        `json:"payload,omitempty"`
}

type PositionPayload struct {
	Position geometry.Coordinate `json:"position"`
}

// ScalePayload scales object geometry about the entity origin and moves the
// entity to Position.
type ScalePayload struct {
	Scale    geometry.Coordinate `json:"scale"`
	Position geometry.Coordinate `json:"position"`
}

// BBoxPayload sets the entity bbox. A nil BBox means the entity is empty.
type BBoxPayload struct {
	BBox *geometry.Rect `json:"bbox"`
}

// LinePayload carries stage-space points; the reducer stores them relative
// to the entity position.
type LinePayload struct {
	Points      []float64 `json:"points"`
	StrokeWidth float64   `json:"strokeWidth"`
	Color       RgbaColor `json:"color"`
}

// RectPayload carries a stage-space rect.
type RectPayload struct {
	Rect  geometry.Rect `json:"rect"`
	Color RgbaColor     `json:"color"`
}

type ImageCachePayload struct {
	Image *ImageRef `json:"image"`
}

// RasterizedPayload replaces an entity's objects with flattened ones.
type RasterizedPayload struct {
	Objects  []Object            `json:"objects"`
	Position geometry.Coordinate `json:"position"`
}

type ToolPayload struct {
	Tool Tool `json:"tool"`
}

type SelectPayload struct {
	Entity *EntityIdentifier `json:"entity"`
}

type EntityPayload struct {
	Entity Entity `json:"entity"`
}

type EnabledPayload struct {
	Enabled bool `json:"enabled"`
}

type RectSetPayload struct {
	Rect geometry.Rect `json:"rect"`
}

type OpacityPayload struct {
	Opacity float64 `json:"opacity"`
}

type LogLevelPayload struct {
	Level string `json:"level"`
}
