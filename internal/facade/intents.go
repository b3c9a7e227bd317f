package facade

import (
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

// Intent is an entity-kind-agnostic mutation request.
type Intent string

const (
	IntentPositionChanged   Intent = "positionChanged"
	IntentScaleChanged      Intent = "scaleChanged"
	IntentBBoxChanged       Intent = "bboxChanged"
	IntentBrushLineAdded    Intent = "brushLineAdded"
	IntentEraserLineAdded   Intent = "eraserLineAdded"
	IntentRectShapeAdded    Intent = "rectShapeAdded"
	IntentImageCacheChanged Intent = "imageCacheChanged"
	IntentRasterized        Intent = "rasterized"
)

// intentTable routes {intent, kind} to the store action. Missing entries
// are unsupported combinations and dispatch nothing.
var intentTable = map[Intent]map[store.EntityKind]store.ActionType{
	IntentPositionChanged: {
		store.KindLayer:            store.LayerPositionChanged,
		store.KindRegionalGuidance: store.RGPositionChanged,
		store.KindInpaintMask:      store.IMPositionChanged,
		store.KindControlAdapter:   store.CAPositionChanged,
	},
	IntentScaleChanged: {
		store.KindRegionalGuidance: store.RGScaled,
		store.KindInpaintMask:      store.IMScaled,
		store.KindControlAdapter:   store.CAScaled,
	},
	IntentBBoxChanged: {
		store.KindLayer:            store.LayerBBoxChanged,
		store.KindRegionalGuidance: store.RGBBoxChanged,
		store.KindInpaintMask:      store.IMBBoxChanged,
		store.KindControlAdapter:   store.CABBoxChanged,
	},
	IntentBrushLineAdded: {
		store.KindLayer:            store.LayerBrushLineAdded,
		store.KindRegionalGuidance: store.RGBrushLineAdded,
		store.KindInpaintMask:      store.IMBrushLineAdded,
	},
	IntentEraserLineAdded: {
		store.KindLayer:            store.LayerEraserLineAdded,
		store.KindRegionalGuidance: store.RGEraserLineAdded,
		store.KindInpaintMask:      store.IMEraserLineAdded,
	},
	IntentRectShapeAdded: {
		store.KindLayer:            store.LayerRectShapeAdded,
		store.KindRegionalGuidance: store.RGRectShapeAdded,
		store.KindInpaintMask:      store.IMRectShapeAdded,
	},
	IntentImageCacheChanged: {
		store.KindRegionalGuidance: store.RGImageCacheChanged,
		store.KindInpaintMask:      store.IMImageCacheChanged,
		store.KindControlAdapter:   store.CAImageCacheChanged,
	},
	IntentRasterized: {
		store.KindLayer:            store.LayerRasterized,
		store.KindRegionalGuidance: store.RGRasterized,
		store.KindInpaintMask:      store.IMRasterized,
		store.KindControlAdapter:   store.CARasterized,
	},
}

// Supports reports whether intent has a mutation for kind.
func Supports(intent Intent, kind store.EntityKind) bool {
	_, ok := intentTable[intent][kind]
	return ok
}

// route dispatches intent for one entity. It returns false when the
// combination is unsupported or the store rejects the action.
func (a *StateAPI) route(intent Intent, id string, kind store.EntityKind, payload any) bool {
	t, ok := intentTable[intent][kind]
	if !ok {
		a.log.Debug("intent not supported for entity kind", "intent", intent, "kind", kind, "id", id)
		return false
	}
	return a.dispatch(store.Action{Type: t, EntityID: id, Payload: payload})
}

func (a *StateAPI) dispatch(act store.Action) bool {
	if err := a.store.Dispatch(act); err != nil {
		a.log.Warn("dispatch failed", "type", act.Type, "entity", act.EntityID, "error", err)
		return false
	}
	return true
}

// --- Entity intents ---

func (a *StateAPI) OnPosChanged(id string, kind store.EntityKind, pos geometry.Coordinate) bool {
	return a.route(IntentPositionChanged, id, kind, store.PositionPayload{Position: pos})
}

func (a *StateAPI) OnScaleChanged(id string, kind store.EntityKind, scale, pos geometry.Coordinate) bool {
	return a.route(IntentScaleChanged, id, kind, store.ScalePayload{Scale: scale, Position: pos})
}

// OnBBoxChanged records a recomputed bbox; nil marks the entity empty.
func (a *StateAPI) OnBBoxChanged(id string, kind store.EntityKind, bbox *geometry.Rect) bool {
	return a.route(IntentBBoxChanged, id, kind, store.BBoxPayload{BBox: bbox})
}

func (a *StateAPI) OnBrushLineAdded(id string, kind store.EntityKind, line store.LinePayload) bool {
	return a.route(IntentBrushLineAdded, id, kind, line)
}

func (a *StateAPI) OnEraserLineAdded(id string, kind store.EntityKind, line store.LinePayload) bool {
	return a.route(IntentEraserLineAdded, id, kind, line)
}

func (a *StateAPI) OnRectShapeAdded(id string, kind store.EntityKind, rect store.RectPayload) bool {
	return a.route(IntentRectShapeAdded, id, kind, rect)
}

func (a *StateAPI) OnImageCacheChanged(id string, kind store.EntityKind, img *store.ImageRef) bool {
	return a.route(IntentImageCacheChanged, id, kind, store.ImageCachePayload{Image: img})
}

func (a *StateAPI) OnRasterized(id string, kind store.EntityKind, objects []store.Object, pos geometry.Coordinate) bool {
	return a.route(IntentRasterized, id, kind, store.RasterizedPayload{Objects: objects, Position: pos})
}

// --- Canvas intents ---

func (a *StateAPI) SetTool(tool store.Tool) bool {
	return a.dispatch(store.Action{Type: store.ToolSelected, Payload: store.ToolPayload{Tool: tool}})
}

// SetSelectedEntity selects ident, or clears the selection when nil.
func (a *StateAPI) SetSelectedEntity(ident *store.EntityIdentifier) bool {
	return a.dispatch(store.Action{Type: store.EntitySelected, Payload: store.SelectPayload{Entity: ident}})
}

func (a *StateAPI) AddEntity(e store.Entity) bool {
	return a.dispatch(store.Action{Type: store.EntityAdded, Payload: store.EntityPayload{Entity: e}})
}

func (a *StateAPI) RemoveEntity(id string) bool {
	return a.dispatch(store.Action{Type: store.EntityRemoved, EntityID: id})
}

func (a *StateAPI) SetEntityEnabled(id string, enabled bool) bool {
	return a.dispatch(store.Action{Type: store.EntityEnabled, EntityID: id, Payload: store.EnabledPayload{Enabled: enabled}})
}

func (a *StateAPI) SetGenerationBBox(r geometry.Rect) bool {
	return a.dispatch(store.Action{Type: store.GenerationBBoxSet, Payload: store.RectSetPayload{Rect: r}})
}

func (a *StateAPI) SetMaskOpacity(opacity float64) bool {
	return a.dispatch(store.Action{Type: store.MaskOpacitySet, Payload: store.OpacityPayload{Opacity: opacity}})
}

func (a *StateAPI) SetLogLevel(level string) bool {
	return a.dispatch(store.Action{Type: store.LogLevelSet, Payload: store.LogLevelPayload{Level: level}})
}
