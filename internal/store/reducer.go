package store

import (
	"errors"
	"fmt"
	"math"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrUnknownAction  = errors.New("unknown action")
	ErrBadPayload     = errors.New("bad payload")
	ErrDuplicateID    = errors.New("duplicate entity id")
)

// apply mutates s according to a. It is the only place state changes.
func (s *State) apply(a Action) error {
	if kind, ok := KindOf(a.Type); ok {
		e := s.Entity(kind, a.EntityID)
		if e == nil {
			return fmt.Errorf("%s %s: %w", a.Type, a.EntityID, ErrEntityNotFound)
		}
		return applyEntity(e, a)
	}

	switch a.Type {
	case ToolSelected:
		p, ok := a.Payload.(ToolPayload)
		if !ok {
			return payloadError(a)
		}
		s.Tool.Selected = p.Tool
	case EntitySelected:
		p, ok := a.Payload.(SelectPayload)
		if !ok {
			return payloadError(a)
		}
		if p.Entity != nil && s.Entity(p.Entity.Kind, p.Entity.ID) == nil {
			return fmt.Errorf("select %s: %w", p.Entity.ID, ErrEntityNotFound)
		}
		s.SelectedEntity = p.Entity
	case EntityAdded:
		return s.applyEntityAdded(a)
	case EntityRemoved:
		return s.applyEntityRemoved(a)
	case EntityEnabled:
		p, ok := a.Payload.(EnabledPayload)
		if !ok {
			return payloadError(a)
		}
		e := s.find(a.EntityID)
		if e == nil {
			return fmt.Errorf("%s %s: %w", a.Type, a.EntityID, ErrEntityNotFound)
		}
		e.IsEnabled = p.Enabled
	case GenerationBBoxSet:
		p, ok := a.Payload.(RectSetPayload)
		if !ok {
			return payloadError(a)
		}
		s.BBox.Rect = p.Rect
	case MaskOpacitySet:
		p, ok := a.Payload.(OpacityPayload)
		if !ok {
			return payloadError(a)
		}
		s.Settings.MaskOpacity = min(max(p.Opacity, 0), 1)
	case LogLevelSet:
		p, ok := a.Payload.(LogLevelPayload)
		if !ok {
			return payloadError(a)
		}
		s.Settings.LogLevel = p.Level
	default:
		return fmt.Errorf("%q: %w", a.Type, ErrUnknownAction)
	}
	return nil
}

func applyEntity(e *Entity, a Action) error {
	switch a.Type {
	case LayerPositionChanged, RGPositionChanged, IMPositionChanged, CAPositionChanged:
		p, ok := a.Payload.(PositionPayload)
		if !ok {
			return payloadError(a)
		}
		e.Position = p.Position

	case RGScaled, IMScaled, CAScaled:
		p, ok := a.Payload.(ScalePayload)
		if !ok {
			return payloadError(a)
		}
		for i := range e.Objects {
			e.Objects[i] = scaleObject(e.Objects[i], p.Scale)
		}
		e.Position = p.Position
		e.BBoxNeedsUpdate = true
		e.ImageCache = nil

	case LayerBBoxChanged, RGBBoxChanged, IMBBoxChanged, CABBoxChanged:
		p, ok := a.Payload.(BBoxPayload)
		if !ok {
			return payloadError(a)
		}
		if p.BBox == nil {
			e.BBox = geometry.Rect{}
		} else {
			e.BBox = *p.BBox
		}
		e.BBoxNeedsUpdate = false

	case LayerBrushLineAdded, RGBrushLineAdded, IMBrushLineAdded,
		LayerEraserLineAdded, RGEraserLineAdded, IMEraserLineAdded:
		p, ok := a.Payload.(LinePayload)
		if !ok {
			return payloadError(a)
		}
		kind := ObjectBrushLine
		if a.Type == LayerEraserLineAdded || a.Type == RGEraserLineAdded || a.Type == IMEraserLineAdded {
			kind = ObjectEraserLine
		}
		e.Objects = append(e.Objects, Object{
			ID:          typeid.NewObjectID(),
			Kind:        kind,
			Points:      localPoints(p.Points, e.Position),
			StrokeWidth: p.StrokeWidth,
			Color:       p.Color,
		})
		e.BBoxNeedsUpdate = true
		e.ImageCache = nil

	case LayerRectShapeAdded, RGRectShapeAdded, IMRectShapeAdded:
		p, ok := a.Payload.(RectPayload)
		if !ok {
			return payloadError(a)
		}
		e.Objects = append(e.Objects, Object{
			ID:    typeid.NewObjectID(),
			Kind:  ObjectRectShape,
			Rect:  p.Rect.Translate(geometry.Coordinate{X: -e.Position.X, Y: -e.Position.Y}),
			Color: p.Color,
		})
		e.BBoxNeedsUpdate = true
		e.ImageCache = nil

	case RGImageCacheChanged, IMImageCacheChanged, CAImageCacheChanged:
		p, ok := a.Payload.(ImageCachePayload)
		if !ok {
			return payloadError(a)
		}
		e.ImageCache = p.Image

	case LayerRasterized, RGRasterized, IMRasterized, CARasterized:
		p, ok := a.Payload.(RasterizedPayload)
		if !ok {
			return payloadError(a)
		}
		e.Objects = p.Objects
		e.Position = p.Position
		e.BBoxNeedsUpdate = true
		e.ImageCache = nil

	default:
		return fmt.Errorf("%q: %w", a.Type, ErrUnknownAction)
	}
	return nil
}

func (s *State) applyEntityAdded(a Action) error {
	p, ok := a.Payload.(EntityPayload)
	if !ok {
		return payloadError(a)
	}
	coll := s.Collection(p.Entity.Kind)
	if coll == nil {
		return fmt.Errorf("entity kind %q: %w", p.Entity.Kind, ErrBadPayload)
	}
	if s.find(p.Entity.ID) != nil {
		return fmt.Errorf("add %s: %w", p.Entity.ID, ErrDuplicateID)
	}
	*coll = append(*coll, p.Entity)
	return nil
}

func (s *State) applyEntityRemoved(a Action) error {
	for _, kind := range Kinds {
		coll := s.Collection(kind)
		for i := range *coll {
			if (*coll)[i].ID != a.EntityID {
				continue
			}
			*coll = append((*coll)[:i], (*coll)[i+1:]...)
			if s.SelectedEntity != nil && s.SelectedEntity.ID == a.EntityID {
				s.SelectedEntity = nil
			}
			return nil
		}
	}
	return fmt.Errorf("remove %s: %w", a.EntityID, ErrEntityNotFound)
}

func (s *State) find(id string) *Entity {
	for _, e := range s.AllEntities() {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func payloadError(a Action) error {
	return fmt.Errorf("%s: payload %T: %w", a.Type, a.Payload, ErrBadPayload)
}

// localPoints converts stage-space line points to entity-local ones.
func localPoints(points []float64, origin geometry.Coordinate) []float64 {
	out := make([]float64, len(points))
	for i, v := range points {
		if i%2 == 0 {
			out[i] = v - origin.X
		} else {
			out[i] = v - origin.Y
		}
	}
	return out
}

func scaleObject(o Object, scale geometry.Coordinate) Object {
	switch o.Kind {
	case ObjectBrushLine, ObjectEraserLine:
		pts := make([]float64, len(o.Points))
		for i, v := range o.Points {
			if i%2 == 0 {
				pts[i] = v * scale.X
			} else {
				pts[i] = v * scale.Y
			}
		}
		o.Points = pts
		o.StrokeWidth *= math.Sqrt(math.Abs(scale.X * scale.Y))
	case ObjectRectShape, ObjectImage:
		r := geometry.Scale(scale.X, scale.Y).ApplyRect(o.Rect)
		o.Rect = r
		if o.Image != nil {
			img := *o.Image
			img.Width = int(geometry.RoundPixel(r.Width))
			img.Height = int(geometry.RoundPixel(r.Height))
			o.Image = &img
		}
	}
	return o
}
