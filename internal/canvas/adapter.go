package canvas

import (
	"fmt"
	"math"

	"github.com/inamate/inamate/canvas-go/internal/bake"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
	"github.com/inamate/inamate/canvas-go/internal/transformer"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

// entityAdapter mirrors one entity into the scene: a layer holding the
// object group and the transformer widgets.
type entityAdapter struct {
	m    *Manager
	id   string
	kind store.EntityKind

	layer       *scene.Node
	objectGroup *scene.Node
	transformer *transformer.Transformer

	position geometry.Coordinate
	bbox     geometry.Rect
}

func newEntityAdapter(m *Manager, e *store.Entity) *entityAdapter {
	a := &entityAdapter{
		m:           m,
		id:          e.ID,
		kind:        e.Kind,
		layer:       scene.New(scene.KindLayer, e.ID),
		objectGroup: scene.New(scene.KindGroup, e.ID+":object_group"),
		position:    e.Position,
		bbox:        e.BBox,
	}
	a.layer.Add(a.objectGroup)
	m.stage.Node().Add(a.layer)
	a.transformer = transformer.New(a, m.api, m.stage, m.opts.Transformer, m.log)
	m.log.Debug("entity adapter created", "id", e.ID, "kind", e.Kind)
	return a
}

func (a *entityAdapter) ID() string               { return a.id }
func (a *entityAdapter) Kind() store.EntityKind   { return a.kind }
func (a *entityAdapter) HasContent() bool         { return len(a.objectGroup.Children()) > 0 }
func (a *entityAdapter) Layer() *scene.Node       { return a.layer }
func (a *entityAdapter) ObjectGroup() *scene.Node { return a.objectGroup }
func (a *entityAdapter) BBox() geometry.Rect      { return a.bbox }

func (a *entityAdapter) ResetScale() {
	a.objectGroup.SetScale(geometry.Coordinate{X: 1, Y: 1})
	a.objectGroup.SetRotation(0)
}

func (a *entityAdapter) UpdatePosition() {
	if e := a.entity(); e != nil {
		a.position = e.Position
	}
	a.objectGroup.SetPosition(a.position)
	a.transformer.Update(a.position, a.bbox)
}

// UpdateBBox recomputes the bbox from the rendered objects and records it
// in state when it changed.
func (a *entityAdapter) UpdateBBox() {
	e := a.entity()
	if e == nil {
		return
	}
	next := objectsBBox(e.Objects)
	if e.BBoxNeedsUpdate || next != e.BBox {
		var payload *geometry.Rect
		if !next.IsEmpty() {
			payload = &next
		}
		a.m.api.OnBBoxChanged(a.id, a.kind, payload)
	}
	a.bbox = next
	a.transformer.Update(a.position, a.bbox)
}

// Rasterize flattens the objects at the object group's transform into one
// image and replaces the entity content with it.
func (a *entityAdapter) Rasterize() error {
	e := a.entity()
	if e == nil {
		return fmt.Errorf("rasterize %s: %w", a.id, store.ErrEntityNotFound)
	}
	img, rect, err := bake.Rasterize(e.Objects, a.objectGroup.LocalTransform(), a.m.registry)
	if err != nil {
		return fmt.Errorf("rasterize %s: %w", a.id, err)
	}
	name := typeid.NewImageID()
	a.m.registry.Put(name, img)
	obj := store.Object{
		ID:   typeid.NewObjectID(),
		Kind: store.ObjectImage,
		Rect: geometry.Rect{Width: rect.Width, Height: rect.Height},
		Image: &store.ImageRef{
			Name:   name,
			Width:  int(rect.Width),
			Height: int(rect.Height),
		},
	}
	a.m.log.Debug("entity rasterized", "id", a.id, "image", name, "x", rect.X, "y", rect.Y)
	previous := e.Objects
	if !a.m.api.OnRasterized(a.id, a.kind, []store.Object{obj}, rect.Origin()) {
		a.m.registry.Delete(name)
		return fmt.Errorf("rasterize %s: state rejected the result", a.id)
	}
	// earlier bakes are now unreferenced; host images keep their names
	for _, o := range previous {
		if o.Image != nil && typeid.Validate(o.Image.Name, typeid.PrefixImage) == nil {
			a.m.registry.Delete(o.Image.Name)
		}
	}
	return nil
}

func (a *entityAdapter) entity() *store.Entity {
	return a.m.api.Entity(a.kind, a.id)
}

// sync brings the scene in line with e. Geometry is left alone while a
// transform is in flight; the transformer owns it until it stops.
func (a *entityAdapter) sync(e *store.Entity, st *store.State) {
	a.layer.SetVisible(e.IsEnabled)
	a.layer.Paint.Opacity = layerOpacity(e, st)
	a.render(e, st)

	if a.transformer.IsTransforming() {
		return
	}
	a.position = e.Position
	a.objectGroup.SetPosition(a.position)
	if e.BBoxNeedsUpdate {
		a.UpdateBBox()
	} else {
		a.bbox = e.BBox
		a.transformer.Update(a.position, a.bbox)
	}
	a.transformer.SyncInteractionState()
}

// render rebuilds the object nodes. Fills depend on settings as well as on
// the objects, so there is nothing cheaper to diff against.
func (a *entityAdapter) render(e *store.Entity, st *store.State) {
	a.objectGroup.RemoveChildren()
	for _, o := range e.Objects {
		a.objectGroup.Add(objectNode(e, st, o))
	}
}

func (a *entityAdapter) destroy() {
	a.m.log.Debug("entity adapter destroyed", "id", a.id)
	a.transformer.Destroy()
	a.layer.Destroy()
}

func objectNode(e *store.Entity, st *store.State, o store.Object) *scene.Node {
	name := e.ID + ":object:" + o.ID
	color := paintColor(e, st, o.Color)
	switch o.Kind {
	case store.ObjectBrushLine, store.ObjectEraserLine:
		n := scene.New(scene.KindLine, name)
		n.Paint.Points = o.Points
		n.Paint.StrokeWidth = o.StrokeWidth
		n.Paint.Stroke = color
		if o.Kind == store.ObjectEraserLine {
			n.Paint.Composite = "destination-out"
		}
		return n
	case store.ObjectImage:
		n := scene.New(scene.KindImage, name)
		n.SetPosition(o.Rect.Origin())
		n.SetSize(o.Rect.Width, o.Rect.Height)
		if o.Image != nil {
			n.Paint.ImageName = o.Image.Name
		}
		return n
	default:
		n := scene.New(scene.KindRect, name)
		n.SetPosition(o.Rect.Origin())
		n.SetSize(o.Rect.Width, o.Rect.Height)
		n.Paint.Fill = color
		return n
	}
}

// paintColor draws masks in their entity fill; layers keep object colors.
func paintColor(e *store.Entity, st *store.State, c store.RgbaColor) string {
	switch e.Kind {
	case store.KindRegionalGuidance:
		c = e.Fill.WithAlpha(1)
	case store.KindInpaintMask:
		c = st.Settings.InpaintMaskFill.WithAlpha(1)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", c.R, c.G, c.B, c.A)
}

func layerOpacity(e *store.Entity, st *store.State) float64 {
	switch e.Kind {
	case store.KindRegionalGuidance, store.KindInpaintMask:
		return st.Settings.MaskOpacity
	}
	return e.Opacity
}

// objectsBBox is the pixel-aligned union of object bounds in entity-local
// space.
func objectsBBox(objs []store.Object) geometry.Rect {
	var r geometry.Rect
	for _, o := range objs {
		r = r.Union(o.Bounds())
	}
	if r.IsEmpty() {
		return geometry.Rect{}
	}
	x0, y0 := math.Floor(r.X), math.Floor(r.Y)
	return geometry.Rect{
		X:      x0,
		Y:      y0,
		Width:  math.Ceil(r.X+r.Width) - x0,
		Height: math.Ceil(r.Y+r.Height) - y0,
	}
}
