// Package transformer implements the per-entity move, resize and rotate
// interaction: a draggable proxy rectangle that stands in for the entity
// while it is being edited, a one-pixel bbox outline and a resize/rotate
// control.
package transformer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/inamate/inamate/canvas-go/internal/facade"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/reactive"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

var ErrDestroyed = errors.New("transformer destroyed")

// Parent is the entity adapter that owns a transformer.
type Parent interface {
	ID() string
	Kind() store.EntityKind
	// HasContent reports whether the entity renders anything.
	HasContent() bool
	// Layer is the scene layer the transformer widgets live in.
	Layer() *scene.Node
	// ObjectGroup is the node holding the entity's rendered objects.
	ObjectGroup() *scene.Node
	// BBox is the last known bbox in entity-local space.
	BBox() geometry.Rect
	ResetScale()
	UpdatePosition()
	UpdateBBox()
	// Rasterize flattens the entity content at its current transform.
	Rasterize() error
}

// State is the slice of the façade a transformer reads and writes.
type State interface {
	Tool() store.Tool
	IsSelected(id string) bool
	Cells() *facade.Cells
	Subscribe(fn func()) reactive.Release
	OnPosChanged(id string, kind store.EntityKind, pos geometry.Coordinate) bool
}

// Viewport is the stage the widgets are drawn on.
type Viewport interface {
	Scale() float64
	Position() geometry.Coordinate
	ScalePixels(n float64) float64
}

type Options struct {
	// BBoxPadding is the gap between the entity and its outline, in
	// absolute pixels.
	BBoxPadding float64
}

func DefaultOptions() Options {
	return Options{BBoxPadding: 5}
}

const outlineStroke = "hsl(200deg 76% 59%)"

type Transformer struct {
	parent   Parent
	state    State
	viewport Viewport
	opts     Options
	log      *slog.Logger

	proxyRect   *scene.Node
	bboxOutline *scene.Node
	control     *scene.Control

	mode         Mode
	transforming bool
	destroyed    bool

	lastTool     store.Tool
	lastSelected bool

	subs reactive.Subscriptions
}

// New builds the widgets in the parent's layer and starts listening to
// drag and transform events, modifier keys, the viewport and the store.
func New(parent Parent, state State, viewport Viewport, opts Options, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	id := parent.ID()
	t := &Transformer{
		parent:   parent,
		state:    state,
		viewport: viewport,
		opts:     opts,
		log:      logger.With("component", "transformer", "id", id),
		mode:     ModeOff,
	}

	t.proxyRect = scene.New(scene.KindRect, id+":transformer:proxy_rect")
	t.proxyRect.SetListening(false)
	t.proxyRect.SetDraggable(true)

	t.bboxOutline = scene.New(scene.KindRect, id+":transformer:bbox_outline")
	t.bboxOutline.SetListening(false)
	t.bboxOutline.SetVisible(false)
	t.bboxOutline.Paint.Stroke = outlineStroke

	t.control = scene.NewControl(id + ":transformer:transformer")
	t.control.SetListening(false)
	t.control.SetVisible(false)
	t.control.SetAnchorDragBound(t.anchorDragBound)
	t.control.SetBoundBox(t.boundBox)

	layer := parent.Layer()
	layer.Add(t.bboxOutline)
	layer.Add(t.proxyRect)
	layer.Add(t.control.Node)

	t.subs.Add(t.proxyRect.On(scene.EventDragMove, func(scene.Event) { t.onDragMove() }))
	t.subs.Add(t.proxyRect.On(scene.EventDragEnd, func(scene.Event) { t.onDragEnd() }))
	t.subs.Add(t.proxyRect.On(scene.EventTransformStart, func(scene.Event) {
		t.trace("transform started")
	}))
	t.subs.Add(t.proxyRect.On(scene.EventTransform, func(scene.Event) { t.syncObjectGroup() }))
	t.subs.Add(t.proxyRect.On(scene.EventTransformEnd, func(scene.Event) { t.onTransformEnd() }))

	cells := state.Cells()
	t.control.SetRotationSnaps(RotationSnaps(cells.ShiftKey.Get()))
	t.subs.Add(cells.ShiftKey.Listen(func(shift, _ bool) {
		t.control.SetRotationSnaps(RotationSnaps(shift))
	}))
	t.subs.Add(cells.StageAttrs.Listen(func(attrs, old facade.StageAttrs) {
		if attrs.Scale != old.Scale {
			t.SyncScale()
			return
		}
		t.control.ForceUpdate()
	}))

	t.lastTool = state.Tool()
	t.lastSelected = state.IsSelected(id)
	t.subs.Add(state.Subscribe(t.onStoreChanged))

	return t
}

func (t *Transformer) Mode() Mode               { return t.mode }
func (t *Transformer) IsTransforming() bool     { return t.transforming }
func (t *Transformer) ProxyRect() *scene.Node   { return t.proxyRect }
func (t *Transformer) BBoxOutline() *scene.Node { return t.bboxOutline }
func (t *Transformer) Control() *scene.Control  { return t.control }
func (t *Transformer) Subscriptions() int       { return t.subs.Len() }
func (t *Transformer) IsDestroyed() bool        { return t.destroyed }

// Update moves the proxy and the outline to the entity's logical position
// and bbox. The outline stroke stays one screen pixel wide.
func (t *Transformer) Update(position geometry.Coordinate, bbox geometry.Rect) {
	if t.destroyed {
		return
	}
	onePixel := t.viewport.ScalePixels(1)
	pad := t.viewport.ScalePixels(t.opts.BBoxPadding)
	origin := r2.Add(position, bbox.Origin())

	t.proxyRect.SetPosition(origin)
	t.proxyRect.SetSize(bbox.Width, bbox.Height)

	t.bboxOutline.SetPosition(geometry.Coordinate{X: origin.X - pad, Y: origin.Y - pad})
	t.bboxOutline.SetSize(bbox.Width+pad*2, bbox.Height+pad*2)
	t.bboxOutline.SetStrokeWidth(onePixel)

	t.control.ForceUpdate()
}

// SyncScale re-derives the outline after a zoom without touching the proxy.
func (t *Transformer) SyncScale() {
	if t.destroyed {
		return
	}
	onePixel := t.viewport.ScalePixels(1)
	pad := t.viewport.ScalePixels(t.opts.BBoxPadding)
	p := t.proxyRect.Position()
	w, h := t.proxyRect.Size()
	s := t.proxyRect.Scale()
	// a flipped proxy extends left of or above its origin
	sw, sh := w*s.X, h*s.Y
	left, top := p.X+min(sw, 0), p.Y+min(sh, 0)

	t.bboxOutline.SetPosition(geometry.Coordinate{X: left - pad, Y: top - pad})
	t.bboxOutline.SetSize(math.Abs(sw)+pad*2, math.Abs(sh)+pad*2)
	t.bboxOutline.SetStrokeWidth(onePixel)
	t.control.ForceUpdate()
}

// SyncInteractionState recomputes the mode from content, selection, tool
// and transform state.
func (t *Transformer) SyncInteractionState() {
	if t.destroyed {
		return
	}
	hasContent := t.parent.HasContent()
	t.parent.Layer().SetListening(hasContent)
	mode := ModeFor(hasContent, t.state.IsSelected(t.parent.ID()), t.state.Tool(), t.transforming)
	t.setMode(mode)
}

// StartTransform enters resize/rotate mode.
func (t *Transformer) StartTransform() {
	if t.destroyed {
		return
	}
	t.log.Debug("starting transform")
	t.transforming = true
	if t.state.Tool() == store.ToolView {
		t.setMode(ModeOff)
		return
	}
	t.setMode(ModeAll)
}

// ApplyTransform bakes the entity at its current transform and leaves
// transform mode. On failure the transform stays open.
func (t *Transformer) ApplyTransform() error {
	if t.destroyed {
		return ErrDestroyed
	}
	t.log.Debug("applying transform")
	if err := t.parent.Rasterize(); err != nil {
		t.log.Warn("failed to rasterize entity", "error", err)
		return fmt.Errorf("apply transform: %w", err)
	}
	t.StopTransform()
	return nil
}

// StopTransform leaves transform mode without committing and asks the
// parent to rebuild its position and bbox.
func (t *Transformer) StopTransform() {
	if t.destroyed {
		return
	}
	t.log.Debug("stopping transform")
	t.transforming = false
	t.setMode(ModeOff)

	t.proxyRect.SetScale(geometry.Coordinate{X: 1, Y: 1})
	t.proxyRect.SetRotation(0)
	t.parent.ResetScale()
	t.parent.UpdatePosition()
	t.parent.UpdateBBox()
	t.SyncInteractionState()
}

// Destroy releases every subscription and removes the widgets. It is safe
// to call more than once.
func (t *Transformer) Destroy() {
	if t.destroyed {
		return
	}
	t.trace("destroying transformer")
	t.subs.ReleaseAll()
	t.control.Attach(nil)
	t.control.Destroy()
	t.proxyRect.Destroy()
	t.bboxOutline.Destroy()
	t.destroyed = true
}

func (t *Transformer) setMode(m Mode) {
	if t.mode != m {
		t.trace("interaction mode changed", "from", t.mode, "to", m)
	}
	t.mode = m
	switch m {
	case ModeAll:
		t.proxyRect.SetListening(true)
		t.bboxOutline.SetVisible(false)
		t.control.SetVisible(true)
		t.control.SetListening(true)
		if t.control.Target() != t.proxyRect {
			t.control.Attach(t.proxyRect)
		}
	case ModeDrag:
		t.proxyRect.SetListening(true)
		t.bboxOutline.SetVisible(true)
		t.detachControl()
	default:
		t.proxyRect.SetListening(false)
		t.bboxOutline.SetVisible(false)
		t.detachControl()
	}
}

func (t *Transformer) detachControl() {
	t.control.SetVisible(false)
	t.control.SetListening(false)
	if t.control.Target() != nil {
		t.control.Attach(nil)
	}
}

func (t *Transformer) onStoreChanged() {
	tool := t.state.Tool()
	selected := t.state.IsSelected(t.parent.ID())
	if tool == t.lastTool && selected == t.lastSelected {
		return
	}
	t.lastTool, t.lastSelected = tool, selected
	t.SyncInteractionState()
}

func (t *Transformer) onDragMove() {
	p := SnapDragPosition(t.proxyRect.Position())
	t.proxyRect.SetPosition(p)
	pad := t.viewport.ScalePixels(t.opts.BBoxPadding)
	t.bboxOutline.SetPosition(geometry.Coordinate{X: p.X - pad, Y: p.Y - pad})
	t.syncObjectGroup()
}

func (t *Transformer) onDragEnd() {
	if t.transforming {
		// the resize in flight owns the geometry until it is applied
		return
	}
	pos := r2.Sub(t.proxyRect.Position(), t.parent.BBox().Origin())
	t.log.Debug("entity moved", "x", pos.X, "y", pos.Y)
	t.state.OnPosChanged(t.parent.ID(), t.parent.Kind(), pos)
}

func (t *Transformer) onTransformEnd() {
	w, h := t.proxyRect.Size()
	res := ResolveTransformEnd(t.proxyRect.Position(), w, h, t.proxyRect.Scale())
	t.trace("transform ended", "width", res.Width, "height", res.Height, "scaleX", res.Scale.X, "scaleY", res.Scale.Y)
	t.proxyRect.SetPosition(res.Position)
	t.proxyRect.SetScale(res.Scale)
	t.syncObjectGroup()
	t.control.ForceUpdate()
}

// syncObjectGroup places the entity group so its bbox lands on the proxy.
func (t *Transformer) syncObjectGroup() {
	group := t.parent.ObjectGroup()
	p := t.proxyRect.Position()
	s := t.proxyRect.Scale()
	rot := t.proxyRect.Rotation()
	o := t.parent.BBox().Origin()
	off := geometry.RotateDegrees(rot).ApplyVector(geometry.Coordinate{X: o.X * s.X, Y: o.Y * s.Y})
	group.SetPosition(r2.Sub(p, off))
	group.SetScale(s)
	group.SetRotation(rot)
}

func (t *Transformer) anchorDragBound(_, next geometry.Coordinate) geometry.Coordinate {
	return SnapAnchor(t.control.ActiveAnchor(), next, t.viewport.Position(), t.viewport.Scale())
}

func (t *Transformer) boundBox(old, next scene.Box) scene.Box {
	rotating := t.control.ActiveAnchor() == scene.AnchorRotater
	box := ConstrainRotation(old, next, rotating, t.state.Cells().ShiftKey.Get())
	if box != next {
		t.trace("rotation rejected", "rotation", next.Rotation)
	}
	return box
}

func (t *Transformer) trace(msg string, args ...any) {
	t.log.Log(context.Background(), facade.LevelTrace, msg, args...)
}
