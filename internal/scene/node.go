// Package scene is a retained node tree with the subset of a canvas
// rendering library the interaction layer drives: settable geometry,
// visibility and listening toggles, drag and transform events, and
// geometry queries.
package scene

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/reactive"
)

type Kind string

const (
	KindStage   Kind = "stage"
	KindLayer   Kind = "layer"
	KindGroup   Kind = "group"
	KindRect    Kind = "rect"
	KindLine    Kind = "line"
	KindImage   Kind = "image"
	KindControl Kind = "control"
)

// Event names fired by the tree.
const (
	EventDragStart      = "dragstart"
	EventDragMove       = "dragmove"
	EventDragEnd        = "dragend"
	EventTransformStart = "transformstart"
	EventTransform      = "transform"
	EventTransformEnd   = "transformend"
)

type Event struct {
	Type   string
	Target *Node
}

type Handler func(Event)

type handlerEntry struct {
	id uint64
	fn Handler
}

// Paint is the render data of leaf nodes.
type Paint struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	Dash        []float64
	Points      []float64
	ImageName   string
	Opacity     float64
	// Composite is "destination-out" for eraser lines.
	Composite string
}

type Node struct {
	name string
	kind Kind

	x, y, width, height float64
	scaleX, scaleY      float64
	rotation            float64 // degrees

	visible, listening, draggable bool
	Paint                         Paint

	parent   *Node
	children []*Node

	handlers  map[string][]handlerEntry
	nextID    uint64
	destroyed bool

	// drag tracks the pointer from the drag start so listeners that snap
	// the position never feed their rounding back into the next move.
	dragging  bool
	dragStart geometry.Coordinate
	dragTotal geometry.Coordinate
}

// New creates a visible, listening node with unit scale.
func New(kind Kind, name string) *Node {
	return &Node{
		name:      name,
		kind:      kind,
		scaleX:    1,
		scaleY:    1,
		visible:   true,
		listening: true,
		Paint:     Paint{Opacity: 1},
		handlers:  make(map[string][]handlerEntry),
	}
}

func (n *Node) Name() string { return n.name }
func (n *Node) Kind() Kind   { return n.kind }

func (n *Node) Position() geometry.Coordinate {
	return geometry.Coordinate{X: n.x, Y: n.y}
}

func (n *Node) SetPosition(p geometry.Coordinate) {
	n.x, n.y = p.X, p.Y
}

// Size returns the unscaled width and height.
func (n *Node) Size() (width, height float64) {
	return n.width, n.height
}

func (n *Node) SetSize(width, height float64) {
	n.width, n.height = width, height
}

func (n *Node) Scale() geometry.Coordinate {
	return geometry.Coordinate{X: n.scaleX, Y: n.scaleY}
}

func (n *Node) SetScale(s geometry.Coordinate) {
	n.scaleX, n.scaleY = s.X, s.Y
}

// Rotation is in degrees.
func (n *Node) Rotation() float64 { return n.rotation }

func (n *Node) SetRotation(deg float64) { n.rotation = deg }

func (n *Node) Visible() bool            { return n.visible }
func (n *Node) SetVisible(v bool)        { n.visible = v }
func (n *Node) Listening() bool          { return n.listening }
func (n *Node) SetListening(v bool)      { n.listening = v }
func (n *Node) Draggable() bool          { return n.draggable }
func (n *Node) SetDraggable(v bool)      { n.draggable = v }
func (n *Node) Parent() *Node            { return n.parent }
func (n *Node) Children() []*Node        { return n.children }
func (n *Node) IsDestroyed() bool        { return n.destroyed }
func (n *Node) StrokeWidth() float64     { return n.Paint.StrokeWidth }
func (n *Node) SetStrokeWidth(w float64) { n.Paint.StrokeWidth = w }

// Add appends child, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChildren destroys every child.
func (n *Node) RemoveChildren() {
	for _, c := range append([]*Node(nil), n.children...) {
		c.Destroy()
	}
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Destroy detaches the node, drops its handlers and destroys its children.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	for _, c := range append([]*Node(nil), n.children...) {
		c.Destroy()
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.handlers = make(map[string][]handlerEntry)
	n.destroyed = true
}

// LocalTransform maps node-local coordinates into the parent's space.
func (n *Node) LocalTransform() geometry.Matrix2D {
	return geometry.NodeTransform(n.x, n.y, n.scaleX, n.scaleY, n.rotation)
}

// AbsoluteTransform maps node-local coordinates to the screen.
func (n *Node) AbsoluteTransform() geometry.Matrix2D {
	m := n.LocalTransform()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalTransform().Multiply(m)
	}
	return m
}

// parentTransform maps the parent's space to the screen.
func (n *Node) parentTransform() geometry.Matrix2D {
	if n.parent == nil {
		return geometry.Identity()
	}
	return n.parent.AbsoluteTransform()
}

// AbsolutePosition is the node origin on screen.
func (n *Node) AbsolutePosition() geometry.Coordinate {
	return n.AbsoluteTransform().Apply(geometry.Coordinate{})
}

// ClientRect returns the screen-space box around the node's own extent, or
// around its children for containers.
func (n *Node) ClientRect() geometry.Rect {
	if len(n.children) == 0 || n.kind == KindRect || n.kind == KindImage {
		return n.AbsoluteTransform().ApplyRect(n.localExtent())
	}
	var r geometry.Rect
	for _, c := range n.children {
		if c.visible {
			r = r.Union(c.ClientRect())
		}
	}
	return r
}

func (n *Node) localExtent() geometry.Rect {
	if n.kind == KindLine && len(n.Paint.Points) >= 2 {
		pts := make([]geometry.Coordinate, 0, len(n.Paint.Points)/2)
		for i := 0; i+1 < len(n.Paint.Points); i += 2 {
			pts = append(pts, geometry.Coordinate{X: n.Paint.Points[i], Y: n.Paint.Points[i+1]})
		}
		return geometry.BoundsOf(pts).Expand(n.Paint.StrokeWidth / 2)
	}
	return geometry.Rect{Width: n.width, Height: n.height}
}

// On registers fn for event and returns the handle that removes it.
func (n *Node) On(event string, fn Handler) reactive.Release {
	n.nextID++
	id := n.nextID
	n.handlers[event] = append(n.handlers[event], handlerEntry{id: id, fn: fn})
	released := false
	return func() {
		if released {
			return
		}
		released = true
		hs := n.handlers[event]
		for i, h := range hs {
			if h.id == id {
				n.handlers[event] = append(hs[:i], hs[i+1:]...)
				return
			}
		}
	}
}

// Fire runs the handlers of event synchronously.
func (n *Node) Fire(event string) {
	hs := append([]handlerEntry(nil), n.handlers[event]...)
	for _, h := range hs {
		h.fn(Event{Type: event, Target: n})
	}
}

// HandlerCount reports the attached handlers across events.
func (n *Node) HandlerCount() int {
	total := 0
	for _, hs := range n.handlers {
		total += len(hs)
	}
	return total
}

// interactive reports whether the node and all its ancestors accept input.
func (n *Node) interactive() bool {
	for p := n; p != nil; p = p.parent {
		if !p.visible || !p.listening || p.destroyed {
			return false
		}
	}
	return true
}

// StartDrag begins a host drag. It returns false when the node is not
// draggable or not listening.
func (n *Node) StartDrag() bool {
	if !n.draggable || !n.interactive() {
		return false
	}
	n.beginDrag()
	n.Fire(EventDragStart)
	return true
}

func (n *Node) beginDrag() {
	n.dragging = true
	n.dragStart = geometry.Coordinate{X: n.x, Y: n.y}
	n.dragTotal = geometry.Coordinate{}
}

// DragBy moves the pointer by a screen-space delta and fires dragmove. The
// node is placed at the drag start plus the whole pointer travel, so
// handlers see the unsnapped position on every move.
func (n *Node) DragBy(deltaAbs geometry.Coordinate) bool {
	if !n.draggable || !n.interactive() {
		return false
	}
	if !n.dragging {
		n.beginDrag()
	}
	n.dragTotal = r2.Add(n.dragTotal, deltaAbs)
	d := n.parentTransform().Invert().ApplyVector(n.dragTotal)
	n.x = n.dragStart.X + d.X
	n.y = n.dragStart.Y + d.Y
	n.Fire(EventDragMove)
	return true
}

// EndDrag fires dragend.
func (n *Node) EndDrag() {
	n.dragging = false
	n.Fire(EventDragEnd)
}
