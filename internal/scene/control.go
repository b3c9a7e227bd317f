package scene

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

type Anchor string

const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorMiddleLeft   Anchor = "middle-left"
	AnchorMiddleRight  Anchor = "middle-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
	AnchorRotater      Anchor = "rotater"
)

// Box is a target's on-screen frame: top-left corner, signed scaled size
// and rotation in radians.
type Box struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
}

const (
	rotaterOffset     = 50
	rotationTolerance = 5 * math.Pi / 180
)

// Control is the resize/rotate widget attached to a single node. Anchor
// positions arrive in screen space.
type Control struct {
	*Node

	target        *Node
	anchorBound   func(old, new geometry.Coordinate) geometry.Coordinate
	boundBox      func(old, new Box) Box
	rotationSnaps []float64 // radians

	active     Anchor
	lastAnchor geometry.Coordinate
	handles    map[Anchor]geometry.Coordinate
}

func NewControl(name string) *Control {
	return &Control{
		Node:    New(KindControl, name),
		handles: make(map[Anchor]geometry.Coordinate),
	}
}

// Attach sets the transformed node; nil detaches.
func (c *Control) Attach(target *Node) {
	c.target = target
	c.active = ""
	c.ForceUpdate()
}

func (c *Control) Target() *Node { return c.target }

// SetAnchorDragBound installs the per-move anchor constraint.
func (c *Control) SetAnchorDragBound(fn func(old, new geometry.Coordinate) geometry.Coordinate) {
	c.anchorBound = fn
}

// SetBoundBox installs the per-move box constraint.
func (c *Control) SetBoundBox(fn func(old, new Box) Box) {
	c.boundBox = fn
}

// SetRotationSnaps sets the angles, in radians, that rotation sticks to.
func (c *Control) SetRotationSnaps(angles []float64) {
	c.rotationSnaps = append([]float64(nil), angles...)
}

func (c *Control) RotationSnaps() []float64 {
	return c.rotationSnaps
}

// ActiveAnchor is the anchor being dragged, or "".
func (c *Control) ActiveAnchor() Anchor { return c.active }

// Handles returns the last computed screen positions of every anchor.
func (c *Control) Handles() map[Anchor]geometry.Coordinate {
	return c.handles
}

// TargetBox returns the attached node's current box.
func (c *Control) TargetBox() Box {
	if c.target == nil {
		return Box{}
	}
	n := c.target
	abs := n.AbsoluteTransform()
	origin := abs.Apply(geometry.Coordinate{})
	ps := parentScale(n)
	return Box{
		X:        origin.X,
		Y:        origin.Y,
		Width:    n.width * n.scaleX * ps,
		Height:   n.height * n.scaleY * ps,
		Rotation: (n.rotation + parentRotation(n)) * math.Pi / 180,
	}
}

// ForceUpdate recomputes anchor positions after the target or the viewport
// changed.
func (c *Control) ForceUpdate() {
	c.handles = make(map[Anchor]geometry.Coordinate)
	if c.target == nil {
		return
	}
	b := c.TargetBox()
	at := func(fx, fy float64) geometry.Coordinate {
		return boxPoint(b, b.Width*fx, b.Height*fy)
	}
	c.handles[AnchorTopLeft] = at(0, 0)
	c.handles[AnchorTopCenter] = at(0.5, 0)
	c.handles[AnchorTopRight] = at(1, 0)
	c.handles[AnchorMiddleLeft] = at(0, 0.5)
	c.handles[AnchorMiddleRight] = at(1, 0.5)
	c.handles[AnchorBottomLeft] = at(0, 1)
	c.handles[AnchorBottomCenter] = at(0.5, 1)
	c.handles[AnchorBottomRight] = at(1, 1)
	c.handles[AnchorRotater] = boxPoint(b, b.Width/2, -rotaterOffset)
}

// StartAnchorDrag begins dragging anchor a and fires transformstart on the
// target.
func (c *Control) StartAnchorDrag(a Anchor) bool {
	if c.target == nil || !c.interactive() {
		return false
	}
	pos, ok := c.handles[a]
	if !ok {
		return false
	}
	c.active = a
	c.lastAnchor = pos
	c.target.Fire(EventTransformStart)
	return true
}

// MoveAnchor moves the active anchor to an absolute position, resolves the
// new box through the installed constraints, applies it to the target and
// fires transform.
func (c *Control) MoveAnchor(abs geometry.Coordinate) bool {
	if c.active == "" || c.target == nil {
		return false
	}
	pos := abs
	if c.anchorBound != nil {
		pos = c.anchorBound(c.lastAnchor, abs)
	}

	old := c.TargetBox()
	var next Box
	if c.active == AnchorRotater {
		next = c.rotated(old, pos)
	} else {
		next = resized(old, c.active, pos)
	}
	if c.boundBox != nil {
		next = c.boundBox(old, next)
	}
	c.apply(next)
	c.lastAnchor = pos
	c.ForceUpdate()
	c.target.Fire(EventTransform)
	return true
}

// EndAnchorDrag fires transformend and clears the active anchor.
func (c *Control) EndAnchorDrag() {
	if c.active == "" || c.target == nil {
		return
	}
	c.target.Fire(EventTransformEnd)
	c.active = ""
	c.ForceUpdate()
}

func (c *Control) rotated(old Box, pos geometry.Coordinate) Box {
	center := boxPoint(old, old.Width/2, old.Height/2)
	angle := math.Atan2(pos.Y-center.Y, pos.X-center.X) + math.Pi/2
	for _, snap := range c.rotationSnaps {
		if angularDistance(angle, snap) < rotationTolerance {
			angle = snap
			break
		}
	}
	next := old
	next.Rotation = angle
	// keep the center fixed
	corner := geometry.RotateDegrees(angle * 180 / math.Pi).ApplyVector(geometry.Coordinate{X: old.Width / 2, Y: old.Height / 2})
	next.X = center.X - corner.X
	next.Y = center.Y - corner.Y
	return next
}

// resized moves the edges named by the anchor to pos, working in the box's
// unrotated frame.
func resized(old Box, a Anchor, pos geometry.Coordinate) Box {
	deg := old.Rotation * 180 / math.Pi
	local := geometry.RotateDegrees(-deg).ApplyVector(geometry.Coordinate{X: pos.X - old.X, Y: pos.Y - old.Y})
	x0, y0, x1, y1 := 0.0, 0.0, old.Width, old.Height
	switch a {
	case AnchorTopLeft:
		x0, y0 = local.X, local.Y
	case AnchorTopCenter:
		y0 = local.Y
	case AnchorTopRight:
		x1, y0 = local.X, local.Y
	case AnchorMiddleLeft:
		x0 = local.X
	case AnchorMiddleRight:
		x1 = local.X
	case AnchorBottomLeft:
		x0, y1 = local.X, local.Y
	case AnchorBottomCenter:
		y1 = local.Y
	case AnchorBottomRight:
		x1, y1 = local.X, local.Y
	}
	shift := geometry.RotateDegrees(deg).ApplyVector(geometry.Coordinate{X: x0, Y: y0})
	return Box{
		X:        old.X + shift.X,
		Y:        old.Y + shift.Y,
		Width:    x1 - x0,
		Height:   y1 - y0,
		Rotation: old.Rotation,
	}
}

func (c *Control) apply(b Box) {
	n := c.target
	ps := parentScale(n)
	p := n.parentTransform().Invert().Apply(geometry.Coordinate{X: b.X, Y: b.Y})
	n.x, n.y = p.X, p.Y
	if n.width != 0 && ps != 0 {
		n.scaleX = b.Width / (n.width * ps)
	}
	if n.height != 0 && ps != 0 {
		n.scaleY = b.Height / (n.height * ps)
	}
	n.rotation = b.Rotation*180/math.Pi - parentRotation(n)
}

func boxPoint(b Box, dx, dy float64) geometry.Coordinate {
	v := geometry.RotateDegrees(b.Rotation * 180 / math.Pi).ApplyVector(geometry.Coordinate{X: dx, Y: dy})
	return geometry.Coordinate{X: b.X + v.X, Y: b.Y + v.Y}
}

// parentScale is the uniform scale of the node's ancestors.
func parentScale(n *Node) float64 {
	return n.parentTransform().ScaleFactor()
}

func parentRotation(n *Node) float64 {
	total := 0.0
	for p := n.parent; p != nil; p = p.parent {
		total += p.rotation
	}
	return total
}

func angularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	return min(d, 2*math.Pi-d)
}
