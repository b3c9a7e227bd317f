package transformer

import (
	"math"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

// Mode controls which transformer widgets are visible and listening.
type Mode string

const (
	// ModeOff hides every widget and stops listening.
	ModeOff Mode = "off"
	// ModeDrag shows the bbox outline and lets the proxy be dragged.
	ModeDrag Mode = "drag"
	// ModeAll attaches the resize/rotate control to the proxy.
	ModeAll Mode = "all"
)

// rotationGrid is the step the shift key snaps rotation to.
const rotationGrid = math.Pi / 4

// ModeFor derives the interaction mode. The view tool suspends an in-flight
// transform so stage panning is never blocked.
func ModeFor(hasContent, isSelected bool, tool store.Tool, transforming bool) Mode {
	switch {
	case !hasContent:
		return ModeOff
	case isSelected && !transforming && tool == store.ToolMove:
		return ModeDrag
	case isSelected && transforming:
		if tool == store.ToolView {
			return ModeOff
		}
		return ModeAll
	default:
		return ModeOff
	}
}

// RotationSnaps returns the angles the control sticks to: the eight
// multiples of 45° while shift is held, none otherwise.
func RotationSnaps(shift bool) []float64 {
	if !shift {
		return []float64{}
	}
	snaps := make([]float64, 8)
	for k := range snaps {
		snaps[k] = float64(k) * rotationGrid
	}
	return snaps
}

// SnapDragPosition rounds a dragged proxy position to whole logical pixels.
func SnapDragPosition(p geometry.Coordinate) geometry.Coordinate {
	return geometry.SnapCoordinate(p)
}

// SnapAnchor constrains an anchor being dragged to the rendered pixel grid.
// The rotater is left free.
func SnapAnchor(active scene.Anchor, abs, stagePos geometry.Coordinate, stageScale float64) geometry.Coordinate {
	if active == scene.AnchorRotater {
		return abs
	}
	return geometry.SnapAnchor(abs, stagePos, stageScale)
}

// ConstrainRotation returns old when rotating with shift held and next is
// off the 45° grid. The remainder test has no tolerance band.
func ConstrainRotation(old, next scene.Box, rotating, shift bool) scene.Box {
	if rotating && shift && math.Mod(next.Rotation, rotationGrid) != 0 {
		return old
	}
	return next
}

// TransformEnd is the committed geometry of a finished resize or rotate.
type TransformEnd struct {
	Position geometry.Coordinate
	Scale    geometry.Coordinate
	// Width and Height are the integer on-canvas size, at least one pixel.
	Width  float64
	Height float64
}

// ResolveTransformEnd snaps the proxy position to whole pixels and turns the
// accumulated scale into integer dimensions with the exact signed factors
// that reproduce them.
func ResolveTransformEnd(pos geometry.Coordinate, width, height float64, scale geometry.Coordinate) TransformEnd {
	w, sx := geometry.SnapScale(width, scale.X)
	h, sy := geometry.SnapScale(height, scale.Y)
	return TransformEnd{
		Position: geometry.SnapCoordinate(pos),
		Scale:    geometry.Coordinate{X: sx, Y: sy},
		Width:    w,
		Height:   h,
	}
}
