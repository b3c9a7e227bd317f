// Package stage owns the root viewport: its position, uniform scale and
// size, and the conversions between screen and logical space.
package stage

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/inamate/inamate/canvas-go/internal/facade"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/reactive"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

// Container is the on-screen element hosting the stage.
type Container interface {
	Size() (width, height float64)
	OnResize(fn func()) reactive.Release
}

// State is the slice of the façade the stage reads.
type State interface {
	Cells() *facade.Cells
	Entities() []*store.Entity
	BBox() store.BBoxState
}

type Options struct {
	MinScale float64
	MaxScale float64
	// FitPadding is in absolute pixels.
	FitPadding float64
}

func DefaultOptions() Options {
	return Options{MinScale: 0.1, MaxScale: 20, FitPadding: 20}
}

type Stage struct {
	node      *scene.Node
	container Container
	state     State
	opts      Options
	log       *slog.Logger
	subs      reactive.Subscriptions
}

// New creates the stage, sizes it to the container and starts following
// container resizes.
func New(container Container, state State, opts Options, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stage{
		node:      scene.New(scene.KindStage, "stage"),
		container: container,
		state:     state,
		opts:      opts,
		log:       logger.With("component", "stage"),
	}
	s.node.SetDraggable(true)
	s.subs.Add(container.OnResize(s.FitToContainer))
	s.FitToContainer()
	return s
}

// Node is the root of the render tree.
func (s *Stage) Node() *scene.Node {
	return s.node
}

func (s *Stage) Scale() float64 {
	return s.node.Scale().X
}

func (s *Stage) Position() geometry.Coordinate {
	return s.node.Position()
}

func (s *Stage) Size() (width, height float64) {
	return s.node.Size()
}

// Draggable reports whether panning by dragging the stage is enabled.
func (s *Stage) Draggable() bool {
	return s.node.Draggable()
}

// SetDraggable turns stage panning off while another widget owns the drag.
func (s *Stage) SetDraggable(v bool) {
	s.node.SetDraggable(v)
}

// FitToContainer matches the stage size to the container. A 0×0 measurement
// (container not laid out yet) is ignored.
func (s *Stage) FitToContainer() {
	w, h := s.container.Size()
	if w <= 0 || h <= 0 {
		s.log.Debug("ignoring empty container size", "width", w, "height", h)
		return
	}
	s.node.SetSize(w, h)
	s.publish(s.Position())
}

// FitRect scales and centers rect inside the container with FitPadding on
// every side, never zooming in past 1.
func (s *Stage) FitRect(rect geometry.Rect) {
	width, height := s.Size()
	availableWidth := width - s.opts.FitPadding*2
	availableHeight := height - s.opts.FitPadding*2
	if rect.IsEmpty() || availableWidth <= 0 || availableHeight <= 0 {
		s.log.Debug("skipping fit", "rect", rect, "width", width, "height", height)
		return
	}

	scale := min(availableWidth/rect.Width, availableHeight/rect.Height, 1)
	scale = max(scale, s.opts.MinScale)
	x := -rect.X*scale + s.opts.FitPadding + (availableWidth-rect.Width*scale)/2
	y := -rect.Y*scale + s.opts.FitPadding + (availableHeight-rect.Height*scale)/2

	s.node.SetPosition(geometry.Coordinate{X: x, Y: y})
	s.node.SetScale(geometry.Coordinate{X: scale, Y: scale})
	s.publish(geometry.Coordinate{X: x, Y: y})
}

// FitBBoxToStage fits the generation bbox.
func (s *Stage) FitBBoxToStage() {
	s.FitRect(s.state.BBox().Rect)
}

// FitToVisibleContent fits the union of every enabled entity, falling back to
// the generation bbox when there is nothing to show.
func (s *Stage) FitToVisibleContent() {
	var rect geometry.Rect
	for _, e := range s.state.Entities() {
		if e.IsEnabled {
			rect = rect.Union(e.Rect())
		}
	}
	if rect.IsEmpty() {
		s.FitBBoxToStage()
		return
	}
	s.FitRect(rect)
}

// Center returns the logical point at the middle of the viewport, or its
// screen position when absolute is set.
func (s *Stage) Center(absolute bool) geometry.Coordinate {
	width, height := s.Size()
	center := s.ToLogical(geometry.Coordinate{X: width / 2, Y: height / 2})
	if !absolute {
		return center
	}
	return s.ToAbsolute(center)
}

// SetScale zooms to scale, clamped and rounded to two decimals, keeping the
// screen point center fixed. A nil center means the middle of the viewport.
func (s *Stage) SetScale(scale float64, center *geometry.Coordinate) {
	c := s.Center(true)
	if center != nil {
		c = *center
	}
	newScale := scalar.Round(min(max(scale, s.opts.MinScale), s.opts.MaxScale), 2)
	oldScale := s.Scale()
	pos := s.Position()

	deltaX := (c.X - pos.X) / oldScale
	deltaY := (c.Y - pos.Y) / oldScale
	next := geometry.Coordinate{X: c.X - deltaX*newScale, Y: c.Y - deltaY*newScale}

	s.node.SetPosition(next)
	s.node.SetScale(geometry.Coordinate{X: newScale, Y: newScale})
	s.publish(geometry.Coordinate{X: math.Floor(next.X), Y: math.Floor(next.Y)})
	s.log.Log(context.Background(), facade.LevelTrace, "scale changed", "scale", newScale, "x", next.X, "y", next.Y)
}

// SetPosition pans the viewport.
func (s *Stage) SetPosition(p geometry.Coordinate) {
	s.node.SetPosition(p)
	s.publish(geometry.Coordinate{X: math.Floor(p.X), Y: math.Floor(p.Y)})
}

// PanBy drags the viewport by a screen delta. It does nothing while the
// stage is not draggable.
func (s *Stage) PanBy(delta geometry.Coordinate) bool {
	if !s.Draggable() {
		return false
	}
	p := s.Position()
	s.SetPosition(geometry.Coordinate{X: p.X + delta.X, Y: p.Y + delta.Y})
	return true
}

// ScalePixels converts an absolute length to logical units so strokes keep
// their on-screen width under zoom.
func (s *Stage) ScalePixels(n float64) float64 {
	return n / s.Scale()
}

func (s *Stage) ToLogical(abs geometry.Coordinate) geometry.Coordinate {
	return geometry.ToLogical(abs, s.Position(), s.Scale())
}

func (s *Stage) ToAbsolute(p geometry.Coordinate) geometry.Coordinate {
	return geometry.ToAbsolute(p, s.Position(), s.Scale())
}

func (s *Stage) publish(pos geometry.Coordinate) {
	width, height := s.Size()
	s.state.Cells().StageAttrs.Set(facade.StageAttrs{
		X:      pos.X,
		Y:      pos.Y,
		Width:  width,
		Height: height,
		Scale:  s.Scale(),
	})
}

// Destroy stops following the container and tears down the render tree.
func (s *Stage) Destroy() {
	s.subs.ReleaseAll()
	s.node.Destroy()
}
