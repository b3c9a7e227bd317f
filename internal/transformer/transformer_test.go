package transformer

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/inamate/inamate/canvas-go/internal/facade"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/reactive"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

type fakeParent struct {
	id         string
	hasContent bool
	layer      *scene.Node
	group      *scene.Node
	position   geometry.Coordinate
	bbox       geometry.Rect

	rasterizeErr error
	rasterized   int
	resets       int
	tr           *Transformer
}

func (p *fakeParent) ID() string               { return p.id }
func (p *fakeParent) Kind() store.EntityKind   { return store.KindRegionalGuidance }
func (p *fakeParent) HasContent() bool         { return p.hasContent }
func (p *fakeParent) Layer() *scene.Node       { return p.layer }
func (p *fakeParent) ObjectGroup() *scene.Node { return p.group }
func (p *fakeParent) BBox() geometry.Rect      { return p.bbox }
func (p *fakeParent) Rasterize() error {
	p.rasterized++
	return p.rasterizeErr
}

func (p *fakeParent) ResetScale() {
	p.resets++
	p.group.SetScale(geometry.Coordinate{X: 1, Y: 1})
	p.group.SetRotation(0)
}

func (p *fakeParent) UpdatePosition() {
	p.group.SetPosition(p.position)
	p.tr.Update(p.position, p.bbox)
}

func (p *fakeParent) UpdateBBox() {
	p.tr.Update(p.position, p.bbox)
}

type fakeState struct {
	tool     store.Tool
	selected string
	cells    *facade.Cells
	subs     map[int]func()
	next     int
	moves    []geometry.Coordinate
}

func (s *fakeState) Tool() store.Tool          { return s.tool }
func (s *fakeState) IsSelected(id string) bool { return s.selected == id }
func (s *fakeState) Cells() *facade.Cells      { return s.cells }

func (s *fakeState) Subscribe(fn func()) reactive.Release {
	s.next++
	id := s.next
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *fakeState) OnPosChanged(_ string, _ store.EntityKind, pos geometry.Coordinate) bool {
	s.moves = append(s.moves, pos)
	return true
}

func (s *fakeState) notify() {
	for _, fn := range s.subs {
		fn()
	}
}

type fakeViewport struct {
	stage *scene.Node
}

func (v *fakeViewport) Scale() float64                { return v.stage.Scale().X }
func (v *fakeViewport) Position() geometry.Coordinate { return v.stage.Position() }
func (v *fakeViewport) ScalePixels(n float64) float64 { return n / v.Scale() }

func (v *fakeViewport) set(scale float64, pos geometry.Coordinate) {
	v.stage.SetScale(geometry.Coordinate{X: scale, Y: scale})
	v.stage.SetPosition(pos)
}

type fixture struct {
	parent   *fakeParent
	state    *fakeState
	viewport *fakeViewport
	tr       *Transformer
}

func newFixture(t *testing.T, scale float64, position geometry.Coordinate, bbox geometry.Rect) *fixture {
	t.Helper()
	stage := scene.New(scene.KindStage, "stage")
	vp := &fakeViewport{stage: stage}
	vp.set(scale, geometry.Coordinate{})

	layer := scene.New(scene.KindLayer, "layer")
	stage.Add(layer)
	group := scene.New(scene.KindGroup, "group")
	group.SetPosition(position)
	layer.Add(group)

	p := &fakeParent{id: "rg_1", hasContent: true, layer: layer, group: group, position: position, bbox: bbox}
	st := &fakeState{tool: store.ToolMove, selected: "rg_1", cells: facade.NewCells(), subs: map[int]func(){}}
	tr := New(p, st, vp, DefaultOptions(), nil)
	p.tr = tr
	tr.Update(position, bbox)
	tr.SyncInteractionState()
	return &fixture{parent: p, state: st, viewport: vp, tr: tr}
}

func TestModeFor(t *testing.T) {
	tools := []store.Tool{store.ToolBrush, store.ToolEraser, store.ToolMove, store.ToolRect, store.ToolView, store.ToolBBox}
	for _, hasContent := range []bool{false, true} {
		for _, selected := range []bool{false, true} {
			for _, transforming := range []bool{false, true} {
				for _, tool := range tools {
					want := ModeOff
					switch {
					case !hasContent:
					case selected && tool == store.ToolMove && !transforming:
						want = ModeDrag
					case selected && transforming && tool != store.ToolView:
						want = ModeAll
					}
					if got := ModeFor(hasContent, selected, tool, transforming); got != want {
						t.Errorf("ModeFor(%v, %v, %v, %v) = %v, want %v", hasContent, selected, tool, transforming, got, want)
					}
				}
			}
		}
	}
}

func TestUpdatePadsOutlineByOneScreenPixel(t *testing.T) {
	f := newFixture(t, 2, geometry.Coordinate{X: 10, Y: 10}, geometry.Rect{X: 4, Y: 6, Width: 100, Height: 50})

	if got := f.tr.ProxyRect().Position(); got.X != 14 || got.Y != 16 {
		t.Errorf("proxy position = %v, want (14, 16)", got)
	}
	outline := f.tr.BBoxOutline()
	if got := outline.StrokeWidth(); got != 0.5 {
		t.Errorf("outline stroke = %v, want 0.5", got)
	}
	if got := outline.Position(); got.X != 11.5 || got.Y != 13.5 {
		t.Errorf("outline position = %v, want (11.5, 13.5)", got)
	}
	if w, h := outline.Size(); w != 105 || h != 55 {
		t.Errorf("outline size = %v x %v, want 105 x 55", w, h)
	}
}

func TestSyncScaleOnZoom(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{X: 10, Y: 10}, geometry.Rect{Width: 100, Height: 50})
	f.viewport.set(4, geometry.Coordinate{})
	f.state.cells.StageAttrs.Set(facade.StageAttrs{Scale: 4})

	if got := f.tr.BBoxOutline().StrokeWidth(); got != 0.25 {
		t.Errorf("outline stroke = %v, want 0.25", got)
	}
	if got := f.tr.ProxyRect().Position(); got.X != 10 || got.Y != 10 {
		t.Errorf("proxy moved to %v on zoom", got)
	}
}

func TestSyncScaleWithFlippedProxy(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{X: 10, Y: 10}, geometry.Rect{Width: 100, Height: 50})
	f.tr.ProxyRect().SetScale(geometry.Coordinate{X: -1.5, Y: 1})
	f.viewport.set(4, geometry.Coordinate{})
	f.tr.SyncScale()

	outline := f.tr.BBoxOutline()
	if got := outline.Position(); got.X != -141.25 || got.Y != 8.75 {
		t.Errorf("outline position = %v, want (-141.25, 8.75)", got)
	}
	if w, h := outline.Size(); w != 152.5 || h != 52.5 {
		t.Errorf("outline size = %v x %v, want 152.5 x 52.5", w, h)
	}
}

func TestInteractionModeWidgets(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	if f.tr.Mode() != ModeDrag {
		t.Fatalf("Mode() = %v, want drag", f.tr.Mode())
	}
	if !f.tr.BBoxOutline().Visible() || !f.tr.ProxyRect().Listening() || f.tr.Control().Target() != nil {
		t.Error("drag mode should show the outline, listen on the proxy and detach the control")
	}

	f.tr.StartTransform()
	if f.tr.Mode() != ModeAll {
		t.Fatalf("Mode() = %v, want all", f.tr.Mode())
	}
	if f.tr.BBoxOutline().Visible() || f.tr.Control().Target() != f.tr.ProxyRect() || !f.tr.Control().Listening() {
		t.Error("all mode should hide the outline and attach the control to the proxy")
	}

	f.state.tool = store.ToolView
	f.state.notify()
	if f.tr.Mode() != ModeOff || !f.tr.IsTransforming() {
		t.Errorf("view tool: Mode() = %v transforming = %v, want off and still transforming", f.tr.Mode(), f.tr.IsTransforming())
	}

	f.parent.hasContent = false
	f.tr.SyncInteractionState()
	if f.parent.layer.Listening() {
		t.Error("layer still listening without content")
	}
}

func TestStoreChangeResyncsMode(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.state.selected = "other"
	f.state.notify()
	if f.tr.Mode() != ModeOff {
		t.Errorf("Mode() = %v after deselect, want off", f.tr.Mode())
	}
	f.state.selected = "rg_1"
	f.state.notify()
	if f.tr.Mode() != ModeDrag {
		t.Errorf("Mode() = %v after reselect, want drag", f.tr.Mode())
	}
}

func TestDragCommitsRoundedPosition(t *testing.T) {
	f := newFixture(t, 2, geometry.Coordinate{X: 10, Y: 10}, geometry.Rect{Width: 100, Height: 50})
	proxy := f.tr.ProxyRect()

	if !proxy.StartDrag() {
		t.Fatal("StartDrag() = false in drag mode")
	}
	proxy.DragBy(geometry.Coordinate{X: 10, Y: 0})
	proxy.DragBy(geometry.Coordinate{X: 23.4, Y: -5.6})

	if got := proxy.Position(); got.X != 27 || got.Y != 7 {
		t.Errorf("proxy position = %v, want (27, 7)", got)
	}
	if got := f.parent.group.Position(); got.X != 27 || got.Y != 7 {
		t.Errorf("group position = %v, want (27, 7)", got)
	}
	if got := f.tr.BBoxOutline().Position(); got.X != 24.5 || got.Y != 4.5 {
		t.Errorf("outline position = %v, want (24.5, 4.5)", got)
	}
	if len(f.state.moves) != 0 {
		t.Fatalf("position committed %d times before dragend", len(f.state.moves))
	}

	proxy.EndDrag()
	if len(f.state.moves) != 1 {
		t.Fatalf("position committed %d times, want 1", len(f.state.moves))
	}
	if got := f.state.moves[0]; got.X != 27 || got.Y != 7 {
		t.Errorf("committed position = %v, want (27, 7)", got)
	}
}

func TestDragSubtractsBBoxOrigin(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{X: 100, Y: 100}, geometry.Rect{X: 12, Y: -8, Width: 40, Height: 40})
	proxy := f.tr.ProxyRect()
	proxy.StartDrag()
	proxy.DragBy(geometry.Coordinate{X: 5.2, Y: 4.6})
	proxy.EndDrag()

	if len(f.state.moves) != 1 {
		t.Fatalf("position committed %d times, want 1", len(f.state.moves))
	}
	if got := f.state.moves[0]; got.X != 105 || got.Y != 105 {
		t.Errorf("committed position = %v, want (105, 105)", got)
	}
}

func TestDragDuringTransformIsNotCommitted(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.tr.StartTransform()
	proxy := f.tr.ProxyRect()
	proxy.StartDrag()
	proxy.DragBy(geometry.Coordinate{X: 8, Y: 8})
	proxy.EndDrag()
	if len(f.state.moves) != 0 {
		t.Errorf("position committed %d times during transform, want 0", len(f.state.moves))
	}
}

func TestDragIgnoredWhenOff(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.state.tool = store.ToolBrush
	f.state.notify()
	if f.tr.ProxyRect().StartDrag() {
		t.Error("StartDrag() = true in off mode")
	}
}

func TestResolveTransformEnd(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		scale         geometry.Coordinate
		wantW, wantH  float64
		wantScale     geometry.Coordinate
	}{
		{"grow", 100, 50, geometry.Coordinate{X: 1.236, Y: 1}, 124, 50, geometry.Coordinate{X: 1.24, Y: 1}},
		{"flip", 100, 50, geometry.Coordinate{X: -0.5, Y: -2.5}, 50, 125, geometry.Coordinate{X: -0.5, Y: -2.5}},
		{"collapse", 100, 50, geometry.Coordinate{X: 0.004, Y: -0.001}, 1, 1, geometry.Coordinate{X: 0.01, Y: -0.02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTransformEnd(geometry.Coordinate{X: 3.5, Y: -7.49}, tt.width, tt.height, tt.scale)
			if got.Position.X != 4 || got.Position.Y != -7 {
				t.Errorf("Position = %v, want (4, -7)", got.Position)
			}
			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("size = %v x %v, want %v x %v", got.Width, got.Height, tt.wantW, tt.wantH)
			}
			if got.Scale != tt.wantScale {
				t.Errorf("Scale = %v, want %v", got.Scale, tt.wantScale)
			}
			if math.Abs(got.Scale.X*tt.width) != got.Width || math.Abs(got.Scale.Y*tt.height) != got.Height {
				t.Errorf("recovered scale %v does not reproduce %v x %v", got.Scale, got.Width, got.Height)
			}
			if math.Signbit(got.Scale.X) != math.Signbit(tt.scale.X) || math.Signbit(got.Scale.Y) != math.Signbit(tt.scale.Y) {
				t.Errorf("flip changed: %v from %v", got.Scale, tt.scale)
			}
		})
	}
}

func TestResizeThroughControl(t *testing.T) {
	f := newFixture(t, 2, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.viewport.set(2, geometry.Coordinate{X: 0.5, Y: 0})
	f.tr.StartTransform()
	ctl := f.tr.Control()
	ctl.ForceUpdate()

	if !ctl.StartAnchorDrag(scene.AnchorMiddleRight) {
		t.Fatal("StartAnchorDrag() = false in all mode")
	}
	ctl.MoveAnchor(geometry.Coordinate{X: 247.3, Y: 50})
	if got := f.parent.group.Scale().X; !scalar.EqualWithinAbs(got, 1.23, 1e-12) {
		t.Errorf("group scaleX during transform = %v, want 1.23", got)
	}
	ctl.EndAnchorDrag()

	proxy := f.tr.ProxyRect()
	w, h := proxy.Size()
	s := proxy.Scale()
	if got := w * s.X; !scalar.EqualWithinAbs(got, 123, 1e-9) {
		t.Errorf("committed width = %v, want 123", got)
	}
	if got := h * s.Y; got != 50 {
		t.Errorf("committed height = %v, want 50", got)
	}
	if got := proxy.Position(); got.X != math.Floor(got.X) || got.Y != math.Floor(got.Y) {
		t.Errorf("proxy position = %v, want whole pixels", got)
	}
	if f.parent.group.Scale() != s {
		t.Errorf("group scale = %v, want %v", f.parent.group.Scale(), s)
	}
	if len(f.state.moves) != 0 {
		t.Errorf("transform committed %d positions, want 0", len(f.state.moves))
	}
}

func TestFlipThroughControl(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.tr.StartTransform()
	ctl := f.tr.Control()
	ctl.StartAnchorDrag(scene.AnchorMiddleRight)
	ctl.MoveAnchor(geometry.Coordinate{X: -60.3, Y: 25})
	ctl.EndAnchorDrag()

	s := f.tr.ProxyRect().Scale()
	if s.X >= 0 {
		t.Fatalf("scaleX = %v, want negative", s.X)
	}
	if got := s.X * 100; !scalar.EqualWithinAbs(got, -60, 1e-9) {
		t.Errorf("flipped width = %v, want -60", got)
	}
}

func TestSnapAnchorLeavesRotaterFree(t *testing.T) {
	p := geometry.Coordinate{X: 13.37, Y: 42.42}
	if got := SnapAnchor(scene.AnchorRotater, p, geometry.Coordinate{X: 0.3}, 2); got != p {
		t.Errorf("SnapAnchor(rotater) = %v, want %v", got, p)
	}
	got := SnapAnchor(scene.AnchorTopLeft, p, geometry.Coordinate{X: 0.3}, 2)
	if !scalar.EqualWithinAbs(got.X, 14.3, 1e-9) || !scalar.EqualWithinAbs(got.Y, 42, 1e-9) {
		t.Errorf("SnapAnchor(top-left) = %v, want (14.3, 42)", got)
	}
}

func TestConstrainRotation(t *testing.T) {
	old := scene.Box{X: 1, Y: 2, Width: 10, Height: 10, Rotation: 0}
	grid := rotationGrid
	tests := []struct {
		name     string
		rotation float64
		rotating bool
		shift    bool
		rejected bool
	}{
		{"free rotation", 0.3, true, false, false},
		{"resize ignores shift", 0.3, false, true, false},
		{"off grid", 0.3, true, true, true},
		{"on grid", 3 * grid, true, true, false},
		{"negative on grid", -grid, true, true, false},
		{"zero", 0, true, true, false},
		// no tolerance band: one ulp off the grid is rejected
		{"one ulp above 45", math.Nextafter(grid, 1), true, true, true},
		{"one ulp below 90", math.Nextafter(2*grid, 0), true, true, true},
		{"near 315", 7*grid - 1e-12, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := old
			next.Rotation = tt.rotation
			next.X = 5
			got := ConstrainRotation(old, next, tt.rotating, tt.shift)
			if tt.rejected && got != old {
				t.Errorf("ConstrainRotation(%v) = %+v, want old box", tt.rotation, got)
			}
			if !tt.rejected && got != next {
				t.Errorf("ConstrainRotation(%v) = %+v, want new box", tt.rotation, got)
			}
		})
	}
	for k := 0; k < 8; k++ {
		next := old
		next.Rotation = RotationSnaps(true)[k]
		if got := ConstrainRotation(old, next, true, true); got != next {
			t.Errorf("snap angle %d rejected", k)
		}
	}
}

// rotaterTarget returns the screen point that turns the box centered at c to
// deg degrees.
func rotaterTarget(c geometry.Coordinate, deg float64) geometry.Coordinate {
	a := deg*math.Pi/180 - math.Pi/2
	return geometry.Coordinate{X: c.X + 100*math.Cos(a), Y: c.Y + 100*math.Sin(a)}
}

func TestRotationWithShift(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.tr.StartTransform()
	ctl := f.tr.Control()
	proxy := f.tr.ProxyRect()
	center := geometry.Coordinate{X: 50, Y: 25}

	ctl.StartAnchorDrag(scene.AnchorRotater)
	ctl.MoveAnchor(rotaterTarget(center, 30))
	if got := proxy.Rotation(); !scalar.EqualWithinAbs(got, 30, 1e-9) {
		t.Fatalf("rotation without shift = %v, want 30", got)
	}

	f.state.cells.ShiftKey.Set(true)
	ctl.MoveAnchor(rotaterTarget(center, 20))
	if got := proxy.Rotation(); !scalar.EqualWithinAbs(got, 30, 1e-9) {
		t.Errorf("off-grid rotation with shift = %v, want unchanged 30", got)
	}
	ctl.MoveAnchor(rotaterTarget(center, 43))
	if got := proxy.Rotation(); !scalar.EqualWithinAbs(got, 45, 1e-9) {
		t.Errorf("rotation near 45 with shift = %v, want 45", got)
	}
	ctl.EndAnchorDrag()
}

func TestShiftTogglesRotationSnaps(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 10, Height: 10})
	ctl := f.tr.Control()
	if n := len(ctl.RotationSnaps()); n != 0 {
		t.Errorf("snaps without shift = %d, want 0", n)
	}
	f.state.cells.ShiftKey.Set(true)
	snaps := ctl.RotationSnaps()
	if len(snaps) != 8 {
		t.Fatalf("snaps with shift = %d, want 8", len(snaps))
	}
	for k, a := range snaps {
		if a != float64(k)*math.Pi/4 {
			t.Errorf("snap %d = %v, want %v", k, a, float64(k)*math.Pi/4)
		}
	}
	f.state.cells.ShiftKey.Set(false)
	if n := len(ctl.RotationSnaps()); n != 0 {
		t.Errorf("snaps after release = %d, want 0", n)
	}
}

func TestApplyTransform(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{X: 10, Y: 10}, geometry.Rect{Width: 100, Height: 50})
	f.tr.StartTransform()

	f.parent.rasterizeErr = errors.New("no renderer")
	if err := f.tr.ApplyTransform(); err == nil {
		t.Fatal("ApplyTransform() = nil, want error")
	}
	if !f.tr.IsTransforming() || f.tr.Mode() != ModeAll {
		t.Errorf("after failed apply: transforming = %v mode = %v, want true and all", f.tr.IsTransforming(), f.tr.Mode())
	}

	f.parent.rasterizeErr = nil
	f.tr.ProxyRect().SetScale(geometry.Coordinate{X: 2, Y: 2})
	if err := f.tr.ApplyTransform(); err != nil {
		t.Fatalf("ApplyTransform() = %v", err)
	}
	if f.tr.IsTransforming() {
		t.Error("still transforming after apply")
	}
	if f.parent.rasterized != 2 || f.parent.resets != 1 {
		t.Errorf("rasterized = %d resets = %d, want 2 and 1", f.parent.rasterized, f.parent.resets)
	}
	if s := f.tr.ProxyRect().Scale(); s.X != 1 || s.Y != 1 {
		t.Errorf("proxy scale = %v after apply, want identity", s)
	}
	if f.tr.Mode() != ModeDrag {
		t.Errorf("Mode() = %v after apply, want drag", f.tr.Mode())
	}
}

func TestStopTransformForcesOffThenResyncs(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	f.tr.StartTransform()
	f.state.tool = store.ToolBrush
	f.tr.StopTransform()
	if f.tr.IsTransforming() || f.tr.Mode() != ModeOff {
		t.Errorf("after stop: transforming = %v mode = %v", f.tr.IsTransforming(), f.tr.Mode())
	}
	if f.parent.rasterized != 0 {
		t.Errorf("StopTransform rasterized %d times", f.parent.rasterized)
	}
}

func TestDestroyReleasesEverything(t *testing.T) {
	f := newFixture(t, 1, geometry.Coordinate{}, geometry.Rect{Width: 100, Height: 50})
	proxy := f.tr.ProxyRect()
	f.tr.Destroy()
	f.tr.Destroy()

	if n := f.state.cells.Listeners(); n != 0 {
		t.Errorf("cells still have %d listeners", n)
	}
	if n := len(f.state.subs); n != 0 {
		t.Errorf("store still has %d subscribers", n)
	}
	if n := proxy.HandlerCount(); n != 0 {
		t.Errorf("proxy still has %d handlers", n)
	}
	if n := f.tr.Subscriptions(); n != 0 {
		t.Errorf("Subscriptions() = %d, want 0", n)
	}
	if n := len(f.parent.layer.Children()); n != 1 {
		t.Errorf("layer has %d children, want only the object group", n)
	}
	if err := f.tr.ApplyTransform(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("ApplyTransform() after destroy = %v, want ErrDestroyed", err)
	}
}
