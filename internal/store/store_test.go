package store

import (
	"errors"
	"testing"

	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

func newTestState() *State {
	s := NewEmptyState(512, 512)
	s.Layers = []Entity{{ID: "layer_a", Kind: KindLayer, IsEnabled: true, Position: geometry.Coordinate{X: 10, Y: 10}}}
	s.RegionalGuidance = []Entity{{
		ID: "rg_a", Kind: KindRegionalGuidance, IsEnabled: true,
		Objects: []Object{{Kind: ObjectBrushLine, Points: []float64{0, 0, 10, 20}, StrokeWidth: 4}},
	}}
	return s
}

func TestDispatchPositionChanged(t *testing.T) {
	st := New(newTestState(), nil)
	calls := 0
	st.Subscribe(func() { calls++ })

	err := st.Dispatch(Action{
		Type:     LayerPositionChanged,
		EntityID: "layer_a",
		Payload:  PositionPayload{Position: geometry.Coordinate{X: 27, Y: 7}},
	})
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	got := st.GetState().Entity(KindLayer, "layer_a").Position
	if got != (geometry.Coordinate{X: 27, Y: 7}) {
		t.Errorf("position = %v, want (27, 7)", got)
	}
	if calls != 1 || st.Version() != 1 {
		t.Errorf("calls = %d, version = %d, want 1, 1", calls, st.Version())
	}
	if len(st.Dispatched()) != 1 || st.Dispatched()[0].ID == "" {
		t.Errorf("Dispatched() = %+v, want one stamped action", st.Dispatched())
	}
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name string
		a    Action
		want error
	}{
		{"missing entity", Action{Type: RGPositionChanged, EntityID: "nope", Payload: PositionPayload{}}, ErrEntityNotFound},
		{"wrong collection", Action{Type: IMPositionChanged, EntityID: "layer_a", Payload: PositionPayload{}}, ErrEntityNotFound},
		{"bad payload", Action{Type: LayerPositionChanged, EntityID: "layer_a", Payload: ScalePayload{}}, ErrBadPayload},
		{"unknown", Action{Type: "nope/never"}, ErrUnknownAction},
		{"duplicate", Action{Type: EntityAdded, Payload: EntityPayload{Entity: Entity{ID: "rg_a", Kind: KindRegionalGuidance}}}, ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := New(newTestState(), nil)
			st.Subscribe(func() { t.Error("subscriber called on failed dispatch") })
			if err := st.Dispatch(tt.a); !errors.Is(err, tt.want) {
				t.Errorf("Dispatch() = %v, want %v", err, tt.want)
			}
			if st.Version() != 0 {
				t.Errorf("Version() = %d, want 0", st.Version())
			}
		})
	}
}

func TestScaledScalesObjects(t *testing.T) {
	st := New(newTestState(), nil)
	err := st.Dispatch(Action{
		Type:     RGScaled,
		EntityID: "rg_a",
		Payload:  ScalePayload{Scale: geometry.Coordinate{X: 2, Y: 0.5}, Position: geometry.Coordinate{X: 5, Y: 6}},
	})
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	e := st.GetState().Entity(KindRegionalGuidance, "rg_a")
	want := []float64{0, 0, 20, 10}
	for i, v := range want {
		if e.Objects[0].Points[i] != v {
			t.Fatalf("points = %v, want %v", e.Objects[0].Points, want)
		}
	}
	if e.Objects[0].StrokeWidth != 4 {
		t.Errorf("stroke width = %v, want 4", e.Objects[0].StrokeWidth)
	}
	if !e.BBoxNeedsUpdate || e.Position != (geometry.Coordinate{X: 5, Y: 6}) {
		t.Errorf("entity = %+v, want bbox flagged and moved", e)
	}
}

func TestLineAddedStoresLocalPoints(t *testing.T) {
	st := New(newTestState(), nil)
	err := st.Dispatch(Action{
		Type:     LayerBrushLineAdded,
		EntityID: "layer_a",
		Payload:  LinePayload{Points: []float64{15, 20, 30, 40}, StrokeWidth: 2},
	})
	if err != nil {
		t.Fatalf("Dispatch() = %v", err)
	}
	obj := st.GetState().Entity(KindLayer, "layer_a").Objects[0]
	if obj.Kind != ObjectBrushLine || obj.Points[0] != 5 || obj.Points[1] != 10 {
		t.Errorf("object = %+v, want brush line at local (5, 10)", obj)
	}
}

func TestRemoveClearsSelection(t *testing.T) {
	st := New(newTestState(), nil)
	if err := st.Dispatch(Action{Type: EntitySelected, Payload: SelectPayload{Entity: &EntityIdentifier{ID: "layer_a", Kind: KindLayer}}}); err != nil {
		t.Fatal(err)
	}
	if err := st.Dispatch(Action{Type: EntityRemoved, EntityID: "layer_a"}); err != nil {
		t.Fatal(err)
	}
	if st.GetState().SelectedEntity != nil {
		t.Errorf("SelectedEntity = %+v, want nil", st.GetState().SelectedEntity)
	}
	if len(st.GetState().Layers) != 0 {
		t.Errorf("Layers = %d, want 0", len(st.GetState().Layers))
	}
}

func TestReentrantDispatchRenotifies(t *testing.T) {
	st := New(newTestState(), nil)
	seen := []int64{}
	st.Subscribe(func() {
		seen = append(seen, st.Version())
		if st.Version() == 1 {
			_ = st.Dispatch(Action{Type: ToolSelected, Payload: ToolPayload{Tool: ToolMove}})
		}
	})
	if err := st.Dispatch(Action{Type: ToolSelected, Payload: ToolPayload{Tool: ToolView}}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[1] != 2 {
		t.Errorf("subscriber saw versions %v, want [1 2]", seen)
	}
	if st.GetState().Tool.Selected != ToolMove {
		t.Errorf("tool = %v, want move", st.GetState().Tool.Selected)
	}
}

func TestSampleStateIsConsistent(t *testing.T) {
	s := NewSampleState()
	if s.SelectedEntity == nil || s.Entity(s.SelectedEntity.Kind, s.SelectedEntity.ID) == nil {
		t.Fatal("sample selection does not resolve")
	}
	if got := len(s.AllEntities()); got != 4 {
		t.Errorf("AllEntities() = %d entities, want 4", got)
	}
}

func TestSubscribeReleaseIsIdempotent(t *testing.T) {
	st := New(nil, nil)
	r1 := st.Subscribe(func() {})
	r2 := st.Subscribe(func() {})
	r1()
	r1()
	if got := st.Subscribers(); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}
	r2()
	if got := st.Subscribers(); got != 0 {
		t.Errorf("Subscribers() = %d, want 0", got)
	}
}
