// Package canvas wires the store, the state façade, the stage and one
// adapter plus transformer per entity, and exposes the command and query
// surface the host drives.
package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/inamate/inamate/canvas-go/internal/bake"
	"github.com/inamate/inamate/canvas-go/internal/facade"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/reactive"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/stage"
	"github.com/inamate/inamate/canvas-go/internal/store"
	"github.com/inamate/inamate/canvas-go/internal/transformer"
)

var ErrNoEntity = errors.New("no such entity")

// handleSize is the on-screen size of a control anchor.
const handleSize = 8

type Options struct {
	Stage       stage.Options
	Transformer transformer.Options
	// ContainerWidth and ContainerHeight size the stage until the host
	// reports the real container.
	ContainerWidth  float64
	ContainerHeight float64
	// Level, when set, follows the log level held in state.
	Level *slog.LevelVar
}

func DefaultOptions() Options {
	return Options{
		Stage:           stage.DefaultOptions(),
		Transformer:     transformer.DefaultOptions(),
		ContainerWidth:  1280,
		ContainerHeight: 720,
	}
}

// Manager owns one canvas.
type Manager struct {
	store     *store.Store
	api       *facade.StateAPI
	cells     *facade.Cells
	container *container
	stage     *stage.Stage
	registry  *bake.Registry
	adapters  map[string]*entityAdapter
	opts      Options
	log       *slog.Logger
	subs      reactive.Subscriptions
	destroyed bool
}

// New builds a canvas over initial and mirrors every entity into the scene.
func New(initial *store.State, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "canvas")
	m := &Manager{
		cells:     facade.NewCells(),
		container: newContainer(opts.ContainerWidth, opts.ContainerHeight),
		registry:  bake.NewRegistry(),
		adapters:  make(map[string]*entityAdapter),
		opts:      opts,
		log:       log,
	}
	m.store = store.New(initial, logger)
	m.api = facade.New(m.store, m.cells, logger)
	m.stage = stage.New(m.container, m.api, opts.Stage, logger)
	m.subs.Add(m.store.Subscribe(m.sync))
	m.sync()
	return m
}

// --- Commands (host → canvas) ---

// ResizeContainer reports the size of the element hosting the stage.
func (m *Manager) ResizeContainer(width, height float64) {
	m.container.resize(width, height)
}

// PointerMove records the pointer at an absolute position.
func (m *Manager) PointerMove(x, y float64) {
	p := m.stage.ToLogical(geometry.Coordinate{X: x, Y: y})
	m.cells.CursorPos.Set(&p)
}

// PointerLeave clears the cursor position.
func (m *Manager) PointerLeave() {
	m.cells.CursorPos.Set(nil)
}

func (m *Manager) SetMouseDown(down bool) {
	m.cells.IsMouseDown.Set(down)
}

// SetModifiers records the held modifier keys.
func (m *Manager) SetModifiers(shift, ctrl, meta, alt, space bool) {
	m.cells.ShiftKey.Set(shift)
	m.cells.CtrlKey.Set(ctrl)
	m.cells.MetaKey.Set(meta)
	m.cells.AltKey.Set(alt)
	m.cells.SpaceKey.Set(space)
	m.syncStageDraggable()
}

// Zoom sets the stage scale keeping the absolute point (x, y) fixed.
func (m *Manager) Zoom(scale, x, y float64) {
	m.stage.SetScale(scale, &geometry.Coordinate{X: x, Y: y})
}

// Pan moves the stage by an absolute delta.
func (m *Manager) Pan(dx, dy float64) bool {
	return m.stage.PanBy(geometry.Coordinate{X: dx, Y: dy})
}

// FitToContent fits the enabled entities, or the generation bbox when
// there are none.
func (m *Manager) FitToContent() {
	m.stage.FitToVisibleContent()
}

// FitBBox fits the generation bbox.
func (m *Manager) FitBBox() {
	m.stage.FitBBoxToStage()
}

func (m *Manager) SetTool(tool store.Tool) bool {
	return m.api.SetTool(tool)
}

// Select selects the entity with id, or clears the selection for "".
func (m *Manager) Select(id string) error {
	if id == "" {
		m.api.SetSelectedEntity(nil)
		return nil
	}
	a, err := m.adapter(id)
	if err != nil {
		return err
	}
	m.api.SetSelectedEntity(&store.EntityIdentifier{ID: a.id, Kind: a.kind})
	return nil
}

func (m *Manager) StartDrag(id string) bool {
	a, err := m.adapter(id)
	if err != nil {
		return false
	}
	return a.transformer.ProxyRect().StartDrag()
}

// DragBy moves the entity's proxy by an absolute delta.
func (m *Manager) DragBy(id string, dx, dy float64) bool {
	a, err := m.adapter(id)
	if err != nil {
		return false
	}
	return a.transformer.ProxyRect().DragBy(geometry.Coordinate{X: dx, Y: dy})
}

func (m *Manager) EndDrag(id string) {
	if a, err := m.adapter(id); err == nil {
		a.transformer.ProxyRect().EndDrag()
	}
}

func (m *Manager) StartAnchorDrag(id string, anchor scene.Anchor) bool {
	a, err := m.adapter(id)
	if err != nil {
		return false
	}
	return a.transformer.Control().StartAnchorDrag(anchor)
}

// MoveAnchor moves the active anchor to an absolute position.
func (m *Manager) MoveAnchor(id string, x, y float64) bool {
	a, err := m.adapter(id)
	if err != nil {
		return false
	}
	return a.transformer.Control().MoveAnchor(geometry.Coordinate{X: x, Y: y})
}

func (m *Manager) EndAnchorDrag(id string) {
	if a, err := m.adapter(id); err == nil {
		a.transformer.Control().EndAnchorDrag()
	}
}

// StartTransform selects an entity and puts it in transform mode, stopping
// any other.
func (m *Manager) StartTransform(id string) error {
	a, err := m.adapter(id)
	if err != nil {
		return err
	}
	if !m.api.IsSelected(id) {
		m.api.SetSelectedEntity(&store.EntityIdentifier{ID: a.id, Kind: a.kind})
	}
	for _, other := range m.adapters {
		if other != a && other.transformer.IsTransforming() {
			other.transformer.StopTransform()
		}
	}
	a.transformer.StartTransform()
	return nil
}

func (m *Manager) ApplyTransform(id string) error {
	a, err := m.adapter(id)
	if err != nil {
		return err
	}
	return a.transformer.ApplyTransform()
}

func (m *Manager) StopTransform(id string) error {
	a, err := m.adapter(id)
	if err != nil {
		return err
	}
	a.transformer.StopTransform()
	return nil
}

// PutImage makes a raster available to image objects under name.
func (m *Manager) PutImage(name string, img image.Image) {
	m.registry.Put(name, img)
}

// Destroy tears the canvas down. It is safe to call more than once.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.subs.ReleaseAll()
	for id, a := range m.adapters {
		a.destroy()
		delete(m.adapters, id)
	}
	m.stage.Destroy()
	m.cells.Close()
	m.destroyed = true
}

// --- Queries (host ← canvas) ---

// Render compiles the scene and the active control handles to draw
// commands as JSON.
func (m *Manager) Render() string {
	commands := scene.Compile(m.stage.Node())
	for _, e := range m.api.Entities() {
		if a, ok := m.adapters[e.ID]; ok {
			commands = append(commands, scene.CompileHandles(a.transformer.Control(), handleSize)...)
		}
	}
	result, _ := scene.CommandsToJSON(commands)
	return result
}

// HitTest returns the id of the topmost entity under an absolute point, or
// "".
func (m *Manager) HitTest(x, y float64) string {
	hit := scene.HitTest(m.stage.Node(), geometry.Coordinate{X: x, Y: y})
	if hit == nil {
		return ""
	}
	id, _, _ := strings.Cut(hit.Name(), ":")
	if _, ok := m.adapters[id]; !ok {
		return ""
	}
	return id
}

func (m *Manager) StageAttrs() facade.StageAttrs {
	return m.cells.StageAttrs.Get()
}

// StateJSON returns the canonical state as JSON.
func (m *Manager) StateJSON() (string, error) {
	data, err := json.Marshal(m.store.GetState())
	if err != nil {
		return "{}", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

// Mode reports the interaction mode of an entity's transformer.
func (m *Manager) Mode(id string) (transformer.Mode, error) {
	a, err := m.adapter(id)
	if err != nil {
		return "", err
	}
	return a.transformer.Mode(), nil
}

// ImagePNG writes a raster from the registry.
func (m *Manager) ImagePNG(name string, w io.Writer) error {
	return m.registry.EncodePNG(name, w)
}

func (m *Manager) State() *facade.StateAPI  { return m.api }
func (m *Manager) Store() *store.Store      { return m.store }
func (m *Manager) Stage() *stage.Stage      { return m.stage }
func (m *Manager) Registry() *bake.Registry { return m.registry }

// --- Sync ---

// sync reconciles adapters with state after every applied action.
func (m *Manager) sync() {
	if m.opts.Level != nil {
		m.opts.Level.Set(m.api.LogLevel())
	}
	st := m.store.GetState()
	seen := make(map[string]bool)
	for _, e := range st.AllEntities() {
		seen[e.ID] = true
		a, ok := m.adapters[e.ID]
		if !ok {
			a = newEntityAdapter(m, e)
			m.adapters[e.ID] = a
		}
		// re-adding keeps layers in render order
		m.stage.Node().Add(a.layer)
		a.sync(e, st)
	}
	for id, a := range m.adapters {
		if !seen[id] {
			a.destroy()
			delete(m.adapters, id)
		}
	}
	m.syncStageDraggable()
}

// syncStageDraggable lets the stage pan with the view tool or while space
// is held.
func (m *Manager) syncStageDraggable() {
	m.stage.SetDraggable(m.api.Tool() == store.ToolView || m.cells.SpaceKey.Get())
}

func (m *Manager) adapter(id string) (*entityAdapter, error) {
	a, ok := m.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNoEntity)
	}
	return a, nil
}
