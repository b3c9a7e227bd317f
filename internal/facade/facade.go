// Package facade is the only route from the interaction layer to canvas
// state: typed reads, entity-kind-polymorphic intents, and the ephemeral
// cells bundle.
package facade

import (
	"log/slog"
	"strings"

	"github.com/inamate/inamate/canvas-go/internal/reactive"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

// LevelTrace sits below slog.LevelDebug for per-frame interaction logs.
const LevelTrace = slog.LevelDebug - 4

// Store is the canonical state surface the façade wraps.
type Store interface {
	GetState() *store.State
	Dispatch(a store.Action) error
	Subscribe(fn func()) reactive.Release
	Version() int64
}

type StateAPI struct {
	store Store
	cells *Cells
	log   *slog.Logger

	// selected entity, resolved once per store version
	selVersion int64
	selValid   bool
	selEntity  *store.Entity
}

// New wraps st. A nil cells bundle gets a fresh one; a nil logger uses
// slog.Default.
func New(st Store, cells *Cells, logger *slog.Logger) *StateAPI {
	if cells == nil {
		cells = NewCells()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StateAPI{store: st, cells: cells, log: logger}
}

// Cells returns the ephemeral cells bundle.
func (a *StateAPI) Cells() *Cells {
	return a.cells
}

// Subscribe forwards to the store.
func (a *StateAPI) Subscribe(fn func()) reactive.Release {
	return a.store.Subscribe(fn)
}

func (a *StateAPI) getState() *store.State {
	return a.store.GetState()
}

// --- Reads ---

func (a *StateAPI) ToolState() store.ToolState {
	return a.getState().Tool
}

// Tool returns the active tool.
func (a *StateAPI) Tool() store.Tool {
	return a.getState().Tool.Selected
}

func (a *StateAPI) SelectedEntityIdentifier() *store.EntityIdentifier {
	return a.getState().SelectedEntity
}

// SelectedEntity resolves the selection across collections. It returns nil
// when nothing is selected or the identifier no longer resolves.
func (a *StateAPI) SelectedEntity() *store.Entity {
	v := a.store.Version()
	if a.selValid && a.selVersion == v {
		return a.selEntity
	}
	var e *store.Entity
	if ident := a.SelectedEntityIdentifier(); ident != nil {
		e = a.getState().Entity(ident.Kind, ident.ID)
		if e == nil {
			a.log.Debug("selected entity does not resolve", "id", ident.ID, "kind", ident.Kind)
		}
	}
	a.selVersion, a.selValid, a.selEntity = v, true, e
	return e
}

// IsSelected reports whether id is the selected entity.
func (a *StateAPI) IsSelected(id string) bool {
	ident := a.SelectedEntityIdentifier()
	return ident != nil && ident.ID == id
}

// CurrentFill is the paint color for new strokes. Regional guidance paints
// with its own fill and inpaint masks with the global mask fill, both at the
// mask opacity; everything else uses the tool fill.
func (a *StateAPI) CurrentFill() store.RgbaColor {
	s := a.getState()
	fill := s.Tool.Fill
	if e := a.SelectedEntity(); e != nil {
		switch e.Kind {
		case store.KindRegionalGuidance:
			fill = e.Fill.WithAlpha(s.Settings.MaskOpacity)
		case store.KindInpaintMask:
			fill = s.Settings.InpaintMaskFill.WithAlpha(s.Settings.MaskOpacity)
		}
	}
	return fill
}

func (a *StateAPI) BBox() store.BBoxState {
	return a.getState().BBox
}

func (a *StateAPI) Layers() []store.Entity {
	return a.getState().Layers
}

func (a *StateAPI) RegionalGuidance() []store.Entity {
	return a.getState().RegionalGuidance
}

func (a *StateAPI) InpaintMasks() []store.Entity {
	return a.getState().InpaintMasks
}

func (a *StateAPI) ControlAdapters() []store.Entity {
	return a.getState().ControlAdapters
}

// Entities returns every entity across collections in render order.
func (a *StateAPI) Entities() []*store.Entity {
	return a.getState().AllEntities()
}

// Entity looks up one entity; nil when missing.
func (a *StateAPI) Entity(kind store.EntityKind, id string) *store.Entity {
	return a.getState().Entity(kind, id)
}

// LogLevel maps the configured verbosity to a slog level. Unknown values
// fall back to info.
func (a *StateAPI) LogLevel() slog.Level {
	return ParseLevel(a.getState().Settings.LogLevel)
}

// ParseLevel understands trace|debug|info|warn|error.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
