package facade

import (
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/reactive"
)

// StageAttrs mirrors the live viewport.
type StageAttrs struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// ProgressEvent is the last generation progress update seen by the canvas.
type ProgressEvent struct {
	SessionID string `json:"sessionId"`
	Step      int    `json:"step"`
	Total     int    `json:"totalSteps"`
	Image     string `json:"image,omitempty"`
}

// Cells is the bundle of ephemeral values that change at pointer rate and
// never enter the store. Create one per canvas and Close it on teardown.
type Cells struct {
	// CursorPos is nil while the pointer is off the stage.
	CursorPos         *reactive.Cell[*geometry.Coordinate]
	IsMouseDown       *reactive.Cell[bool]
	ShiftKey          *reactive.Cell[bool]
	CtrlKey           *reactive.Cell[bool]
	MetaKey           *reactive.Cell[bool]
	AltKey            *reactive.Cell[bool]
	SpaceKey          *reactive.Cell[bool]
	IsDrawing         *reactive.Cell[bool]
	LastProgressEvent *reactive.Cell[*ProgressEvent]
	StageAttrs        *reactive.Cell[StageAttrs]
}

func NewCells() *Cells {
	return &Cells{
		CursorPos:         reactive.NewCell[*geometry.Coordinate]("cursorPos", nil),
		IsMouseDown:       reactive.NewCell("isMouseDown", false),
		ShiftKey:          reactive.NewCell("shiftKey", false),
		CtrlKey:           reactive.NewCell("ctrlKey", false),
		MetaKey:           reactive.NewCell("metaKey", false),
		AltKey:            reactive.NewCell("altKey", false),
		SpaceKey:          reactive.NewCell("spaceKey", false),
		IsDrawing:         reactive.NewCell("isDrawing", false),
		LastProgressEvent: reactive.NewCell[*ProgressEvent]("lastProgressEvent", nil),
		StageAttrs:        reactive.NewCell("stageAttrs", StageAttrs{Scale: 1}),
	}
}

// Listeners sums the subscriptions across every cell.
func (c *Cells) Listeners() int {
	return c.CursorPos.Listeners() + c.IsMouseDown.Listeners() + c.ShiftKey.Listeners() +
		c.CtrlKey.Listeners() + c.MetaKey.Listeners() + c.AltKey.Listeners() +
		c.SpaceKey.Listeners() + c.IsDrawing.Listeners() + c.LastProgressEvent.Listeners() +
		c.StageAttrs.Listeners()
}

// Close detaches every listener and freezes the cells.
func (c *Cells) Close() {
	c.CursorPos.Close()
	c.IsMouseDown.Close()
	c.ShiftKey.Close()
	c.CtrlKey.Close()
	c.MetaKey.Close()
	c.AltKey.Close()
	c.SpaceKey.Close()
	c.IsDrawing.Close()
	c.LastProgressEvent.Close()
	c.StageAttrs.Close()
}
