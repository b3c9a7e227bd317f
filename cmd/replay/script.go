package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"

	"github.com/inamate/inamate/canvas-go/internal/canvas"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

var (
	ErrUnknownOp     = errors.New("unknown op")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrRejected      = errors.New("rejected by canvas")
)

// Script is a recorded sequence of host interactions.
type Script struct {
	Steps []Step `json:"steps"`
}

// Step is one host interaction. Entity is an entity id or a kind alias
// (layer, rg, im, ca) naming the first entity of that kind.
type Step struct {
	Op     string  `json:"op"`
	Entity string  `json:"entity,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	Tool   string  `json:"tool,omitempty"`
	Anchor string  `json:"anchor,omitempty"`
	Shift  bool    `json:"shift,omitempty"`
	Ctrl   bool    `json:"ctrl,omitempty"`
	Meta   bool    `json:"meta,omitempty"`
	Alt    bool    `json:"alt,omitempty"`
	Space  bool    `json:"space,omitempty"`
}

var kindAliases = map[string]store.EntityKind{
	"layer":             store.KindLayer,
	"rg":                store.KindRegionalGuidance,
	"regional_guidance": store.KindRegionalGuidance,
	"im":                store.KindInpaintMask,
	"inpaint_mask":      store.KindInpaintMask,
	"ca":                store.KindControlAdapter,
	"control_adapter":   store.KindControlAdapter,
}

func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return &s, nil
}

type runner struct {
	m   *canvas.Manager
	out io.Writer
	log *slog.Logger
}

// Run applies every step in order and stops at the first failure. Render
// steps write one line of draw commands to out.
func Run(m *canvas.Manager, s *Script, out io.Writer, logger *slog.Logger) error {
	r := &runner{m: m, out: out, log: logger}
	for i, step := range s.Steps {
		if err := r.apply(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		r.log.Debug("step applied", "index", i, "op", step.Op)
	}
	return nil
}

func (r *runner) apply(s Step) error {
	switch s.Op {
	case "resize":
		r.m.ResizeContainer(s.Width, s.Height)
	case "zoom":
		r.m.Zoom(s.Scale, s.X, s.Y)
	case "pan":
		if !r.m.Pan(s.X, s.Y) {
			return fmt.Errorf("pan: %w", ErrRejected)
		}
	case "setTool":
		if !r.m.SetTool(store.Tool(s.Tool)) {
			return fmt.Errorf("tool %q: %w", s.Tool, ErrRejected)
		}
	case "select":
		if s.Entity == "" {
			return r.m.Select("")
		}
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		return r.m.Select(id)
	case "modifiers":
		r.m.SetModifiers(s.Shift, s.Ctrl, s.Meta, s.Alt, s.Space)
	case "pointer":
		r.m.PointerMove(s.X, s.Y)
	case "drag":
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		if !r.m.StartDrag(id) {
			return fmt.Errorf("drag %s: %w", id, ErrRejected)
		}
		r.m.DragBy(id, s.X, s.Y)
		r.m.EndDrag(id)
	case "anchor":
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		if !r.m.StartAnchorDrag(id, scene.Anchor(s.Anchor)) {
			return fmt.Errorf("anchor %s on %s: %w", s.Anchor, id, ErrRejected)
		}
		r.m.MoveAnchor(id, s.X, s.Y)
		r.m.EndAnchorDrag(id)
	case "startTransform", "applyTransform", "stopTransform":
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		switch s.Op {
		case "startTransform":
			return r.m.StartTransform(id)
		case "applyTransform":
			return r.m.ApplyTransform(id)
		default:
			return r.m.StopTransform(id)
		}
	case "fit":
		r.m.FitToContent()
	case "fitBBox":
		r.m.FitBBox()
	case "hitTest":
		r.log.Info("hit test", "x", s.X, "y", s.Y, "id", r.m.HitTest(s.X, s.Y))
	case "render":
		if _, err := fmt.Fprintln(r.out, r.m.Render()); err != nil {
			return fmt.Errorf("write render: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", s.Op, ErrUnknownOp)
	}
	return nil
}

// resolve maps an id or kind alias to an entity id.
func (r *runner) resolve(ref string) (string, error) {
	st := r.m.Store().GetState()
	kind, isAlias := kindAliases[ref]
	for _, e := range st.AllEntities() {
		if e.ID == ref || (isAlias && e.Kind == kind) {
			return e.ID, nil
		}
	}
	return "", fmt.Errorf("%q: %w", ref, ErrUnknownEntity)
}

// sampleImage is the raster behind the sample control adapter.
func sampleImage(size int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{R: 40, G: 40, B: 40, A: 255}
			if (x/16+y/16)%2 == 0 {
				c = color.RGBA{R: 220, G: 220, B: 220, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
