//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/google/uuid"

	"github.com/inamate/inamate/canvas-go/internal/canvas"
	"github.com/inamate/inamate/canvas-go/internal/config"
	"github.com/inamate/inamate/canvas-go/internal/scene"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

var (
	mgr    *canvas.Manager
	opts   canvas.Options
	logger *slog.Logger
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level := new(slog.LevelVar)
	level.Set(cfg.Level())
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("session", uuid.NewString())
	slog.SetDefault(logger)

	opts = cfg.CanvasOptions()
	opts.Level = level
	mgr = canvas.New(store.NewSampleState(), opts, logger)

	// Create the canvas API object
	canvasAPI := js.Global().Get("Object").New()

	// --- Commands (host → canvas) ---
	canvasAPI.Set("loadState", js.FuncOf(loadState))
	canvasAPI.Set("loadSampleState", js.FuncOf(loadSampleState))
	canvasAPI.Set("resizeContainer", js.FuncOf(resizeContainer))
	canvasAPI.Set("pointerMove", js.FuncOf(pointerMove))
	canvasAPI.Set("pointerLeave", js.FuncOf(pointerLeave))
	canvasAPI.Set("setMouseDown", js.FuncOf(setMouseDown))
	canvasAPI.Set("setModifiers", js.FuncOf(setModifiers))
	canvasAPI.Set("zoom", js.FuncOf(zoom))
	canvasAPI.Set("pan", js.FuncOf(pan))
	canvasAPI.Set("fitToContent", js.FuncOf(fitToContent))
	canvasAPI.Set("fitBBox", js.FuncOf(fitBBox))
	canvasAPI.Set("setTool", js.FuncOf(setTool))
	canvasAPI.Set("select", js.FuncOf(selectEntity))
	canvasAPI.Set("startDrag", js.FuncOf(startDrag))
	canvasAPI.Set("dragBy", js.FuncOf(dragBy))
	canvasAPI.Set("endDrag", js.FuncOf(endDrag))
	canvasAPI.Set("startAnchorDrag", js.FuncOf(startAnchorDrag))
	canvasAPI.Set("moveAnchor", js.FuncOf(moveAnchor))
	canvasAPI.Set("endAnchorDrag", js.FuncOf(endAnchorDrag))
	canvasAPI.Set("startTransform", js.FuncOf(startTransform))
	canvasAPI.Set("applyTransform", js.FuncOf(applyTransform))
	canvasAPI.Set("stopTransform", js.FuncOf(stopTransform))
	canvasAPI.Set("putImage", js.FuncOf(putImage))

	// --- Queries (host ← canvas) ---
	canvasAPI.Set("render", js.FuncOf(render))
	canvasAPI.Set("hitTest", js.FuncOf(hitTest))
	canvasAPI.Set("getStageAttrs", js.FuncOf(getStageAttrs))
	canvasAPI.Set("getState", js.FuncOf(getState))
	canvasAPI.Set("getMode", js.FuncOf(getMode))
	canvasAPI.Set("getImagePNG", js.FuncOf(getImagePNG))

	js.Global().Set("canvasEngine", canvasAPI)
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func okResult() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func replace(st *store.State) {
	mgr.Destroy()
	mgr = canvas.New(st, opts, logger)
}

// --- Command Handlers ---

func loadState(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing state JSON"})
	}
	var st store.State
	if err := json.Unmarshal([]byte(args[0].String()), &st); err != nil {
		return errorResult(err)
	}
	replace(&st)
	return okResult()
}

func loadSampleState(this js.Value, args []js.Value) interface{} {
	replace(store.NewSampleState())
	return okResult()
}

func resizeContainer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	mgr.ResizeContainer(args[0].Float(), args[1].Float())
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	mgr.PointerMove(args[0].Float(), args[1].Float())
	return nil
}

func pointerLeave(this js.Value, args []js.Value) interface{} {
	mgr.PointerLeave()
	return nil
}

func setMouseDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	mgr.SetMouseDown(args[0].Bool())
	return nil
}

// setModifiers takes a {shift, ctrl, meta, alt, space} object.
func setModifiers(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return nil
	}
	keys := args[0]
	held := func(name string) bool {
		v := keys.Get(name)
		return v.Type() == js.TypeBoolean && v.Bool()
	}
	mgr.SetModifiers(held("shift"), held("ctrl"), held("meta"), held("alt"), held("space"))
	return nil
}

func zoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	mgr.Zoom(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func pan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(mgr.Pan(args[0].Float(), args[1].Float()))
}

func fitToContent(this js.Value, args []js.Value) interface{} {
	mgr.FitToContent()
	return nil
}

func fitBBox(this js.Value, args []js.Value) interface{} {
	mgr.FitBBox()
	return nil
}

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(mgr.SetTool(store.Tool(args[0].String())))
}

func selectEntity(this js.Value, args []js.Value) interface{} {
	id := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		id = args[0].String()
	}
	if err := mgr.Select(id); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func startDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(mgr.StartDrag(args[0].String()))
}

func dragBy(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(mgr.DragBy(args[0].String(), args[1].Float(), args[2].Float()))
}

func endDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	mgr.EndDrag(args[0].String())
	return nil
}

func startAnchorDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(mgr.StartAnchorDrag(args[0].String(), scene.Anchor(args[1].String())))
}

func moveAnchor(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(mgr.MoveAnchor(args[0].String(), args[1].Float(), args[2].Float()))
}

func endAnchorDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	mgr.EndAnchorDrag(args[0].String())
	return nil
}

func startTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing entity id"})
	}
	if err := mgr.StartTransform(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func applyTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing entity id"})
	}
	if err := mgr.ApplyTransform(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

func stopTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing entity id"})
	}
	if err := mgr.StopTransform(args[0].String()); err != nil {
		return errorResult(err)
	}
	return okResult()
}

// putImage takes a name and a Uint8Array of PNG bytes.
func putImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "missing image name or data"})
	}
	data := make([]byte, args[1].Get("length").Int())
	js.CopyBytesToGo(data, args[1])
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return errorResult(err)
	}
	mgr.PutImage(args[0].String(), img)
	return okResult()
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(mgr.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(mgr.HitTest(args[0].Float(), args[1].Float()))
}

func getStageAttrs(this js.Value, args []js.Value) interface{} {
	attrs := mgr.StageAttrs()
	return js.ValueOf(map[string]interface{}{
		"x":      attrs.X,
		"y":      attrs.Y,
		"width":  attrs.Width,
		"height": attrs.Height,
		"scale":  attrs.Scale,
	})
}

func getState(this js.Value, args []js.Value) interface{} {
	state, err := mgr.StateJSON()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(state)
}

func getMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	mode, err := mgr.Mode(args[0].String())
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(mode))
}

// getImagePNG returns a Uint8Array holding the PNG encoding of a registry
// image.
func getImagePNG(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing image name"})
	}
	var buf bytes.Buffer
	if err := mgr.ImagePNG(args[0].String(), &buf); err != nil {
		return errorResult(err)
	}
	out := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(out, buf.Bytes())
	return out
}
