// Command replay runs a JSON interaction script against the sample canvas
// and prints the resulting state.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/inamate/inamate/canvas-go/internal/canvas"
	"github.com/inamate/inamate/canvas-go/internal/config"
	"github.com/inamate/inamate/canvas-go/internal/store"
)

func main() {
	scriptPath := flag.String("script", "-", "script file, - for stdin")
	pngName := flag.String("png", "", "registry image to write as PNG after the run")
	pngOut := flag.String("png-out", "out.png", "destination for -png")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Level())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("session", uuid.NewString())
	slog.SetDefault(logger)

	var in io.Reader = os.Stdin
	if *scriptPath != "-" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			slog.Error("open script", "path", *scriptPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}
	script, err := ParseScript(in)
	if err != nil {
		slog.Error("parse script", "error", err)
		os.Exit(1)
	}

	opts := cfg.CanvasOptions()
	opts.Level = level
	m := canvas.New(store.NewSampleState(), opts, logger)
	defer m.Destroy()
	m.PutImage("control-sample", sampleImage(128))

	if err := Run(m, script, os.Stdout, logger); err != nil {
		slog.Error("replay failed", "error", err)
		os.Exit(1)
	}
	slog.Info("replay finished", "steps", len(script.Steps))

	if *pngName != "" {
		if err := writePNG(m, *pngName, *pngOut); err != nil {
			slog.Error("write png", "name", *pngName, "error", err)
			os.Exit(1)
		}
	}

	state, err := m.StateJSON()
	if err != nil {
		slog.Error("encode state", "error", err)
		os.Exit(1)
	}
	fmt.Println(state)
}

func writePNG(m *canvas.Manager, name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.ImagePNG(name, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
