package config

import (
	"errors"
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinScale != 0.1 || cfg.MaxScale != 20 || cfg.FitPadding != 20 || cfg.BBoxPadding != 5 {
		t.Errorf("Load() = %+v, want stage defaults", cfg)
	}
	if cfg.ContainerWidth != 1280 || cfg.ContainerHeight != 720 {
		t.Errorf("container = %v x %v, want 1280 x 720", cfg.ContainerWidth, cfg.ContainerHeight)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CANVAS_MAX_SCALE", "8")
	t.Setenv("CANVAS_BBOX_PADDING", "3")
	t.Setenv("CANVAS_LOG_LEVEL", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	opts := cfg.CanvasOptions()
	if opts.Stage.MaxScale != 8 || opts.Transformer.BBoxPadding != 3 {
		t.Errorf("CanvasOptions() = %+v, want max scale 8 and padding 3", opts)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
}

func TestLoadRejectsBadBounds(t *testing.T) {
	tests := map[string]string{
		"CANVAS_MIN_SCALE":   "0",
		"CANVAS_MAX_SCALE":   "0.05",
		"CANVAS_FIT_PADDING": "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Setenv("CANVAS_MIN_SCALE", "tiny")
	if _, err := Load(); err == nil {
		t.Error("Load() = nil error for a non-numeric scale")
	}
}
