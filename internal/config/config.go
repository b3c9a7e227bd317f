package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/inamate/canvas-go/internal/canvas"
	"github.com/inamate/inamate/canvas-go/internal/facade"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	MinScale        float64 `envconfig:"CANVAS_MIN_SCALE" default:"0.1"`
	MaxScale        float64 `envconfig:"CANVAS_MAX_SCALE" default:"20"`
	FitPadding      float64 `envconfig:"CANVAS_FIT_PADDING" default:"20"`
	BBoxPadding     float64 `envconfig:"CANVAS_BBOX_PADDING" default:"5"`
	LogLevel        string  `envconfig:"CANVAS_LOG_LEVEL" default:"info"`
	ContainerWidth  float64 `envconfig:"CANVAS_CONTAINER_WIDTH" default:"1280"`
	ContainerHeight float64 `envconfig:"CANVAS_CONTAINER_HEIGHT" default:"720"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects scale bounds and paddings the stage cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.MinScale <= 0:
		return fmt.Errorf("%w: min scale %v must be positive", ErrInvalid, c.MinScale)
	case c.MaxScale < c.MinScale:
		return fmt.Errorf("%w: max scale %v below min scale %v", ErrInvalid, c.MaxScale, c.MinScale)
	case c.FitPadding < 0 || c.BBoxPadding < 0:
		return fmt.Errorf("%w: paddings must not be negative", ErrInvalid)
	}
	return nil
}

func (c *Config) Level() slog.Level {
	return facade.ParseLevel(c.LogLevel)
}

// CanvasOptions maps the settings onto a canvas manager.
func (c *Config) CanvasOptions() canvas.Options {
	opts := canvas.DefaultOptions()
	opts.Stage.MinScale = c.MinScale
	opts.Stage.MaxScale = c.MaxScale
	opts.Stage.FitPadding = c.FitPadding
	opts.Transformer.BBoxPadding = c.BBoxPadding
	opts.ContainerWidth = c.ContainerWidth
	opts.ContainerHeight = c.ContainerHeight
	return opts
}
