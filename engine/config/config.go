package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/selector"
	"github.com/pelletier/go-toml/v2"
)

// Config is the TOML configuration of the picking demos. Every field has a default, so an
// empty file is valid.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Picking  PickingConfig  `toml:"picking"`
	Scene    SceneConfig    `toml:"scene"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig sizes the window and its viewport grid.
type WindowConfig struct {
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Columns int    `toml:"columns"`
	Rows    int    `toml:"rows"`
}

// RendererConfig selects the render backend.
type RendererConfig struct {
	// Backend is "wgpu" or "software".
	Backend string `toml:"backend"`
	VSync   bool   `toml:"vsync"`
	// ForceFallbackAdapter asks wgpu for its software adapter.
	ForceFallbackAdapter bool `toml:"force_fallback_adapter"`
}

// PickingConfig configures the selector and the mouse pick loop.
type PickingConfig struct {
	Association   selector.FieldAssociation `toml:"association"`
	CaptureZ      bool                      `toml:"capture_z"`
	ThrottleMS    int                       `toml:"throttle_ms"`
	BatchCapacity int                       `toml:"batch_capacity"`
	QueueSize     int                       `toml:"queue_size"`
}

// SceneConfig controls the demo scene of every tile.
type SceneConfig struct {
	GlyphScale     float32 `toml:"glyph_scale"`
	SphereTheta    int     `toml:"sphere_theta"`
	SpherePhi      int     `toml:"sphere_phi"`
	ProfileSeconds int     `toml:"profile_seconds"`
}

// LogConfig sets the zap log level ("debug", "info", "warn", "error").
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given: an 8x8 grid of tiles, the
// wgpu backend, cell picking throttled to 20 ms.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:   "oxy-pick",
			Width:   1024,
			Height:  1024,
			Columns: 8,
			Rows:    8,
		},
		Renderer: RendererConfig{
			Backend: renderer.BackendTypeWGPU.String(),
			VSync:   true,
		},
		Picking: PickingConfig{
			Association: selector.AssociationCells,
			ThrottleMS:  20,
			QueueSize:   256,
		},
		Scene: SceneConfig{
			GlyphScale:     0.7,
			SphereTheta:    16,
			SpherePhi:      16,
			ProfileSeconds: 1,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Parse decodes TOML on top of the defaults. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded and validated configuration
//   - error: a decode or validation error
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Load reads and parses a TOML file. An empty path returns the defaults.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks ranges that the zero value cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.Columns <= 0 || c.Window.Rows <= 0 {
		errs = append(errs, fmt.Errorf("grid %dx%d must be positive", c.Window.Columns, c.Window.Rows))
	} else if c.Window.Columns > c.Window.Width || c.Window.Rows > c.Window.Height {
		errs = append(errs, fmt.Errorf("grid %dx%d does not fit a %dx%d window",
			c.Window.Columns, c.Window.Rows, c.Window.Width, c.Window.Height))
	}
	if _, err := c.BackendType(); err != nil {
		errs = append(errs, err)
	}
	if c.Picking.ThrottleMS < 0 {
		errs = append(errs, fmt.Errorf("throttle_ms %d must not be negative", c.Picking.ThrottleMS))
	}
	if c.Picking.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue_size %d must be positive", c.Picking.QueueSize))
	}
	if c.Scene.GlyphScale <= 0 {
		errs = append(errs, fmt.Errorf("glyph_scale %g must be positive", c.Scene.GlyphScale))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// BackendType maps Renderer.Backend to a renderer backend.
func (c Config) BackendType() (renderer.RendererBackendType, error) {
	switch strings.ToLower(c.Renderer.Backend) {
	case "", "wgpu":
		return renderer.BackendTypeWGPU, nil
	case "software":
		return renderer.BackendTypeSoftware, nil
	default:
		return renderer.BackendTypeWGPU, fmt.Errorf("unknown renderer backend %q", c.Renderer.Backend)
	}
}

// PresentMode maps Renderer.VSync to a present mode.
func (c Config) PresentMode() renderer.PresentMode {
	if c.Renderer.VSync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}

// Throttle returns the minimum interval between mouse picks.
func (c Config) Throttle() time.Duration {
	return time.Duration(c.Picking.ThrottleMS) * time.Millisecond
}

// SelectorOptions returns the selector options the picking section describes.
//
// Returns:
//   - []selector.SelectorBuilderOption: options for selector.NewSelector
func (c Config) SelectorOptions() []selector.SelectorBuilderOption {
	opts := []selector.SelectorBuilderOption{
		selector.WithFieldAssociation(c.Picking.Association),
		selector.WithCaptureZValues(c.Picking.CaptureZ),
		selector.WithQueueSize(c.Picking.QueueSize),
	}
	if c.Picking.BatchCapacity > 0 {
		opts = append(opts, selector.WithBatchCapacity(c.Picking.BatchCapacity))
	}
	return opts
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
