package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/config"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/selector"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = frameInterval(fps)
	}
}

// WithWindow sets the window the engine renders into and takes input from.
// The window size overrides WithSize.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the render engine. Required.
//
// Parameters:
//   - r: the renderer that draws and encodes every viewport
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithSize sets the drawable size of a headless engine.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.width, e.height = width, height
	}
}

// WithGrid splits the window into columns x rows viewports.
//
// Parameters:
//   - columns, rows: the grid shape (default 1x1)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGrid(columns, rows int) EngineBuilderOption {
	return func(e *engine) {
		e.columns, e.rows = columns, rows
	}
}

// WithViewportSetup sets the function that creates the viewport of each tile, usually with
// its own camera and scene. The default creates an empty viewport with an orbit camera.
//
// Parameters:
//   - setup: called once per tile in tile order
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithViewportSetup(setup ViewportSetup) EngineBuilderOption {
	return func(e *engine) {
		e.setup = setup
	}
}

// WithSelector sets a pre-built selector. Options from WithSelectorOptions are then ignored.
func WithSelector(s selector.Selector) EngineBuilderOption {
	return func(e *engine) {
		e.selector = s
	}
}

// WithSelectorOptions appends options for the selector the engine builds over its renderer.
//
// Parameters:
//   - options: selector options such as selector.WithFieldAssociation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSelectorOptions(options ...selector.SelectorBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.selectorOptions = append(e.selectorOptions, options...)
	}
}

// WithPickThrottle sets the minimum interval between mouse picks (default 20ms).
//
// Parameters:
//   - d: the interval, 0 picks on every tick with cursor movement
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPickThrottle(d time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if d < 0 {
			d = 0
		}
		e.throttle = d
	}
}

// WithHighlightColors sets the color of unpicked objects and of the picked object.
//
// Parameters:
//   - base: the color every object is reset to (default common.ColorWhite)
//   - picked: the color of the picked object (default common.ColorPicked)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHighlightColors(base, picked common.Color) EngineBuilderOption {
	return func(e *engine) {
		e.baseColor, e.highlightColor = base, picked
	}
}

// WithGlyphScales sets the instance scale of glyphs at rest and of the picked glyph.
//
// Parameters:
//   - rest: the scale every instance is reset to (default 0.5)
//   - picked: the scale of the picked instance (default 0.7)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGlyphScales(rest, picked float32) EngineBuilderOption {
	return func(e *engine) {
		e.glyphScale, e.glyphPicked = rest, picked
	}
}

// WithCursor sets the object moved to the snapped pick position. Picking is disabled on it
// and it is hidden while nothing is picked.
//
// Parameters:
//   - cursor: the cursor object, usually a small sphere added to each scene that shows it
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCursor(cursor game_object.GameObject) EngineBuilderOption {
	return func(e *engine) {
		cursor.SetPickingEnabled(false)
		cursor.SetVisible(false)
		e.cursor = cursor
	}
}

// WithConfig applies the grid, picking and profiling settings of a configuration.
//
// Parameters:
//   - cfg: a validated configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.columns, e.rows = cfg.Window.Columns, cfg.Window.Rows
		e.width, e.height = cfg.Window.Width, cfg.Window.Height
		e.throttle = cfg.Throttle()
		e.glyphPicked = cfg.Scene.GlyphScale
		e.selectorOptions = append(e.selectorOptions, cfg.SelectorOptions()...)
		if cfg.Scene.ProfileSeconds > 0 {
			e.profiler = profiler.NewProfiler(profiler.WithUpdateInterval(time.Duration(cfg.Scene.ProfileSeconds) * time.Second))
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit.Store(0)
			return
		}
		e.renderFrameLimit.Store(int64(frameInterval(fps)))
	}
}
