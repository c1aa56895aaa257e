package viewport

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

type viewportImpl struct {
	mu *sync.Mutex

	id         int
	rect       common.Rect
	background common.Color
	cam        camera.Camera
	scn        scene.Scene

	generation uint64
	rendered   bool
}

// Viewport is one rectangular tile of a window with its own camera and scene. It tracks a
// size generation that advances on every Resize, and whether a frame has been rendered since
// the last resize. Pick buffers encoded under an older generation are stale.
type Viewport interface {
	// ID returns the viewport's index within its window.
	ID() int

	// Rect returns the viewport's rectangle in window pixels (bottom-left origin).
	//
	// Returns:
	//   - common.Rect: the inclusive pixel rectangle
	Rect() common.Rect

	// Width returns the viewport width in pixels.
	Width() int

	// Height returns the viewport height in pixels.
	Height() int

	// Background returns the clear color of the display pass.
	Background() common.Color

	// Camera returns the viewport's camera.
	Camera() camera.Camera

	// Scene returns the scene drawn into the viewport.
	Scene() scene.Scene

	// Resize moves the viewport to a new rectangle, updates the camera aspect, advances the
	// generation, and clears the rendered flag.
	//
	// Parameters:
	//   - rect: the new rectangle in window pixels
	Resize(rect common.Rect)

	// Generation returns the current size generation. It starts at 1.
	//
	// Returns:
	//   - uint64: the generation
	Generation() uint64

	// MarkRendered records that a display frame was rendered for the given generation.
	// A mark for an older generation is ignored.
	//
	// Parameters:
	//   - generation: the generation the frame was rendered at
	MarkRendered(generation uint64)

	// Rendered reports whether a frame has been rendered since the last resize.
	Rendered() bool

	// Pickable reports whether the viewport can serve a pick right now: rendered since the
	// last resize and the camera is not animating.
	Pickable() bool
}

var _ Viewport = &viewportImpl{}

// NewViewport creates a Viewport. A camera is required; building without one panics.
// When no scene is supplied an empty one is created.
//
// Parameters:
//   - id: the viewport index within its window
//   - rect: the viewport rectangle in window pixels
//   - options: functional options to configure the viewport
//
// Returns:
//   - Viewport: the newly created viewport
func NewViewport(id int, rect common.Rect, options ...ViewportBuilderOption) Viewport {
	if rect.Inverted() {
		panic("viewport: inverted rectangle " + rect.String())
	}
	v := &viewportImpl{
		mu:         &sync.Mutex{},
		id:         id,
		rect:       rect,
		background: common.ColorBackground,
		generation: 1,
	}
	for _, option := range options {
		option(v)
	}
	if v.cam == nil {
		panic("viewport: NewViewport requires a non-nil Camera")
	}
	if v.scn == nil {
		v.scn = scene.NewScene("viewport")
	}
	v.cam.SetAspect(float32(rect.Width()) / float32(rect.Height()))
	return v
}

func (v *viewportImpl) ID() int {
	return v.id
}

func (v *viewportImpl) Rect() common.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rect
}

func (v *viewportImpl) Width() int {
	return v.Rect().Width()
}

func (v *viewportImpl) Height() int {
	return v.Rect().Height()
}

func (v *viewportImpl) Background() common.Color {
	return v.background
}

func (v *viewportImpl) Camera() camera.Camera {
	return v.cam
}

func (v *viewportImpl) Scene() scene.Scene {
	return v.scn
}

func (v *viewportImpl) Resize(rect common.Rect) {
	if rect.Inverted() {
		return
	}
	v.mu.Lock()
	v.rect = rect
	v.generation++
	v.rendered = false
	v.mu.Unlock()
	v.cam.SetAspect(float32(rect.Width()) / float32(rect.Height()))
}

func (v *viewportImpl) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

func (v *viewportImpl) MarkRendered(generation uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation == v.generation {
		v.rendered = true
	}
}

func (v *viewportImpl) Rendered() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rendered
}

func (v *viewportImpl) Pickable() bool {
	return v.Rendered() && !v.cam.Animating()
}
