package renderer

import (
	"context"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU rasterizer. It needs no GPU or window surface and
	// produces the same ID encoding as the WebGPU backend.
	BackendTypeSoftware
)

func (t RendererBackendType) String() string {
	if t == BackendTypeSoftware {
		return "software"
	}
	return "wgpu"
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

// View is the per-viewport state a backend needs for one pass.
type View struct {
	ID         int
	Rect       common.Rect // placement inside the window, bottom-left origin
	ViewProj   [16]float32
	Background common.Color
}

// Width returns the view width in pixels.
func (v View) Width() int {
	return v.Rect.Width()
}

// Height returns the view height in pixels.
func (v View) Height() int {
	return v.Rect.Height()
}

// DrawItem is one object prepared for a pass: its tessellation, color, and the matrices of
// every instance in order.
type DrawItem struct {
	Object    game_object.GameObject
	Mesh      *Mesh
	Code      uint32
	Color     common.Color
	Instances [][]float32
	PointSize float32
}

// RendererBackend is the interface every backend implements.
type RendererBackend interface {
	// ConfigureSurface resizes the window-sized resources. Headless backends may ignore it.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode used on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// BeginFrame starts a display frame.
	//
	// Returns:
	//   - error: error if the frame could not be started
	BeginFrame() error

	// DrawView draws the display colors of one viewport into the current frame.
	// Safe to call concurrently for different viewports between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - ctx: cancels the draw
	//   - view: the viewport state
	//   - items: the visible objects in draw order
	//
	// Returns:
	//   - error: error if the draw fails
	DrawView(ctx context.Context, view View, items []DrawItem) error

	// EndFrame finishes and submits the display frame.
	EndFrame()

	// Present shows the finished frame.
	Present()

	// Encode runs one offscreen ID pass for a viewport into the target keyed by enc.Slot.
	//
	// Parameters:
	//   - ctx: cancels the pass
	//   - view: the viewport state, with ViewProj taken from the encoding
	//   - items: the batch objects in draw order, Code set per item
	//   - enc: the pass description
	//
	// Returns:
	//   - Target: the ID target of the pass
	//   - error: error if the pass fails
	Encode(ctx context.Context, view View, items []DrawItem, enc Encoding) (Target, error)

	// DepthTarget returns the depth of the most recent CaptureDepth pass of a viewport.
	//
	// Parameters:
	//   - viewID: the viewport ID
	//
	// Returns:
	//   - Target: a Depth32 target
	//   - error: error if no depth has been captured since the viewport was last resized
	DepthTarget(viewID int) (Target, error)

	// DisplayTarget returns the last display frame of a viewport for host-side presentation.
	//
	// Parameters:
	//   - viewID: the viewport ID
	//
	// Returns:
	//   - Target: an RGBA8 target
	//   - error: error if the backend cannot expose display pixels
	DisplayTarget(viewID int) (Target, error)

	// ReleaseView frees every target of a viewport.
	ReleaseView(viewID int)

	// Release frees every backend resource.
	Release()
}
