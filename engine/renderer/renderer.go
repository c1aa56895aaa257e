package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/viewport"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
	"go.uber.org/zap"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	meshes      *meshCache

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingBackend       RendererBackend
}

// Renderer is the render engine shared by the display loop and the picking subsystem.
//
// Display frames are drawn with BeginFrame, one Render per viewport, EndFrame and Present.
// Picking uses RenderOffscreen, which draws an Encoding into an offscreen target without
// touching the display, and DepthBuffer, which exposes the depth captured by the most recent
// pass that asked for it.
type Renderer interface {
	// BackendType returns the backend the renderer was built with.
	BackendType() RendererBackendType

	// Resize reconfigures the window surface after the window size changes.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A Resize is required for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// BeginFrame starts a display frame. Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginFrame() error

	// Render draws the display pass of one viewport and marks the viewport rendered for the
	// generation it had when the draw started. Safe to call concurrently for different viewports.
	//
	// Parameters:
	//   - ctx: cancels the draw
	//   - vp: the viewport to draw
	//
	// Returns:
	//   - error: an error if the draw fails
	Render(ctx context.Context, vp viewport.Viewport) error

	// EndFrame finishes and submits the display frame.
	EndFrame()

	// Present presents the finished frame. Must be called once per frame after EndFrame.
	Present()

	// RenderOffscreen draws one ID encoding pass of a viewport into an offscreen target.
	// Objects are drawn in the order of enc.Draws with enc.ViewProj; display colors are
	// never read or written.
	//
	// Parameters:
	//   - ctx: cancels the pass
	//   - vp: the viewport whose size and placement the target matches
	//   - enc: the pass description
	//
	// Returns:
	//   - Target: the encoded RGBA8 target
	//   - error: an error if the pass fails
	RenderOffscreen(ctx context.Context, vp viewport.Viewport, enc Encoding) (Target, error)

	// DepthBuffer returns the depth target of the last offscreen pass with CaptureDepth set.
	//
	// Parameters:
	//   - ctx: cancels the request
	//   - vp: the viewport
	//
	// Returns:
	//   - Target: a Depth32 target
	//   - error: an error if no depth was captured
	DepthBuffer(ctx context.Context, vp viewport.Viewport) (Target, error)

	// DisplayBuffer returns the last display frame of a viewport for host-side presentation.
	// Only backends that render into host memory support it.
	//
	// Parameters:
	//   - ctx: cancels the request
	//   - vp: the viewport
	//
	// Returns:
	//   - Target: an RGBA8 target
	//   - error: an error if the backend keeps display pixels on the GPU
	DisplayBuffer(ctx context.Context, vp viewport.Viewport) (Target, error)

	// ReleaseViewport frees the targets held for a viewport.
	//
	// Parameters:
	//   - vp: the viewport
	ReleaseViewport(vp viewport.Viewport)

	// Release frees every backend resource.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type. The window supplies the
// surface for the WebGPU backend; pass nil for a headless renderer whose only output is
// offscreen targets.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - win: the window to present into, or nil
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the backend could not acquire a device
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		meshes:      newMeshCache(),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch {
	case r.pendingBackend != nil:
		r.backend = r.pendingBackend
	case backendType == BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend()
	default:
		b, err := newWGPURendererBackend(win, r.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("create wgpu backend: %w", err)
		}
		r.backend = b
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if win != nil {
		r.backend.ConfigureSurface(win.Width(), win.Height())
	}
	common.Logger().Info("renderer ready", zap.Stringer("backend", backendType))
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) Render(ctx context.Context, vp viewport.Viewport) error {
	gen := vp.Generation()
	viewProj := vp.Camera().ViewProjectionMatrix()

	visible := vp.Scene().Visible(viewProj)
	items := make([]DrawItem, 0, len(visible))
	for _, obj := range visible {
		items = append(items, r.item(obj, 0))
	}

	if err := r.backend.DrawView(ctx, r.view(vp, viewProj), items); err != nil {
		return fmt.Errorf("draw viewport %d: %w", vp.ID(), err)
	}
	vp.MarkRendered(gen)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) RenderOffscreen(ctx context.Context, vp viewport.Viewport, enc Encoding) (Target, error) {
	items := make([]DrawItem, 0, len(enc.Draws))
	for _, d := range enc.Draws {
		items = append(items, r.item(d.Object, d.Code))
	}
	t, err := r.backend.Encode(ctx, r.view(vp, enc.ViewProj), items, enc)
	if err != nil {
		return nil, fmt.Errorf("encode %s pass for viewport %d: %w", enc.Quantity, vp.ID(), err)
	}
	return t, nil
}

func (r *renderer) DepthBuffer(ctx context.Context, vp viewport.Viewport) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.backend.DepthTarget(vp.ID())
}

func (r *renderer) DisplayBuffer(ctx context.Context, vp viewport.Viewport) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.backend.DisplayTarget(vp.ID())
}

func (r *renderer) ReleaseViewport(vp viewport.Viewport) {
	r.backend.ReleaseView(vp.ID())
}

func (r *renderer) Release() {
	r.backend.Release()
}

func (r *renderer) view(vp viewport.Viewport, viewProj [16]float32) View {
	return View{
		ID:         vp.ID(),
		Rect:       vp.Rect(),
		ViewProj:   viewProj,
		Background: vp.Background(),
	}
}

func (r *renderer) item(obj game_object.GameObject, code uint32) DrawItem {
	n := obj.InstanceCount()
	instances := make([][]float32, n)
	for i := range instances {
		instances[i] = obj.InstanceMatrix(i)
	}
	return DrawItem{
		Object:    obj,
		Mesh:      r.meshes.get(obj.Model(), obj.Representation()),
		Code:      code,
		Color:     obj.Color(),
		Instances: instances,
		PointSize: obj.PointSize(),
	}
}
