package renderer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

//go:embed assets/pick.wgsl
var pickShaderSource string

const (
	encodeFormat    = wgpu.TextureFormatRGBA8Unorm
	depthCopyFormat = wgpu.TextureFormatR32Float
	depthFormat     = wgpu.TextureFormatDepth32Float

	// headlessFormat stands in for the surface format when no window is attached.
	headlessFormat = wgpu.TextureFormatRGBA8Unorm
)

var errNoDevice = errors.New("wgpu backend has been released")

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface // nil when headless

	surfaceFormat    wgpu.TextureFormat
	surfaceWidth     int
	surfaceHeight    int
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	shader             *wgpu.ShaderModule
	cameraLayout       *wgpu.BindGroupLayout
	drawLayout         *wgpu.BindGroupLayout
	pipelineLayout     *wgpu.PipelineLayout
	backgroundPipeline *wgpu.RenderPipeline
	displayPipelines   map[model.Topology]*wgpu.RenderPipeline
	encodePipelines    map[model.Topology]*wgpu.RenderPipeline

	meshes map[*Mesh]*gpuMesh
	views  map[int]*wgpuView

	// Frame state for batching every viewport's display draws into one pass
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// retired holds resources replaced while a frame pass may still reference them
	retired []func()
}

// gpuMesh holds the uploaded vertex stream of every topology of a Mesh.
type gpuMesh struct {
	buffers map[model.Topology]*wgpu.Buffer
	counts  map[model.Topology]uint32
}

// uniformSet is a camera uniform plus a dynamic-offset draw uniform buffer.
type uniformSet struct {
	camera      *wgpu.Buffer
	cameraGroup *wgpu.BindGroup
	draws       *wgpu.Buffer
	drawGroup   *wgpu.BindGroup
	capacity    int
}

// encodeSlot is one offscreen target set: the packed ID color, a float copy of depth that can
// be read back, and the depth attachment used for the depth test.
type encodeSlot struct {
	width, height int

	id            *wgpu.Texture
	idView        *wgpu.TextureView
	depthCopy     *wgpu.Texture
	depthCopyView *wgpu.TextureView
	depth         *wgpu.Texture
	depthView     *wgpu.TextureView
}

type wgpuView struct {
	display *uniformSet
	encode  *uniformSet
	slots   map[int]*encodeSlot

	width, height int
	depth         Target
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend acquires an adapter and device, compatible with the window surface
// when a window is given, and builds the display and encoding pipelines.
func newWGPURendererBackend(win window.Window, forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:               &sync.Mutex{},
		instance:         wgpu.CreateInstance(nil),
		presentMode:      wgpu.PresentModeImmediate,
		surfaceFormat:    headlessFormat,
		displayPipelines: make(map[model.Topology]*wgpu.RenderPipeline),
		encodePipelines:  make(map[model.Topology]*wgpu.RenderPipeline),
		meshes:           make(map[*Mesh]*gpuMesh),
		views:            make(map[int]*wgpuView),
	}

	if win != nil {
		if desc := win.SurfaceDescriptor(); desc != nil {
			b.surface = b.instance.CreateSurface(desc)
		}
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Pick Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if b.surface != nil {
		capabilities := b.surface.GetCapabilities(b.adapter)
		b.surfaceFormat = capabilities.Formats[0]
	}

	if err := b.createPipelines(); err != nil {
		return nil, err
	}
	common.Logger().Info("wgpu device ready",
		zap.Bool("headless", b.surface == nil),
		zap.Bool("fallbackAdapter", forceFallbackAdapter))
	return b, nil
}

func (b *wgpuRendererBackendImpl) createPipelines() error {
	var err error
	b.shader, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "pick.wgsl",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: pickShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	b.cameraLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: 64,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("create camera bind group layout: %w", err)
	}

	b.drawLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Draw Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   drawUniformSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("create draw bind group layout: %w", err)
	}

	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Pick Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.cameraLayout, b.drawLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	topologies := map[model.Topology]wgpu.PrimitiveTopology{
		model.TopologyTriangle: wgpu.PrimitiveTopologyTriangleList,
		model.TopologySegment:  wgpu.PrimitiveTopologyLineList,
		// TODO: expand point primitives into screen-aligned quads so PointSize applies on the GPU.
		model.TopologyPoint: wgpu.PrimitiveTopologyPointList,
	}
	for top, prim := range topologies {
		display, err := b.createRenderPipeline(top.String()+" display", prim, "vs_main", "fs_display",
			[]wgpu.ColorTargetState{{Format: b.surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll}}, true)
		if err != nil {
			return err
		}
		b.displayPipelines[top] = display

		encode, err := b.createRenderPipeline(top.String()+" encode", prim, "vs_main", "fs_encode",
			[]wgpu.ColorTargetState{
				{Format: encodeFormat, WriteMask: wgpu.ColorWriteMaskAll},
				{Format: depthCopyFormat, WriteMask: wgpu.ColorWriteMaskAll},
			}, true)
		if err != nil {
			return err
		}
		b.encodePipelines[top] = encode
	}

	b.backgroundPipeline, err = b.createRenderPipeline("background", wgpu.PrimitiveTopologyTriangleList,
		"vs_background", "fs_display",
		[]wgpu.ColorTargetState{{Format: b.surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll}}, false)
	return err
}

func (b *wgpuRendererBackendImpl) createRenderPipeline(
	label string,
	topology wgpu.PrimitiveTopology,
	vertexEntry, fragmentEntry string,
	targets []wgpu.ColorTargetState,
	depthTest bool,
) (*wgpu.RenderPipeline, error) {
	var buffers []wgpu.VertexBufferLayout
	if vertexEntry == "vs_main" {
		var v model.GPUPickVertex
		buffers = []wgpu.VertexBufferLayout{{
			ArrayStride: uint64(v.Size()),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				{Format: wgpu.VertexFormatUint32, Offset: 24, ShaderLocation: 2},
				{Format: wgpu.VertexFormatUint32x3, Offset: 28, ShaderLocation: 3},
			},
		}}
	}

	depthCompare := wgpu.CompareFunctionLess
	if !depthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     b.shader,
			EntryPoint: vertexEntry,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.shader,
			EntryPoint: fragmentEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: depthTest,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	return created, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	var err error
	b.depthTexture, b.depthTextureView, err = b.createTexture("Display Depth Texture", width, height,
		depthFormat, wgpu.TextureUsageRenderAttachment)
	if err != nil {
		panic(err)
	}
	b.surfaceWidth, b.surfaceHeight = width, height
	common.Logger().Info("surface configured", zap.Int("width", width), zap.Int("height", height))
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || b.depthTextureView == nil {
		return nil
	}
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	bg := common.ColorBackground
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(bg[0]), G: float64(bg[1]), B: float64(bg[2]), A: float64(bg[3]),
			},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) DrawView(ctx context.Context, view View, items []DrawItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	// Headless, or outside BeginFrame/EndFrame: nothing to draw into.
	if b.framePass == nil {
		return nil
	}
	if !view.Rect.Within(b.surfaceWidth, b.surfaceHeight) {
		return fmt.Errorf("view %d rect %s outside surface %dx%d", view.ID, view.Rect, b.surfaceWidth, b.surfaceHeight)
	}

	v := b.viewFor(view.ID)
	if v.display == nil {
		v.display = &uniformSet{}
	}

	draws := drawUniforms(items, Encoding{})
	background := GPUDrawUniform{Color: view.Background}
	common.Identity(background.Model[:])
	if err := b.writeUniforms(v.display, view.ViewProj, append([]GPUDrawUniform{background}, draws...)); err != nil {
		return err
	}

	// WebGPU viewports use a top-left origin.
	x := view.Rect.X0
	y := b.surfaceHeight - 1 - view.Rect.Y1
	w, h := view.Width(), view.Height()
	pass := b.framePass
	pass.SetViewport(float32(x), float32(y), float32(w), float32(h), 0, 1)
	pass.SetScissorRect(uint32(x), uint32(y), uint32(w), uint32(h))

	pass.SetBindGroup(0, v.display.cameraGroup, nil)
	pass.SetBindGroup(1, v.display.drawGroup, []uint32{0})
	pass.SetPipeline(b.backgroundPipeline)
	pass.Draw(3, 1, 0, 0)

	return b.recordDraws(pass, b.displayPipelines, v.display, items, 1)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		b.drainRetired()
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
	b.drainRetired()
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Encode(ctx context.Context, view View, items []DrawItem, enc Encoding) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return nil, errNoDevice
	}

	w, h := view.Width(), view.Height()
	v := b.viewFor(view.ID)
	if v.width != w || v.height != h {
		// Depth captured at the old size no longer lines up with the viewport.
		v.width, v.height = w, h
		v.depth = nil
	}
	if v.encode == nil {
		v.encode = &uniformSet{}
	}
	slot, err := b.slotFor(v, enc.Slot, w, h)
	if err != nil {
		return nil, err
	}
	if err := b.writeUniforms(v.encode, enc.ViewProj, drawUniforms(items, enc)); err != nil {
		return nil, err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       slot.idView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
			},
			{
				View:       slot.depthCopyView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 1, G: 0, B: 0, A: 0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            slot.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	drawErr := b.recordDraws(pass, b.encodePipelines, v.encode, items, 0)
	pass.End()
	if drawErr != nil {
		encoder.Release()
		return nil, drawErr
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()
	if b.framePass == nil {
		b.drainRetired()
	}

	if enc.CaptureDepth {
		v.depth = &wgpuTarget{backend: b, texture: slot.depthCopy, width: w, height: h, format: TargetFormatDepth32}
	}
	return &wgpuTarget{backend: b, texture: slot.id, width: w, height: h, format: TargetFormatRGBA8}, nil
}

func (b *wgpuRendererBackendImpl) DepthTarget(viewID int) (Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.views[viewID]
	if !ok || v.depth == nil {
		return nil, fmt.Errorf("no depth captured for view %d", viewID)
	}
	return v.depth, nil
}

func (b *wgpuRendererBackendImpl) DisplayTarget(viewID int) (Target, error) {
	return nil, fmt.Errorf("wgpu backend presents view %d to the surface; display pixels are not readable", viewID)
}

func (b *wgpuRendererBackendImpl) ReleaseView(viewID int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.views[viewID]
	if !ok {
		return
	}
	delete(b.views, viewID)
	b.retire(v.release)
	if b.framePass == nil {
		b.drainRetired()
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, v := range b.views {
		v.release()
		delete(b.views, id)
	}
	for m, gm := range b.meshes {
		for _, buf := range gm.buffers {
			buf.Release()
		}
		delete(b.meshes, m)
	}
	b.drainRetired()
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
}

// recordDraws issues one draw per instance and topology, in item order.
func (b *wgpuRendererBackendImpl) recordDraws(
	pass *wgpu.RenderPassEncoder,
	pipelines map[model.Topology]*wgpu.RenderPipeline,
	u *uniformSet,
	items []DrawItem,
	firstSlot int,
) error {
	pass.SetBindGroup(0, u.cameraGroup, nil)
	slot := firstSlot
	for _, item := range items {
		gm, err := b.meshFor(item.Mesh)
		if err != nil {
			return err
		}
		for range item.Instances {
			pass.SetBindGroup(1, u.drawGroup, []uint32{uint32(slot * drawUniformStride)})
			for _, top := range meshTopologies {
				buf, ok := gm.buffers[top]
				if !ok {
					continue
				}
				pass.SetPipeline(pipelines[top])
				pass.SetVertexBuffer(0, buf, 0, wgpu.WholeSize)
				pass.Draw(gm.counts[top], 1, 0, 0)
			}
			slot++
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) meshFor(m *Mesh) (*gpuMesh, error) {
	if gm, ok := b.meshes[m]; ok {
		return gm, nil
	}
	gm := &gpuMesh{
		buffers: make(map[model.Topology]*wgpu.Buffer),
		counts:  make(map[model.Topology]uint32),
	}
	for _, top := range meshTopologies {
		data, n := m.VertexData(top)
		if n == 0 {
			continue
		}
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: top.String() + " Pick Vertex Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("create vertex buffer: %w", err)
		}
		b.queue.WriteBuffer(buf, 0, data)
		gm.buffers[top] = buf
		gm.counts[top] = uint32(n)
	}
	b.meshes[m] = gm
	return gm, nil
}

// writeUniforms uploads the camera and every draw uniform, growing the draw buffer when needed.
func (b *wgpuRendererBackendImpl) writeUniforms(u *uniformSet, viewProj [16]float32, draws []GPUDrawUniform) error {
	if u.camera == nil {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Camera Uniform Buffer",
			Size:  64,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create camera buffer: %w", err)
		}
		group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Camera Bind Group",
			Layout: b.cameraLayout,
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}},
		})
		if err != nil {
			buf.Release()
			return fmt.Errorf("create camera bind group: %w", err)
		}
		u.camera, u.cameraGroup = buf, group
	}

	need := max(len(draws), 1)
	if u.capacity < need {
		capacity := max(need, u.capacity*2, 16)
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Draw Uniform Buffer",
			Size:  uint64(capacity * drawUniformStride),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create draw buffer: %w", err)
		}
		group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Draw Bind Group",
			Layout: b.drawLayout,
			Entries: []wgpu.BindGroupEntry{{
				Binding: 0,
				Buffer:  buf,
				Offset:  0,
				Size:    drawUniformSize,
			}},
		})
		if err != nil {
			buf.Release()
			return fmt.Errorf("create draw bind group: %w", err)
		}
		if u.draws != nil {
			oldBuf, oldGroup := u.draws, u.drawGroup
			b.retire(func() {
				oldGroup.Release()
				oldBuf.Release()
			})
		}
		u.draws, u.drawGroup, u.capacity = buf, group, capacity
	}

	b.queue.WriteBuffer(u.camera, 0, common.SliceToBytes(viewProj[:]))
	if len(draws) > 0 {
		b.queue.WriteBuffer(u.draws, 0, marshalDraws(draws))
	}
	return nil
}

func (b *wgpuRendererBackendImpl) viewFor(id int) *wgpuView {
	v, ok := b.views[id]
	if !ok {
		v = &wgpuView{slots: make(map[int]*encodeSlot)}
		b.views[id] = v
	}
	return v
}

func (b *wgpuRendererBackendImpl) slotFor(v *wgpuView, key, width, height int) (*encodeSlot, error) {
	if s, ok := v.slots[key]; ok && s.width == width && s.height == height {
		return s, nil
	} else if ok {
		b.retire(s.release)
	}

	s := &encodeSlot{width: width, height: height}
	var err error
	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc
	if s.id, s.idView, err = b.createTexture("Encode ID Texture", width, height, encodeFormat, usage); err != nil {
		return nil, err
	}
	if s.depthCopy, s.depthCopyView, err = b.createTexture("Encode Depth Copy Texture", width, height, depthCopyFormat, usage); err != nil {
		s.release()
		return nil, err
	}
	if s.depth, s.depthView, err = b.createTexture("Encode Depth Texture", width, height, depthFormat, wgpu.TextureUsageRenderAttachment); err != nil {
		s.release()
		return nil, err
	}
	v.slots[key] = s
	return s, nil
}

func (b *wgpuRendererBackendImpl) createTexture(label string, width, height int, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) retire(release func()) {
	b.retired = append(b.retired, release)
}

func (b *wgpuRendererBackendImpl) drainRetired() {
	for _, release := range b.retired {
		release()
	}
	b.retired = b.retired[:0]
}

func (s *encodeSlot) release() {
	for _, view := range []*wgpu.TextureView{s.idView, s.depthCopyView, s.depthView} {
		if view != nil {
			view.Release()
		}
	}
	for _, tex := range []*wgpu.Texture{s.id, s.depthCopy, s.depth} {
		if tex != nil {
			tex.Release()
		}
	}
}

func (u *uniformSet) release() {
	if u == nil {
		return
	}
	if u.cameraGroup != nil {
		u.cameraGroup.Release()
		u.camera.Release()
	}
	if u.drawGroup != nil {
		u.drawGroup.Release()
		u.draws.Release()
	}
}

func (v *wgpuView) release() {
	v.display.release()
	v.encode.release()
	for _, s := range v.slots {
		s.release()
	}
}
