package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/selector"
	"github.com/Carmen-Shannon/oxy-pick/engine/viewport"
	"github.com/Carmen-Shannon/oxy-pick/engine/window"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ViewportSetup creates the viewport of one grid tile.
type ViewportSetup func(index int, rect common.Rect) viewport.Viewport

// pendingPick is a submitted pick waiting to be applied.
type pendingPick struct {
	req       *selector.PickRequest
	submitted time.Time
}

// engine implements the Engine interface.
// Coordinates the window thread, the tick goroutine, the render goroutine and the goroutine
// that applies resolved picks.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	ctx         context.Context
	cancel      context.CancelFunc
	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer renderer.Renderer
	selector selector.Selector

	grid          *window.Grid
	columns, rows int
	width, height int
	setup         ViewportSetup
	viewports     []viewport.Viewport
	composite     []byte

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate   time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)
	renderFrameLimit atomic.Int64

	selectorOptions []selector.SelectorBuilderOption
	throttle        time.Duration
	picks           chan pendingPick
	latestSeq       atomic.Uint64
	lastPick        time.Time
	cursorX         int
	cursorY         int
	cursorDirty     bool

	dragViewport int
	dragging     bool
	dragX, dragY int32

	state          UIState
	onSelection    func(UIState)
	baseColor      common.Color
	highlightColor common.Color
	glyphScale     float32
	glyphPicked    float32
	cursor         game_object.GameObject
}

// Engine is the main entry point for the picking demos.
// It splits the window into a grid of viewports, renders them every frame, and turns mouse
// movement into throttled picks whose results highlight the object under the cursor.
type Engine interface {
	// Window returns the underlying window, or nil for a headless engine.
	Window() window.Window

	// Renderer returns the render engine.
	Renderer() renderer.Renderer

	// Selector returns the selector the engine picks with.
	Selector() selector.Selector

	// Viewports returns the grid viewports in tile order (row 0 at the bottom).
	//
	// Returns:
	//   - []viewport.Viewport: a copy of the viewport list
	Viewports() []viewport.Viewport

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Profiler returns the engine profiler.
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in frames per second.
	// Mouse picks are submitted from the tick loop, so the tick rate bounds the pick rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetSelectionCallback registers the function called whenever a pick changes the UI state.
	// It runs on the goroutine that applies picks.
	//
	// Parameters:
	//   - callback: function receiving the new state
	SetSelectionCallback(callback func(UIState))

	// State returns the UI state left by the last applied pick.
	State() UIState

	// RenderFrame draws every viewport once. Viewports render concurrently.
	//
	// Parameters:
	//   - ctx: cancels the frame
	//
	// Returns:
	//   - error: the first viewport error
	RenderFrame(ctx context.Context) error

	// PickAt queues a pick of the pixel under a cursor position. Positions use the window's
	// top-left origin. Returns a nil request when the cursor is outside the grid or over a
	// viewport whose camera is being dragged.
	//
	// Parameters:
	//   - ctx: cancels the pick
	//   - x, y: the cursor position in window pixels
	//
	// Returns:
	//   - *selector.PickRequest: the queued request, or nil
	//   - error: an error if the selector rejects the pick
	PickAt(ctx context.Context, x, y int) (*selector.PickRequest, error)

	// Pick picks under a cursor position and applies the result before returning.
	//
	// Parameters:
	//   - ctx: cancels the pick
	//   - x, y: the cursor position in window pixels
	//
	// Returns:
	//   - UIState: the new UI state
	//   - error: an error if the pick fails
	Pick(ctx context.Context, x, y int) (UIState, error)

	// Run starts the engine loops and the window message loop (blocks until the window closes).
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. A renderer is required, and a headless engine (no window)
// needs WithSize. Misconfiguration panics.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		ctx:             ctx,
		cancel:          cancel,
		quitChannel:     make(chan struct{}),
		columns:         1,
		rows:            1,
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		throttle:        20 * time.Millisecond,
		picks:           make(chan pendingPick, 64),
		baseColor:       common.ColorWhite,
		highlightColor:  common.ColorPicked,
		glyphScale:      0.5,
		glyphPicked:     0.7,
		setup:           defaultViewport,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		panic("engine: NewEngine requires WithRenderer")
	}
	if e.window != nil {
		e.width, e.height = e.window.Width(), e.window.Height()
	}
	if e.width <= 0 || e.height <= 0 {
		panic("engine: a headless engine requires WithSize")
	}
	if e.selector == nil {
		e.selector = selector.NewSelector(e.renderer, e.selectorOptions...)
	}

	e.grid = window.NewGrid(e.columns, e.rows, e.width, e.height)
	e.viewports = make([]viewport.Viewport, e.grid.Len())
	for i := range e.viewports {
		e.viewports[i] = e.setup(i, e.grid.Tile(i))
	}
	if e.window != nil {
		e.bindWindow()
	}
	return e
}

func defaultViewport(index int, rect common.Rect) viewport.Viewport {
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController()))
	return viewport.NewViewport(index, rect, viewport.WithCamera(cam))
}

func (e *engine) bindWindow() {
	e.window.SetResizeCallback(e.handleResize)
	e.window.SetMouseMoveCallback(func(x, y int32) { e.handleMouseMove(int(x), int(y)) })
	e.window.SetMouseDownCallback(func(b window.MouseButton, x, y int32) { e.handleMouseDown(b, int(x), int(y)) })
	e.window.SetMouseUpCallback(func(b window.MouseButton, x, y int32) { e.handleMouseUp(b) })
	e.window.SetScrollCallback(e.handleScroll)
	e.window.SetKeyDownCallback(e.handleKey)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Selector() selector.Selector {
	return e.selector
}

func (e *engine) Viewports() []viewport.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]viewport.Viewport, len(e.viewports))
	copy(out, e.viewports)
	return out
}

func (e *engine) Run() {
	e.running.Store(true)
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handlePicks()
	if e.window != nil {
		e.window.ProcessMessages()
		e.Quit()
	}
	e.wg.Wait()
	e.selector.Close()
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		e.cancel()
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop: tick callback, then any pick the mouse asked
// for since the last tick.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
			e.pollPicking(now)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop. Recovers from panics to avoid crashing the process and
// signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", zap.Any("panic", r))
			e.Quit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}
		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.RenderFrame(e.ctx); err != nil && e.ctx.Err() == nil {
			common.Logger().Warn("frame failed", zap.Error(err))
		}
		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}
		if limit := time.Duration(e.renderFrameLimit.Load()); limit > 0 {
			if remaining := limit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// handlePicks applies resolved picks in submission order.
func (e *engine) handlePicks() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quitChannel:
			return
		case p := <-e.picks:
			sel, err := p.req.Wait(e.ctx)
			if e.ctx.Err() != nil {
				return
			}
			e.apply(p, sel, err)
		}
	}
}

func (e *engine) RenderFrame(ctx context.Context) error {
	vps := e.Viewports()
	if err := e.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.NumCPU(), 1))
	for _, vp := range vps {
		g.Go(func() error {
			return e.renderer.Render(gctx, vp)
		})
	}
	err := g.Wait()
	e.renderer.EndFrame()
	e.renderer.Present()
	if err != nil {
		return err
	}
	if e.window != nil && e.window.Platform() == window.PlatformTerminal {
		return e.blit(ctx, vps)
	}
	return nil
}

// blit composes the host display buffers of every viewport into one window image.
func (e *engine) blit(ctx context.Context, vps []viewport.Viewport) error {
	e.mu.Lock()
	width, height := e.width, e.height
	if len(e.composite) != width*height*renderer.BytesPerPixel {
		e.composite = make([]byte, width*height*renderer.BytesPerPixel)
	}
	frame := e.composite
	e.mu.Unlock()

	for _, vp := range vps {
		target, err := e.renderer.DisplayBuffer(ctx, vp)
		if err != nil {
			return err
		}
		local := common.NewRect(0, 0, vp.Width()-1, vp.Height()-1)
		px, err := target.ReadRegion(ctx, local)
		if err != nil {
			return err
		}
		rect := vp.Rect()
		rowBytes := vp.Width() * renderer.BytesPerPixel
		for y := 0; y < vp.Height(); y++ {
			dst := ((rect.Y0+y)*width + rect.X0) * renderer.BytesPerPixel
			if dst+rowBytes > len(frame) {
				break
			}
			copy(frame[dst:dst+rowBytes], px[y*rowBytes:(y+1)*rowBytes])
		}
	}
	e.window.Blit(frame, width, height)
	return nil
}

func (e *engine) PickAt(ctx context.Context, x, y int) (*selector.PickRequest, error) {
	e.mu.Lock()
	index, lx, ly, ok := e.grid.Locate(x, y)
	if !ok {
		e.mu.Unlock()
		return nil, nil
	}
	vp := e.viewports[index]
	e.mu.Unlock()

	// No picking while the user is orbiting the camera.
	if vp.Camera().Animating() {
		return nil, nil
	}
	req, err := e.selector.PickAsync(ctx, vp, lx, ly, lx, ly)
	if err != nil {
		return nil, err
	}
	e.latestSeq.Store(req.Seq())
	return req, nil
}

func (e *engine) Pick(ctx context.Context, x, y int) (UIState, error) {
	submitted := time.Now()
	req, err := e.PickAt(ctx, x, y)
	if err != nil || req == nil {
		return e.State(), err
	}
	sel, err := req.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		return e.State(), err
	}
	e.apply(pendingPick{req: req, submitted: submitted}, sel, err)
	return e.State(), err
}

// pollPicking submits a pick for the latest cursor position once the throttle interval has
// passed since the previous one.
func (e *engine) pollPicking(now time.Time) {
	e.mu.Lock()
	if !e.cursorDirty || now.Sub(e.lastPick) < e.throttle {
		e.mu.Unlock()
		return
	}
	x, y := e.cursorX, e.cursorY
	e.cursorDirty = false
	e.lastPick = now
	e.mu.Unlock()

	req, err := e.PickAt(e.ctx, x, y)
	if err != nil {
		common.Logger().Debug("pick rejected", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		if errors.Is(err, selector.ErrQueueFull) {
			e.mu.Lock()
			e.cursorDirty = true
			e.mu.Unlock()
		}
		return
	}
	if req == nil {
		return
	}
	select {
	case e.picks <- pendingPick{req: req, submitted: now}:
	default:
		common.Logger().Debug("pick queue full, dropping pick", zap.Uint64("seq", req.Seq()))
	}
}

// apply turns a resolved pick into highlight colors, glyph scales and the cursor position.
// Results older than the most recent submission are dropped.
func (e *engine) apply(p pendingPick, sel *selector.Selection, err error) {
	e.profiler.RecordPick(time.Since(p.submitted), selectionLen(sel), err)
	if p.req.Seq() < e.latestSeq.Load() {
		return
	}
	if err != nil {
		common.Logger().Warn("pick failed", zap.Uint64("seq", p.req.Seq()), zap.Error(err))
		return
	}

	e.mu.Lock()
	prev := e.state
	vp := e.viewportByID(p.req.ViewportID())
	if vp == nil {
		e.mu.Unlock()
		return
	}
	state := UIState{Seq: p.req.Seq(), Viewport: vp.ID()}
	if sel != nil {
		if hit, ok := sel.Nearest(); ok {
			state = stateFromHit(p.req.Seq(), vp.ID(), sel.Association(), hit)
		}
	}

	if old := e.viewportByID(prev.Viewport); !prev.Empty() && prev.Viewport != state.Viewport && old != nil {
		e.resetHighlight(old)
	}
	e.resetHighlight(vp)
	if !state.Empty() {
		state.Object.SetColor(e.highlightColor)
		if state.HasCompositeID {
			state.Object.SetInstanceScale(state.CompositeID, e.glyphPicked)
		}
	}
	if e.cursor != nil {
		e.cursor.SetVisible(state.HasPosition)
		if state.HasPosition {
			e.cursor.SetPosition(state.Position[0], state.Position[1], state.Position[2])
		}
	}
	e.state = state
	callback := e.onSelection
	e.mu.Unlock()

	if callback != nil {
		callback(state)
	}
}

// viewportByID returns the viewport with the given ID, or nil. Caller must hold e.mu.
func (e *engine) viewportByID(id int) viewport.Viewport {
	for _, vp := range e.viewports {
		if vp.ID() == id {
			return vp
		}
	}
	return nil
}

// resetHighlight paints every object of a viewport in the base color and restores glyph
// scales. Caller must hold e.mu.
func (e *engine) resetHighlight(vp viewport.Viewport) {
	for _, obj := range vp.Scene().Objects() {
		if obj == e.cursor {
			continue
		}
		obj.SetColor(e.baseColor)
		for i := 0; obj.InstanceCount() > 1 && i < obj.InstanceCount(); i++ {
			obj.SetInstanceScale(i, e.glyphScale)
		}
	}
}

func selectionLen(sel *selector.Selection) int {
	if sel == nil {
		return 0
	}
	return sel.Len()
}

func (e *engine) State() UIState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *engine) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	if width < e.columns || height < e.rows {
		e.mu.Unlock()
		return
	}
	e.width, e.height = width, height
	e.grid.Resize(width, height)
	for i, vp := range e.viewports {
		vp.Resize(e.grid.Tile(i))
	}
	e.mu.Unlock()
	e.renderer.Resize(width, height)
}

func (e *engine) handleMouseMove(x, y int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursorX, e.cursorY, e.cursorDirty = x, y, true
	if !e.dragging {
		return
	}
	vp := e.viewports[e.dragViewport]
	if ctrl := vp.Camera().Controller(); ctrl != nil {
		ctrl.Rotate(float32(int32(x)-e.dragX), float32(e.dragY-int32(y)))
		vp.Camera().Update()
	}
	e.dragX, e.dragY = int32(x), int32(y)
}

func (e *engine) handleMouseDown(b window.MouseButton, x, y int) {
	if b != window.MouseButtonLeft {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	index, _, _, ok := e.grid.Locate(x, y)
	if !ok {
		return
	}
	ctrl := e.viewports[index].Camera().Controller()
	if ctrl == nil {
		return
	}
	ctrl.BeginInteraction()
	e.dragging, e.dragViewport = true, index
	e.dragX, e.dragY = int32(x), int32(y)
}

func (e *engine) handleMouseUp(b window.MouseButton) {
	if b != window.MouseButtonLeft {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dragging {
		return
	}
	if ctrl := e.viewports[e.dragViewport].Camera().Controller(); ctrl != nil {
		ctrl.EndInteraction()
	}
	e.dragging = false
	// Pick again where the drag ended.
	e.cursorDirty = true
}

func (e *engine) handleScroll(delta float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	index, _, _, ok := e.grid.Locate(e.cursorX, e.cursorY)
	if !ok {
		return
	}
	cam := e.viewports[index].Camera()
	if ctrl := cam.Controller(); ctrl != nil {
		ctrl.Dolly(delta)
		cam.Update()
	}
}

func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeyC:
		e.selector.SetFieldAssociation(selector.AssociationCells)
	case common.KeyV:
		e.selector.SetFieldAssociation(selector.AssociationPoints)
	case common.KeyX:
		e.selector.SetFieldAssociation(selector.AssociationNone)
	case common.KeyZ:
		e.selector.SetCaptureZValues(!e.selector.CaptureZValues())
	case common.KeySpace:
		if e.profilingEnabled.Load() {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
		return
	default:
		return
	}
	common.Logger().Info("picking mode changed",
		zap.Stringer("association", e.selector.FieldAssociation()),
		zap.Bool("capture_z", e.selector.CaptureZValues()))
	e.mu.Lock()
	e.cursorDirty = true
	e.mu.Unlock()
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

// SetTickRate takes effect immediately when the engine is running.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := frameInterval(fps)
	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update rather than block.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit.Store(0)
		return
	}
	e.renderFrameLimit.Store(int64(frameInterval(fps)))
}

// frameInterval converts a positive rate to its period. Rates below 1 Hz give periods
// longer than a second.
func frameInterval(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetSelectionCallback(callback func(UIState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSelection = callback
}
