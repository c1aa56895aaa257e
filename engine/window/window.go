package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gdamore/tcell/v2"
)

// Platform selects the windowing backend.
type Platform int

const (
	// PlatformGLFW opens a native window with a WebGPU-capable surface.
	PlatformGLFW Platform = iota

	// PlatformTerminal draws into the terminal with tcell, one cell per pixel. It has no GPU
	// surface and pairs with the software renderer.
	PlatformTerminal
)

func (p Platform) String() string {
	if p == PlatformTerminal {
		return "terminal"
	}
	return "glfw"
}

// MouseButton identifies a mouse button in button callbacks.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
)

// Window provides platform windowing and input event handling.
// Cursor positions passed to callbacks use a top-left origin, as every platform reports them;
// Grid.Locate converts them to viewport-local bottom-left pixels.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the window is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code (see common.Key*)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetMouseDownCallback sets the callback for mouse button presses.
	//
	// Parameters:
	//   - callback: function receiving the button and cursor position
	SetMouseDownCallback(callback func(button MouseButton, x, y int32))

	// SetMouseUpCallback sets the callback for mouse button releases.
	//
	// Parameters:
	//   - callback: function receiving the button and cursor position
	SetMouseUpCallback(callback func(button MouseButton, x, y int32))

	// SetMouseMoveCallback sets the callback for mouse movement.
	//
	// Parameters:
	//   - callback: function receiving mouse x, y position
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil for platforms
	//     without a GPU surface
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Blit shows host pixels on platforms that draw them directly. Rows run bottom to top,
	// four bytes per pixel. Platforms that present through a GPU surface ignore it.
	//
	// Parameters:
	//   - pixels: RGBA8 pixels
	//   - width, height: size of pixels
	Blit(pixels []byte, width, height int)

	// Platform returns the backend the window was opened with.
	Platform() Platform

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current client area width in pixels.
	Width() int

	// Height returns the current client area height in pixels.
	Height() int
}

// platformWindow is the part of a window that differs per platform.
type platformWindow interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	running() bool
	// poll dispatches pending events and reports whether the window is still open.
	poll() bool
	blit(pixels []byte, width, height int)
	close() error
}

type engineWindow struct {
	title  string
	width  int
	height int

	kind     Platform
	screen   tcell.Screen
	platform platformWindow

	onUpdate    func()
	onResize    func(width, height int)
	onScroll    func(delta float32)
	onKeyDown   func(keyCode uint32)
	onMouseDown func(button MouseButton, x, y int32)
	onMouseUp   func(button MouseButton, x, y int32)
	onMouseMove func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates and opens a Window with the specified options.
// Panics when the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:  "oxy-pick",
		width:  1024,
		height: 1024,
	}
	for _, opt := range options {
		opt(w)
	}

	var err error
	switch w.kind {
	case PlatformTerminal:
		w.platform, err = newTerminalWindow(w)
	default:
		w.platform, err = newGLFWWindow(w)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to create %s window: %v", w.kind, err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetMouseDownCallback(callback func(button MouseButton, x, y int32)) {
	w.onMouseDown = callback
}

func (w *engineWindow) SetMouseUpCallback(callback func(button MouseButton, x, y int32)) {
	w.onMouseUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) Blit(pixels []byte, width, height int) {
	w.platform.blit(pixels, width, height)
}

func (w *engineWindow) Platform() Platform {
	return w.kind
}

func (w *engineWindow) IsRunning() bool {
	return w.platform.running()
}

func (w *engineWindow) Close() error {
	return w.platform.close()
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if ok := w.platform.poll(); !ok {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// resized records a new client size and notifies the resize callback.
func (w *engineWindow) resized(width, height int) {
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
