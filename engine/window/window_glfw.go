package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	open    bool
	closing bool
}

var _ platformWindow = &glfwWindow{}

// newGLFWWindow creates the GLFW window and registers its input callbacks. GLFW must be
// driven from the thread that created it, so the calling goroutine is locked to its thread.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newGLFWWindow(w *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so no OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create GLFW window: %w", err)
	}
	gw := &glfwWindow{parent: w, window: win, open: true}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.closing = true
			win.SetShouldClose(true)
			return
		}
		if action == glfw.Press && w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		b, ok := glfwButton(button)
		if !ok {
			return
		}
		// Cursor positions are reported in screen coordinates; scale them to framebuffer
		// pixels so they address the same pixels as the viewports.
		x, y := gw.cursorPixels(win.GetCursorPos())
		switch action {
		case glfw.Press:
			if w.onMouseDown != nil {
				w.onMouseDown(b, x, y)
			}
		case glfw.Release:
			if w.onMouseUp != nil {
				w.onMouseUp(b, x, y)
			}
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if w.onMouseMove != nil {
			x, y := gw.cursorPixels(xpos, ypos)
			w.onMouseMove(x, y)
		}
	})

	// Framebuffer size, not window size: they differ on high-DPI displays and the renderer
	// needs pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})
	w.width, w.height = win.GetFramebufferSize()
	return gw, nil
}

func glfwButton(b glfw.MouseButton) (MouseButton, bool) {
	switch b {
	case glfw.MouseButtonLeft:
		return MouseButtonLeft, true
	case glfw.MouseButtonMiddle:
		return MouseButtonMiddle, true
	case glfw.MouseButtonRight:
		return MouseButtonRight, true
	default:
		return 0, false
	}
}

func (g *glfwWindow) cursorPixels(xpos, ypos float64) (int32, int32) {
	ww, wh := g.window.GetSize()
	if ww <= 0 || wh <= 0 {
		return int32(xpos), int32(ypos)
	}
	sx := float64(g.parent.width) / float64(ww)
	sy := float64(g.parent.height) / float64(wh)
	return int32(xpos * sx), int32(ypos * sy)
}

// surfaceDescriptor uses the wgpuglfw bridge, which has per-platform implementations
// (Windows, X11, Wayland, macOS).
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	if !g.open {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) running() bool {
	return g.open && !g.closing && !g.window.ShouldClose()
}

func (g *glfwWindow) poll() bool {
	glfw.PollEvents()
	return g.running()
}

// blit does nothing: GLFW windows present through the wgpu surface.
func (g *glfwWindow) blit([]byte, int, int) {}

func (g *glfwWindow) close() error {
	if !g.open {
		return fmt.Errorf("window is not open")
	}
	g.open = false
	g.window.SetShouldClose(true)
	g.window.Destroy()
	glfw.Terminate()
	return nil
}
