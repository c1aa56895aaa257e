package window

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gdamore/tcell/v2"
)

// terminalFrame bounds how long poll waits for input before the next update.
const terminalFrame = 16 * time.Millisecond

// terminalWindow draws pixels as terminal cells with tcell. Each cell is one pixel, so the
// window size is the terminal size in cells.
type terminalWindow struct {
	parent  *engineWindow
	screen  tcell.Screen
	events  chan tcell.Event
	buttons tcell.ButtonMask
	open    bool
}

var _ platformWindow = &terminalWindow{}

func newTerminalWindow(w *engineWindow) (*terminalWindow, error) {
	screen := w.screen
	if screen == nil {
		var err error
		if screen, err = tcell.NewScreen(); err != nil {
			return nil, fmt.Errorf("open terminal: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initialize terminal: %w", err)
	}
	screen.EnableMouse()
	screen.HideCursor()
	screen.Clear()

	t := &terminalWindow{
		parent: w,
		screen: screen,
		events: make(chan tcell.Event, 100),
		open:   true,
	}
	w.width, w.height = screen.Size()

	go func() {
		for {
			ev := screen.PollEvent()
			// PollEvent returns nil once the screen is finalized.
			if ev == nil {
				close(t.events)
				return
			}
			t.events <- ev
		}
	}()
	return t, nil
}

func (t *terminalWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}

func (t *terminalWindow) running() bool {
	return t.open
}

// poll dispatches every queued event, waiting up to one frame for the first.
func (t *terminalWindow) poll() bool {
	timer := time.NewTimer(terminalFrame)
	defer timer.Stop()
	select {
	case ev, ok := <-t.events:
		if !ok {
			t.open = false
			return false
		}
		t.dispatch(ev)
	case <-timer.C:
		return t.open
	}
	for t.open {
		select {
		case ev, ok := <-t.events:
			if !ok {
				t.open = false
				return false
			}
			t.dispatch(ev)
		default:
			return t.open
		}
	}
	return t.open
}

func (t *terminalWindow) dispatch(ev tcell.Event) {
	w := t.parent
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			t.open = false
			return
		}
		if ev.Key() == tcell.KeyRune && w.onKeyDown != nil {
			// Letters use their upper-case code so they match the GLFW key codes.
			w.onKeyDown(uint32(unicode.ToUpper(ev.Rune())))
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		cx, cy := int32(x), int32(y)
		buttons := ev.Buttons()
		switch {
		case buttons&tcell.WheelUp != 0:
			if w.onScroll != nil {
				w.onScroll(1)
			}
		case buttons&tcell.WheelDown != 0:
			if w.onScroll != nil {
				w.onScroll(-1)
			}
		}
		for _, b := range []struct {
			mask   tcell.ButtonMask
			button MouseButton
		}{
			{tcell.Button1, MouseButtonLeft},
			{tcell.Button3, MouseButtonMiddle},
			{tcell.Button2, MouseButtonRight},
		} {
			was, is := t.buttons&b.mask != 0, buttons&b.mask != 0
			if is && !was && w.onMouseDown != nil {
				w.onMouseDown(b.button, cx, cy)
			}
			if was && !is && w.onMouseUp != nil {
				w.onMouseUp(b.button, cx, cy)
			}
		}
		t.buttons = buttons &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)
		if w.onMouseMove != nil {
			w.onMouseMove(cx, cy)
		}

	case *tcell.EventResize:
		width, height := ev.Size()
		w.resized(width, height)
		t.screen.Sync()
	}
}

// blit paints each pixel as the background color of one cell. Pixel rows run bottom to
// top, terminal rows top to bottom.
func (t *terminalWindow) blit(pixels []byte, width, height int) {
	if !t.open {
		return
	}
	cols, rows := t.screen.Size()
	for y := 0; y < min(height, rows); y++ {
		row := height - 1 - y
		for x := 0; x < min(width, cols); x++ {
			i := (row*width + x) * 4
			if i+3 >= len(pixels) {
				continue
			}
			bg := tcell.NewRGBColor(int32(pixels[i]), int32(pixels[i+1]), int32(pixels[i+2]))
			t.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(bg))
		}
	}
	t.screen.Show()
}

func (t *terminalWindow) close() error {
	if !t.open && t.screen == nil {
		return errors.New("window is not open")
	}
	t.open = false
	if t.screen != nil {
		t.screen.Fini()
		t.screen = nil
		common.Logger().Debug("terminal window closed")
	}
	return nil
}
