package window

import (
	"github.com/gdamore/tcell/v2"
)

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width. Terminal windows take their size from the
// terminal instead.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height. Terminal windows take their size from the
// terminal instead.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithPlatform selects the windowing backend. Defaults to PlatformGLFW.
//
// Parameters:
//   - p: the platform
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithPlatform(p Platform) WindowBuilderOption {
	return func(w *engineWindow) {
		w.kind = p
	}
}

// WithScreen gives a terminal window an existing tcell screen, such as a simulation screen
// in tests. Implies PlatformTerminal. The window initializes the screen if needed and
// finalizes it on Close.
//
// Parameters:
//   - screen: the tcell screen
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithScreen(screen tcell.Screen) WindowBuilderOption {
	return func(w *engineWindow) {
		w.kind = PlatformTerminal
		w.screen = screen
	}
}
