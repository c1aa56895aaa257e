package common

// Virtual key codes for cross-platform input handling.
// Printable keys use their ASCII values, matching GLFW.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyC     = 67 // switch to cell association
	KeyV     = 86 // switch to point (vertex) association
	KeyX     = 88 // switch to object-only picking
	KeyZ     = 90 // toggle depth capture
	KeySpace = 32
	KeyEsc   = 256 // GLFW
)
