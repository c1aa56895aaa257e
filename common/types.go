// package common contains plain types and helpers shared by every package of the picking engine.
package common

import "fmt"

// Rect is an inclusive pixel rectangle [X0, X1] x [Y0, Y1] with a bottom-left origin.
type Rect struct {
	X0, Y0 int
	X1, Y1 int
}

// NewRect builds a Rect from two corners without reordering them.
func NewRect(x0, y0, x1, y1 int) Rect {
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the number of columns covered by the rectangle.
func (r Rect) Width() int {
	return r.X1 - r.X0 + 1
}

// Height returns the number of rows covered by the rectangle.
func (r Rect) Height() int {
	return r.Y1 - r.Y0 + 1
}

// Area returns the number of pixels covered by the rectangle.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// Inverted reports whether the corners are out of order.
func (r Rect) Inverted() bool {
	return r.X1 < r.X0 || r.Y1 < r.Y0
}

// Within reports whether every pixel of r lies inside a width x height surface.
//
// Parameters:
//   - width, height: surface size in pixels
//
// Returns:
//   - bool: true when 0 <= X0 <= X1 < width and 0 <= Y0 <= Y1 < height
func (r Rect) Within(width, height int) bool {
	if r.Inverted() {
		return false
	}
	return r.X0 >= 0 && r.Y0 >= 0 && r.X1 < width && r.Y1 < height
}

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
}

// Color is a linear RGBA color with components in [0, 1].
type Color [4]float32

var (
	ColorWhite      = Color{1, 1, 1, 1}
	ColorPicked     = Color{0.1, 0.8, 0.1, 1}
	ColorBackground = Color{0.1, 0.1, 0.1, 1}
)

// RGBA8 converts the color to 8-bit channels.
func (c Color) RGBA8() [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(Clamp(v, 0, 1)*255 + 0.5)
	}
	return out
}
