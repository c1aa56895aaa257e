package window

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

// Grid splits a window into columns x rows tiles. Tile i sits in row i/columns and column
// i%columns, with row 0 at the bottom of the window. When the size does not divide evenly
// the remainder is spread over the tiles instead of left unused.
type Grid struct {
	columns, rows int
	width, height int
}

// NewGrid creates a grid over a width x height window.
// Panics when the grid has no tiles or more tiles than pixels along an axis.
//
// Parameters:
//   - columns, rows: the number of tiles along each axis
//   - width, height: the window size in pixels
//
// Returns:
//   - *Grid: the grid
func NewGrid(columns, rows, width, height int) *Grid {
	if columns <= 0 || rows <= 0 {
		panic(fmt.Sprintf("window: grid %dx%d has no tiles", columns, rows))
	}
	g := &Grid{columns: columns, rows: rows}
	g.Resize(width, height)
	return g
}

// Columns returns the number of tile columns.
func (g *Grid) Columns() int {
	return g.columns
}

// Rows returns the number of tile rows.
func (g *Grid) Rows() int {
	return g.rows
}

// Len returns the number of tiles.
func (g *Grid) Len() int {
	return g.columns * g.rows
}

// Width returns the window width the grid covers.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the window height the grid covers.
func (g *Grid) Height() int {
	return g.height
}

// Resize adapts the grid to a new window size.
//
// Parameters:
//   - width, height: the window size in pixels, at least one pixel per tile
func (g *Grid) Resize(width, height int) {
	if width < g.columns || height < g.rows {
		panic(fmt.Sprintf("window: %dx%d window cannot hold a %dx%d grid", width, height, g.columns, g.rows))
	}
	g.width, g.height = width, height
}

// Tile returns the rectangle of tile i in window pixels with a bottom-left origin.
//
// Parameters:
//   - i: the tile index in [0, Len())
//
// Returns:
//   - common.Rect: the inclusive tile rectangle
func (g *Grid) Tile(i int) common.Rect {
	col, row := i%g.columns, i/g.columns
	return common.NewRect(
		edge(col, g.columns, g.width),
		edge(row, g.rows, g.height),
		edge(col+1, g.columns, g.width)-1,
		edge(row+1, g.rows, g.height)-1,
	)
}

// Locate maps a cursor position (top-left origin, as platforms report it) to the tile under
// it and the viewport-local pixel with a bottom-left origin.
//
// Parameters:
//   - x, y: the cursor position in window pixels
//
// Returns:
//   - int: the tile index
//   - int, int: the tile-local pixel
//   - bool: false when the cursor is outside the window
func (g *Grid) Locate(x, y int) (int, int, int, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, 0, 0, false
	}
	fy := g.height - 1 - y
	col := cell(x, g.columns, g.width)
	row := cell(fy, g.rows, g.height)
	return row*g.columns + col, x - edge(col, g.columns, g.width), fy - edge(row, g.rows, g.height), true
}

// edge returns the first pixel of tile k of n along an axis of size pixels.
func edge(k, n, size int) int {
	return k * size / n
}

// cell returns the tile of n containing pixel p along an axis of size pixels.
func cell(p, n, size int) int {
	k := p * n / size
	for k > 0 && p < edge(k, n, size) {
		k--
	}
	for k < n-1 && p >= edge(k+1, n, size) {
		k++
	}
	return k
}
