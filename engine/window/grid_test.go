package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridTilesCoverWindow(t *testing.T) {
	for _, size := range [][2]int{{800, 800}, {803, 611}, {64, 64}} {
		g := NewGrid(8, 8, size[0], size[1])
		area := 0
		for i := 0; i < g.Len(); i++ {
			r := g.Tile(i)
			require.False(t, r.Inverted())
			area += r.Area()
		}
		assert.Equal(t, size[0]*size[1], area, "tiles of %v must not overlap or leave gaps", size)
		assert.Equal(t, common.NewRect(0, 0, size[0]/8-1, size[1]/8-1), g.Tile(0))
		last := g.Tile(g.Len() - 1)
		assert.Equal(t, size[0]-1, last.X1)
		assert.Equal(t, size[1]-1, last.Y1)
	}
}

func TestGridLocateFlipsY(t *testing.T) {
	g := NewGrid(2, 2, 100, 100)
	tests := []struct {
		name         string
		x, y         int
		tile, lx, ly int
	}{
		{"top left corner", 0, 0, 2, 0, 49},
		{"bottom left corner", 0, 99, 0, 0, 0},
		{"bottom right", 99, 99, 1, 49, 0},
		{"top right", 75, 10, 3, 25, 39},
		{"just below the middle", 50, 50, 1, 0, 49},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile, lx, ly, ok := g.Locate(tt.x, tt.y)
			require.True(t, ok)
			assert.Equal(t, tt.tile, tile)
			assert.Equal(t, tt.lx, lx)
			assert.Equal(t, tt.ly, ly)
		})
	}

	_, _, _, ok := g.Locate(100, 0)
	assert.False(t, ok)
	_, _, _, ok = g.Locate(0, -1)
	assert.False(t, ok)
}

func TestGridLocateMatchesTiles(t *testing.T) {
	g := NewGrid(8, 8, 803, 611)
	for y := 0; y < g.Height(); y += 7 {
		for x := 0; x < g.Width(); x += 5 {
			tile, lx, ly, ok := g.Locate(x, y)
			require.True(t, ok)
			r := g.Tile(tile)
			assert.True(t, r.Contains(r.X0+lx, r.Y0+ly))
			assert.Equal(t, x, r.X0+lx)
			assert.Equal(t, g.Height()-1-y, r.Y0+ly)
		}
	}
}

func TestGridPanics(t *testing.T) {
	assert.Panics(t, func() { NewGrid(0, 1, 10, 10) })
	assert.Panics(t, func() { NewGrid(8, 8, 4, 100) })
}
