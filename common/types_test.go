package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectWithin(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want bool
	}{
		{"single pixel origin", NewRect(0, 0, 0, 0), true},
		{"last valid pixel", NewRect(9, 4, 9, 4), true},
		{"full surface", NewRect(0, 0, 9, 4), true},
		{"x1 equals width", NewRect(0, 0, 10, 0), false},
		{"y1 equals height", NewRect(0, 0, 0, 5), false},
		{"negative origin", NewRect(-1, 0, 2, 2), false},
		{"inverted x", NewRect(3, 0, 2, 0), false},
		{"inverted y", NewRect(0, 3, 0, 2), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rect.Within(10, 5))
		})
	}
}

func TestRectDimensions(t *testing.T) {
	r := NewRect(2, 3, 4, 7)
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.Equal(t, 15, r.Area())
	assert.True(t, r.Contains(2, 7))
	assert.False(t, r.Contains(5, 3))
	assert.Equal(t, "(2,3)-(4,7)", r.String())
}

func TestColorRGBA8(t *testing.T) {
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, ColorWhite.RGBA8())
	assert.Equal(t, [4]uint8{0, 255, 0, 255}, Color{-1, 2, 0, 1}.RGBA8())
}

func TestCoalesceAndClamp(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, 5, Clamp(9, 0, 5))
	assert.Equal(t, float32(0), Clamp(float32(-1), 0, 1))
}
