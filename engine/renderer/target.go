package renderer

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

// TargetFormat is the pixel layout of a render target. Both formats use 4 bytes per pixel.
type TargetFormat int

const (
	// TargetFormatRGBA8 stores 8-bit RGBA color.
	TargetFormatRGBA8 TargetFormat = iota
	// TargetFormatDepth32 stores a little-endian float32 depth in [0, 1].
	TargetFormatDepth32
)

// BytesPerPixel is the pixel stride of every target format.
const BytesPerPixel = 4

// Target is a rendered buffer that can be read back region by region.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel layout.
	Format() TargetFormat

	// ReadRegion copies an inclusive rectangle (bottom-left origin) into host memory. Rows are
	// returned bottom to top (y0 first), each row left to right, BytesPerPixel per pixel.
	//
	// Parameters:
	//   - ctx: cancels a pending map of GPU memory
	//   - rect: the region to copy, which must lie inside the target
	//
	// Returns:
	//   - []byte: rect.Area()*BytesPerPixel bytes
	//   - error: error if the region is out of bounds or the copy fails
	ReadRegion(ctx context.Context, rect common.Rect) ([]byte, error)
}

// DepthAt decodes one float32 depth from a Depth32 readback.
//
// Parameters:
//   - data: bytes returned by ReadRegion on a Depth32 target
//   - index: the pixel index within the region
//
// Returns:
//   - float32: the depth value
func DepthAt(data []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[index*BytesPerPixel:]))
}

// hostTarget is a Target backed by host memory with rows stored bottom to top.
type hostTarget struct {
	mu     sync.RWMutex
	width  int
	height int
	format TargetFormat
	pix    []byte

	// depth is the z-buffer used while rasterizing into this target
	depth []float32
}

var _ Target = &hostTarget{}

func newHostTarget(width, height int, format TargetFormat) *hostTarget {
	return &hostTarget{
		width:  width,
		height: height,
		format: format,
		pix:    make([]byte, width*height*BytesPerPixel),
		depth:  make([]float32, width*height),
	}
}

func (t *hostTarget) Width() int {
	return t.width
}

func (t *hostTarget) Height() int {
	return t.height
}

func (t *hostTarget) Format() TargetFormat {
	return t.format
}

func (t *hostTarget) ReadRegion(ctx context.Context, rect common.Rect) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !rect.Within(t.width, t.height) {
		return nil, fmt.Errorf("region %s outside %dx%d target", rect, t.width, t.height)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	rowBytes := rect.Width() * BytesPerPixel
	out := make([]byte, 0, rect.Area()*BytesPerPixel)
	for y := rect.Y0; y <= rect.Y1; y++ {
		start := (y*t.width + rect.X0) * BytesPerPixel
		out = append(out, t.pix[start:start+rowBytes]...)
	}
	return out, nil
}

// clear fills every pixel with px and resets the z-buffer to the far plane.
func (t *hostTarget) clear(px [4]byte) {
	for i := 0; i < len(t.pix); i += BytesPerPixel {
		copy(t.pix[i:i+BytesPerPixel], px[:])
	}
	for i := range t.depth {
		t.depth[i] = 1
	}
}

// clearDepth fills a Depth32 target with the far plane value.
func (t *hostTarget) clearDepth() {
	var far [4]byte
	binary.LittleEndian.PutUint32(far[:], math.Float32bits(1))
	t.clear(far)
}

func (t *hostTarget) setPixel(x, y int, px [4]byte) {
	copy(t.pix[(y*t.width+x)*BytesPerPixel:], px[:])
}

func (t *hostTarget) setDepth(x, y int, z float32) {
	binary.LittleEndian.PutUint32(t.pix[(y*t.width+x)*BytesPerPixel:], math.Float32bits(z))
}
