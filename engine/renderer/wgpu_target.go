package renderer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// copyRowAlignment is the required bytesPerRow alignment of texture to buffer copies.
const copyRowAlignment = 256

// wgpuTarget is an offscreen texture that is read back by copying a region into a mappable
// buffer. The texture stays owned by the backend slot it came from.
type wgpuTarget struct {
	backend *wgpuRendererBackendImpl
	texture *wgpu.Texture
	width   int
	height  int
	format  TargetFormat
}

var _ Target = &wgpuTarget{}

func (t *wgpuTarget) Width() int {
	return t.width
}

func (t *wgpuTarget) Height() int {
	return t.height
}

func (t *wgpuTarget) Format() TargetFormat {
	return t.format
}

func (t *wgpuTarget) ReadRegion(ctx context.Context, rect common.Rect) ([]byte, error) {
	if !rect.Within(t.width, t.height) {
		return nil, fmt.Errorf("region %s outside %dx%d target", rect, t.width, t.height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := rect.Width(), rect.Height()
	rowBytes := w * BytesPerPixel
	padded := (rowBytes + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
	size := uint64(padded * h)

	b := t.backend
	b.mu.Lock()
	if b.device == nil {
		b.mu.Unlock()
		return nil, errNoDevice
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Readback Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer buf.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	// Texture rows run top to bottom, so the region's top row is y1.
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(rect.X0), Y: uint32(t.height - 1 - rect.Y1)},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(padded),
				RowsPerImage: uint32(h),
			},
		},
		&wgpu.Extent3D{
			Width:              uint32(w),
			Height:             uint32(h),
			DepthOrArrayLayers: 1,
		},
	)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		b.mu.Unlock()
		return nil, err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	status := make(chan wgpu.BufferMapAsyncStatus, 1)
	// A rejected map never calls back, so its error must end the readback here.
	if err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status <- s
	}); err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	b.mu.Unlock()

	// Poll without holding the backend lock so display frames keep flowing.
	for {
		b.mu.Lock()
		if b.device == nil {
			b.mu.Unlock()
			return nil, errNoDevice
		}
		b.device.Poll(false, nil)
		b.mu.Unlock()

		select {
		case s := <-status:
			if s != wgpu.BufferMapAsyncStatusSuccess {
				return nil, fmt.Errorf("map readback buffer: status %d", s)
			}
			return t.copyMapped(buf, rowBytes, padded, h), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			runtime.Gosched()
		}
	}
}

// copyMapped flips the mapped top-to-bottom rows into bottom-to-top order and drops padding.
func (t *wgpuTarget) copyMapped(buf *wgpu.Buffer, rowBytes, padded, rows int) []byte {
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	mapped := buf.GetMappedRange(0, uint(padded*rows))
	out := make([]byte, rowBytes*rows)
	for j := 0; j < rows; j++ {
		src := mapped[(rows-1-j)*padded:]
		copy(out[j*rowBytes:(j+1)*rowBytes], src[:rowBytes])
	}
	buf.Unmap()
	common.Logger().Debug("readback complete", zap.Int("bytes", len(out)), zap.Int("rows", rows))
	return out
}
