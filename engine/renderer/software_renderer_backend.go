package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

// softwareView holds the host targets of one viewport.
type softwareView struct {
	mu      sync.Mutex
	display *hostTarget
	slots   map[int]*hostTarget
	depths  map[int]*hostTarget // keyed by slot so every batch keeps its own depth
	depth   *hostTarget         // most recent capture
}

type softwareRendererBackendImpl struct {
	mu    *sync.Mutex
	views map[int]*softwareView
}

var _ RendererBackend = &softwareRendererBackendImpl{}

func newSoftwareRendererBackend() RendererBackend {
	return &softwareRendererBackendImpl{
		mu:    &sync.Mutex{},
		views: make(map[int]*softwareView),
	}
}

func (b *softwareRendererBackendImpl) view(id int) *softwareView {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.views[id]
	if !ok {
		v = &softwareView{slots: make(map[int]*hostTarget), depths: make(map[int]*hostTarget)}
		b.views[id] = v
	}
	return v
}

func (b *softwareRendererBackendImpl) ConfigureSurface(width, height int) {}

func (b *softwareRendererBackendImpl) SetPresentMode(mode PresentMode) {}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	return nil
}

func (b *softwareRendererBackendImpl) DrawView(ctx context.Context, view View, items []DrawItem) error {
	v := b.view(view.ID)
	v.mu.Lock()
	defer v.mu.Unlock()

	v.display = sized(v.display, view.Width(), view.Height(), TargetFormatRGBA8)
	t := v.display
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear(view.Background.RGBA8())

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		px := item.Color.RGBA8()
		rasterizeItem(view, item, func(_ int, f fragment) {
			i := f.y*t.width + f.x
			if f.z < t.depth[i] {
				t.depth[i] = f.z
				t.setPixel(f.x, f.y, px)
			}
		})
	}
	return nil
}

func (b *softwareRendererBackendImpl) EndFrame() {}

func (b *softwareRendererBackendImpl) Present() {}

func (b *softwareRendererBackendImpl) Encode(ctx context.Context, view View, items []DrawItem, enc Encoding) (Target, error) {
	v := b.view(view.ID)
	v.mu.Lock()
	defer v.mu.Unlock()

	w, h := view.Width(), view.Height()
	t := sized(v.slots[enc.Slot], w, h, TargetFormatRGBA8)
	v.slots[enc.Slot] = t
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear([4]byte{})

	var d *hostTarget
	if enc.CaptureDepth {
		d = sized(v.depths[enc.Slot], w, h, TargetFormatDepth32)
		v.depths[enc.Slot] = d
		v.depth = d
		d.mu.Lock()
		defer d.mu.Unlock()
		d.clearDepth()
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rasterizeItem(view, item, func(instance int, f fragment) {
			i := f.y*t.width + f.x
			if f.z >= t.depth[i] {
				return
			}
			t.depth[i] = f.z
			t.setPixel(f.x, f.y, PackValue(enc.Value(item.Code, instance, f.cell, f.point)))
			if d != nil {
				d.setDepth(f.x, f.y, f.z)
			}
		})
	}
	return t, nil
}

func (b *softwareRendererBackendImpl) DepthTarget(viewID int) (Target, error) {
	v := b.view(viewID)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.depth == nil {
		return nil, errors.New("no depth captured for viewport")
	}
	return v.depth, nil
}

func (b *softwareRendererBackendImpl) DisplayTarget(viewID int) (Target, error) {
	v := b.view(viewID)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.display == nil {
		return nil, fmt.Errorf("viewport %d has not been drawn", viewID)
	}
	return v.display, nil
}

func (b *softwareRendererBackendImpl) ReleaseView(viewID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.views, viewID)
}

func (b *softwareRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.views)
}

// sized returns t when it already matches the size, otherwise a fresh target. Targets handed
// out earlier stay valid and keep their old contents.
func sized(t *hostTarget, width, height int, format TargetFormat) *hostTarget {
	if t != nil && t.width == width && t.height == height {
		return t
	}
	return newHostTarget(width, height, format)
}

// rasterizeItem emits the fragments of every instance of an item in draw order.
func rasterizeItem(view View, item DrawItem, emit func(instance int, f fragment)) {
	w, h := view.Width(), view.Height()
	mvp := make([]float32, 16)
	for instance, m := range item.Instances {
		common.Mul4(mvp, view.ViewProj[:], m)
		verts := project(mvp, item.Mesh.Model, w, h)
		r := rasterizer{
			width:     w,
			height:    h,
			pointSize: pointPixels(item.PointSize),
			emit: func(f fragment) {
				emit(instance, f)
			},
		}
		for _, top := range meshTopologies {
			for _, p := range item.Mesh.Primitives {
				if p.Topology == top {
					r.primitive(p, verts)
				}
			}
		}
	}
}

func pointPixels(size float32) int {
	return max(int(size+0.5), 1)
}
