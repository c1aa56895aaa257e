package selector

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RawPixels is the host copy of one region of every pass of an EncodedBuffer. Pixel i of a
// pass slice is region pixel (X0 + i%w, Y0 + i/w), rows bottom to top.
type RawPixels struct {
	Region      common.Rect
	Association FieldAssociation
	// Depth reports whether hits expose their depth. Ordering uses the depth passes either way.
	Depth bool

	viewportID    int
	width, height int
	invViewProj   [16]float32
	batches       []rawBatch
}

type rawBatch struct {
	objects   []game_object.GameObject
	object    []byte
	composite []byte
	attrLow   []byte
	attrHigh  []byte
	depth     []byte
}

// Capture copies the region of every pass target of buf into host memory.
//
// Parameters:
//   - ctx: cancels the copy while GPU memory is being mapped
//   - buf: the encoded buffer to read
//   - region: the inclusive viewport-local rectangle to copy
//
// Returns:
//   - *RawPixels: the copied pixels
//   - error: an *InvalidRegionError for a bad region, a *ReadbackError when the buffer is
//     stale or a copy fails
func Capture(ctx context.Context, buf *EncodedBuffer, region common.Rect) (*RawPixels, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "selector.Capture", trace.WithAttributes(
		attribute.Int("viewport", buf.viewport.ID()),
		attribute.Int("pixels", region.Area()),
	))
	defer span.End()

	vp := buf.viewport
	if err := validateRegion(vp.ID(), region, buf.width, buf.height); err != nil {
		return nil, err
	}
	if err := checkFresh(buf); err != nil {
		span.RecordError(err)
		return nil, err
	}

	raw := &RawPixels{
		Region:      region,
		Association: buf.association,
		Depth:       buf.exposeDepth,
		viewportID:  vp.ID(),
		width:       buf.width,
		height:      buf.height,
		invViewProj: buf.invViewProj,
		batches:     make([]rawBatch, len(buf.batches)),
	}
	read := func(t renderer.Target, what string) ([]byte, error) {
		if t == nil {
			return nil, nil
		}
		data, err := t.ReadRegion(ctx, region)
		if err != nil {
			return nil, &ReadbackError{Viewport: vp.ID(), Err: fmt.Errorf("read %s target: %w", what, err)}
		}
		return data, nil
	}

	for i, batch := range buf.batches {
		rb := &raw.batches[i]
		rb.objects = batch.objects
		var err error
		if rb.object, err = read(batch.object, "object"); err != nil {
			return nil, err
		}
		if rb.composite, err = read(batch.composite, "composite"); err != nil {
			return nil, err
		}
		if rb.attrLow, err = read(batch.attrLow, "attribute"); err != nil {
			return nil, err
		}
		if rb.attrHigh, err = read(batch.attrHigh, "attribute high"); err != nil {
			return nil, err
		}
		if rb.depth, err = read(batch.depth, "depth"); err != nil {
			return nil, err
		}
	}

	// A resize during the copy leaves pixels of the old layout in raw.
	if err := checkFresh(buf); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return raw, nil
}

// checkFresh fails when the viewport was resized after buf was encoded, or has not been
// rendered since its last resize.
func checkFresh(buf *EncodedBuffer) error {
	vp := buf.viewport
	if vp.Generation() != buf.generation || !vp.Rendered() {
		return &ReadbackError{Viewport: vp.ID(), Err: ErrStaleBuffer}
	}
	if vp.Width() != buf.width || vp.Height() != buf.height {
		return &ReadbackError{Viewport: vp.ID(), Err: ErrStaleBuffer}
	}
	return nil
}
