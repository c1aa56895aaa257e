package selector

import (
	"context"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/viewport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/Carmen-Shannon/oxy-pick/engine/selector"

// passesPerBatch is the number of target slots reserved for each batch.
const passesPerBatch = 4

// RenderEngine is the part of the renderer the picking subsystem drives.
// renderer.Renderer satisfies it.
type RenderEngine interface {
	// RenderOffscreen draws one encoding pass into an offscreen target.
	RenderOffscreen(ctx context.Context, vp viewport.Viewport, enc renderer.Encoding) (renderer.Target, error)

	// DepthBuffer returns the depth captured by the last pass with CaptureDepth set.
	DepthBuffer(ctx context.Context, vp viewport.Viewport) (renderer.Target, error)
}

// Encoder runs the offscreen ID passes of a viewport.
type Encoder interface {
	// Encode renders the viewport's visible pickable objects into ID targets. Objects are split
	// into batches that fit the code space of one pass. Each batch gets an object pass, a
	// composite pass when one of its objects is instanced, and attribute passes unless the
	// association is AssociationNone. The object pass always captures depth so hits can be
	// ordered nearest first.
	//
	// Parameters:
	//   - ctx: cancels the passes
	//   - vp: the viewport to encode
	//   - captureZ: expose depth and world positions on the hits even for a single batch
	//   - association: what the attribute passes encode
	//
	// Returns:
	//   - *EncodedBuffer: the targets of every pass, ready for Capture
	//   - error: an error if a pass fails
	Encode(ctx context.Context, vp viewport.Viewport, captureZ bool, association FieldAssociation) (*EncodedBuffer, error)
}

// EncodedBuffer is the result of one Encode call. Its targets belong to the viewport and are
// overwritten by the next Encode of that viewport.
type EncodedBuffer struct {
	viewport    viewport.Viewport
	generation  uint64
	width       int
	height      int
	association FieldAssociation
	exposeDepth bool
	invViewProj [16]float32
	batches     []*encodedBatch
}

// encodedBatch holds the pass targets of one batch. Object code c maps to objects[c-1].
type encodedBatch struct {
	objects   []game_object.GameObject
	object    renderer.Target
	composite renderer.Target
	attrLow   renderer.Target
	attrHigh  renderer.Target
	depth     renderer.Target
}

// Viewport returns the encoded viewport.
func (b *EncodedBuffer) Viewport() viewport.Viewport {
	return b.viewport
}

// Batches returns the number of batches the objects were split into.
func (b *EncodedBuffer) Batches() int {
	return len(b.batches)
}

// Passes returns the total number of offscreen passes that were rendered.
func (b *EncodedBuffer) Passes() int {
	n := 0
	for _, batch := range b.batches {
		for _, t := range []renderer.Target{batch.object, batch.composite, batch.attrLow, batch.attrHigh} {
			if t != nil {
				n++
			}
		}
	}
	return n
}

// DepthExposed reports whether decoded hits carry their depth and world position.
func (b *EncodedBuffer) DepthExposed() bool {
	return b.exposeDepth
}

type encoderImpl struct {
	engine   RenderEngine
	capacity int
	metrics  *pickMetrics
	tracer   trace.Tracer
}

var _ Encoder = &encoderImpl{}

// NewEncoder creates an Encoder that drives the given render engine.
//
// Parameters:
//   - engine: the render engine that rasterizes the passes
//   - options: functional options such as WithEncoderBatchCapacity
//
// Returns:
//   - Encoder: the new encoder
func NewEncoder(engine RenderEngine, options ...EncoderOption) Encoder {
	if engine == nil {
		panic("selector: NewEncoder requires a non-nil RenderEngine")
	}
	e := &encoderImpl{
		engine:   engine,
		capacity: renderer.MaxEncodedValue,
		metrics:  newPickMetrics(nil),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *encoderImpl) Encode(ctx context.Context, vp viewport.Viewport, captureZ bool, association FieldAssociation) (*EncodedBuffer, error) {
	ctx, span := e.tracer.Start(ctx, "selector.Encode", trace.WithAttributes(
		attribute.Int("viewport", vp.ID()),
		attribute.String("association", association.String()),
	))
	defer span.End()

	// Every pass uses this snapshot so a camera moving mid-encode cannot split winners
	// across passes.
	gen := vp.Generation()
	viewProj := vp.Camera().ViewProjectionMatrix()
	buf := &EncodedBuffer{
		viewport:    vp,
		generation:  gen,
		width:       vp.Width(),
		height:      vp.Height(),
		association: association,
	}
	if !common.Invert4(buf.invViewProj[:], viewProj[:]) {
		common.Identity(buf.invViewProj[:])
	}

	batches := planBatches(vp.Scene().Pickables(viewProj), e.capacity)
	buf.exposeDepth = captureZ || len(batches) > 1
	span.SetAttributes(attribute.Int("batches", len(batches)))

	for i, objects := range batches {
		batch, err := e.encodeBatch(ctx, vp, i, objects, viewProj, association)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		buf.batches = append(buf.batches, batch)
	}
	common.Logger().Debug("encoded viewport",
		zap.Int("viewport", vp.ID()),
		zap.Int("batches", len(buf.batches)),
		zap.Int("passes", buf.Passes()),
		zap.Bool("depth", buf.exposeDepth))
	return buf, nil
}

func (e *encoderImpl) encodeBatch(
	ctx context.Context,
	vp viewport.Viewport,
	index int,
	objects []game_object.GameObject,
	viewProj [16]float32,
	association FieldAssociation,
) (*encodedBatch, error) {
	batch := &encodedBatch{objects: objects}
	draws := make([]renderer.EncodedDraw, len(objects))
	instanced := false
	maxAttributes := 0
	for i, obj := range objects {
		draws[i] = renderer.EncodedDraw{Object: obj, Code: uint32(i + 1)}
		instanced = instanced || obj.InstanceCount() > 1
		if association == AssociationPoints {
			maxAttributes = max(maxAttributes, obj.PointCount())
		} else {
			maxAttributes = max(maxAttributes, obj.CellCount())
		}
	}

	attr := renderer.AttributeCell
	if association == AssociationPoints {
		attr = renderer.AttributePoint
	}
	pass := func(q renderer.Quantity, depth bool) (renderer.Target, error) {
		enc := renderer.Encoding{
			Quantity:     q,
			Attribute:    attr,
			Draws:        draws,
			ViewProj:     viewProj,
			CaptureDepth: depth,
			Slot:         index*passesPerBatch + int(q),
		}
		t, err := e.engine.RenderOffscreen(ctx, vp, enc)
		if err != nil {
			return nil, err
		}
		e.metrics.passes.WithLabelValues(q.String()).Inc()
		return t, nil
	}

	var err error
	if batch.object, err = pass(renderer.QuantityObject, true); err != nil {
		return nil, err
	}
	if batch.depth, err = e.engine.DepthBuffer(ctx, vp); err != nil {
		return nil, fmt.Errorf("depth of batch %d: %w", index, err)
	}
	if instanced {
		if batch.composite, err = pass(renderer.QuantityComposite, false); err != nil {
			return nil, err
		}
	}
	if association != AssociationNone {
		if batch.attrLow, err = pass(renderer.QuantityAttributeLow, false); err != nil {
			return nil, err
		}
		if maxAttributes > renderer.MaxEncodedValue+1 {
			if batch.attrHigh, err = pass(renderer.QuantityAttributeHigh, false); err != nil {
				return nil, err
			}
		}
	}
	return batch, nil
}

// planBatches splits objects into groups of at most capacity, keeping scene order. A scene
// that fits yields one batch; an empty scene yields one empty batch so the buffer still
// records the render state.
func planBatches(objects []game_object.GameObject, capacity int) [][]game_object.GameObject {
	capacity = max(capacity, 1)
	err := checkCapacity(len(objects), capacity)
	var capErr *EncodingCapacityError
	if !errors.As(err, &capErr) {
		return [][]game_object.GameObject{objects}
	}

	common.Logger().Debug("splitting pickables into batches", zap.Error(capErr))
	var batches [][]game_object.GameObject
	for start := 0; start < len(objects); start += capacity {
		batches = append(batches, objects[start:min(start+capacity, len(objects))])
	}
	return batches
}

func checkCapacity(objects, capacity int) error {
	if objects > capacity {
		return &EncodingCapacityError{Objects: objects, Capacity: capacity}
	}
	return nil
}
