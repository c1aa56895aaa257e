package selector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrClosed is returned by PickAsync after Close.
var ErrClosed = errors.New("selector closed")

// maxAttempts is the first try plus one retry after a failed encode or readback.
const maxAttempts = 2

// viewportConfig is the pick configuration of one viewport.
type viewportConfig struct {
	association FieldAssociation
	captureZ    bool
}

type selectorImpl struct {
	mu *sync.Mutex

	engine  RenderEngine
	encoder Encoder
	pool    worker.DynamicWorkerPool
	metrics *pickMetrics
	tracer  trace.Tracer

	defaults  viewportConfig
	overrides map[int]viewportConfig
	locks     map[int]*sync.Mutex

	capacity   int
	queueSize  int
	registerer prometheus.Registerer

	seq     atomic.Uint64
	taskID  int
	pending int
	drained sync.WaitGroup
	closed  bool
	stop    sync.Once
}

// Selector is the asynchronous hardware picking entry point.
//
// Picks are queued on a single worker and run in submission order. Each pick encodes the
// viewport offscreen, reads back only the requested rectangle, and decodes it into a
// Selection. Only one encode per viewport is in flight at any time.
type Selector interface {
	// SetFieldAssociation sets the default association for viewports without an override.
	// Picks already queued keep the configuration they were submitted with.
	//
	// Parameters:
	//   - mode: the association
	SetFieldAssociation(mode FieldAssociation)

	// FieldAssociation returns the default association.
	FieldAssociation() FieldAssociation

	// SetCaptureZValues sets whether single-batch picks expose z values by default. Hits are
	// ordered nearest first either way, but without z values they carry no depth or world
	// position.
	//
	// Parameters:
	//   - capture: true to expose z values
	SetCaptureZValues(capture bool)

	// CaptureZValues returns the default depth capture flag.
	CaptureZValues() bool

	// SetViewportFieldAssociation overrides the association for one viewport.
	//
	// Parameters:
	//   - vp: the viewport
	//   - mode: the association
	SetViewportFieldAssociation(vp viewport.Viewport, mode FieldAssociation)

	// SetViewportCaptureZValues overrides the depth capture flag for one viewport.
	//
	// Parameters:
	//   - vp: the viewport
	//   - capture: true to capture depth
	SetViewportCaptureZValues(vp viewport.Viewport, capture bool)

	// ViewportConfig returns the effective association and depth flag for a viewport.
	//
	// Parameters:
	//   - vp: the viewport
	//
	// Returns:
	//   - FieldAssociation: the association picks of vp use
	//   - bool: whether picks of vp capture depth
	ViewportConfig(vp viewport.Viewport) (FieldAssociation, bool)

	// PickAsync validates the rectangle and queues a pick. It never waits for the GPU or for
	// queue space: once the queue holds its full size of pending picks it rejects the pick.
	//
	// Parameters:
	//   - ctx: cancels the pick while it is queued or running
	//   - vp: the viewport to pick in
	//   - x0, y0, x1, y1: inclusive viewport-local pixel bounds, bottom-left origin
	//
	// Returns:
	//   - *PickRequest: the handle that resolves to the Selection
	//   - error: an *InvalidRegionError when the rectangle is inverted or leaves the
	//     viewport, a *QueueFullError when the queue is full, ErrClosed after Close
	PickAsync(ctx context.Context, vp viewport.Viewport, x0, y0, x1, y1 int) (*PickRequest, error)

	// Pick is PickAsync followed by Wait.
	//
	// Parameters:
	//   - ctx: cancels the pick
	//   - vp: the viewport to pick in
	//   - x0, y0, x1, y1: inclusive viewport-local pixel bounds, bottom-left origin
	//
	// Returns:
	//   - *Selection: the selection, or nil when the viewport is not pickable
	//   - error: an *InvalidRegionError, a *ReadbackError or ctx.Err()
	Pick(ctx context.Context, vp viewport.Viewport, x0, y0, x1, y1 int) (*Selection, error)

	// Close stops accepting picks, waits for the queued picks to resolve and stops the
	// worker. It is safe to call more than once.
	Close()
}

var _ Selector = &selectorImpl{}

// NewSelector creates a Selector driving the given render engine.
//
// Parameters:
//   - engine: the render engine, usually a renderer.Renderer
//   - options: functional options to configure the selector
//
// Returns:
//   - Selector: the new selector
func NewSelector(engine RenderEngine, options ...SelectorBuilderOption) Selector {
	if engine == nil {
		panic("selector: NewSelector requires a non-nil RenderEngine")
	}
	s := &selectorImpl{
		mu:        &sync.Mutex{},
		engine:    engine,
		tracer:    otel.Tracer(tracerName),
		defaults:  viewportConfig{association: AssociationCells},
		overrides: make(map[int]viewportConfig),
		locks:     make(map[int]*sync.Mutex),
		queueSize: 256,
	}
	for _, opt := range options {
		opt(s)
	}
	s.metrics = newPickMetrics(s.registerer)

	encoderOptions := []EncoderOption{withEncoderMetrics(s.metrics)}
	if s.capacity > 0 {
		encoderOptions = append(encoderOptions, WithEncoderBatchCapacity(s.capacity))
	}
	s.encoder = NewEncoder(engine, encoderOptions...)

	// One worker keeps every pick in submission order.
	s.pool = worker.NewDynamicWorkerPool(1, s.queueSize, 1*time.Second)
	return s
}

func (s *selectorImpl) SetFieldAssociation(mode FieldAssociation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults.association = mode
}

func (s *selectorImpl) FieldAssociation() FieldAssociation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults.association
}

func (s *selectorImpl) SetCaptureZValues(capture bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults.captureZ = capture
}

func (s *selectorImpl) CaptureZValues() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults.captureZ
}

func (s *selectorImpl) SetViewportFieldAssociation(vp viewport.Viewport, mode FieldAssociation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.configLocked(vp.ID())
	cfg.association = mode
	s.overrides[vp.ID()] = cfg
}

func (s *selectorImpl) SetViewportCaptureZValues(vp viewport.Viewport, capture bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.configLocked(vp.ID())
	cfg.captureZ = capture
	s.overrides[vp.ID()] = cfg
}

func (s *selectorImpl) ViewportConfig(vp viewport.Viewport) (FieldAssociation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.configLocked(vp.ID())
	return cfg.association, cfg.captureZ
}

func (s *selectorImpl) PickAsync(ctx context.Context, vp viewport.Viewport, x0, y0, x1, y1 int) (*PickRequest, error) {
	region := common.NewRect(x0, y0, x1, y1)
	if err := validateRegion(vp.ID(), region, vp.Width(), vp.Height()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	// pending counts the running pick too, so the pool channel always has room and
	// SubmitTask below never blocks.
	if s.pending >= s.queueSize {
		pending := s.pending
		s.mu.Unlock()
		s.metrics.picks.WithLabelValues(outcomeRejected).Inc()
		return nil, &QueueFullError{Viewport: vp.ID(), Pending: pending}
	}
	s.pending++
	s.drained.Add(1)
	cfg := s.configLocked(vp.ID())
	id := s.taskID
	s.taskID++
	s.mu.Unlock()

	req := newPickRequest(s.seq.Add(1), vp.ID(), region)
	s.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer s.done()
			sel, err := s.run(ctx, vp, region, cfg)
			req.resolve(sel, err)
			return nil, nil
		},
	})
	return req, nil
}

// done releases the queue slot of a finished pick.
func (s *selectorImpl) done() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
	s.drained.Done()
}

func (s *selectorImpl) Pick(ctx context.Context, vp viewport.Viewport, x0, y0, x1, y1 int) (*Selection, error) {
	req, err := s.PickAsync(ctx, vp, x0, y0, x1, y1)
	if err != nil {
		return nil, err
	}
	return req.Wait(ctx)
}

func (s *selectorImpl) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stop.Do(func() {
		s.drained.Wait()
		s.pool.Stop()
	})
}

// run executes one pick on the worker.
func (s *selectorImpl) run(ctx context.Context, vp viewport.Viewport, region common.Rect, cfg viewportConfig) (*Selection, error) {
	ctx, span := s.tracer.Start(ctx, "selector.Pick", trace.WithAttributes(
		attribute.Int("viewport", vp.ID()),
		attribute.String("region", region.String()),
	))
	defer span.End()

	start := time.Now()
	lock := s.viewportLock(vp.ID())
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		s.metrics.picks.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	if !vp.Pickable() {
		s.metrics.picks.WithLabelValues(outcomeNotReady).Inc()
		return nil, nil
	}
	// The viewport may have shrunk while the pick was queued.
	if err := validateRegion(vp.ID(), region, vp.Width(), vp.Height()); err != nil {
		s.metrics.picks.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sel, err := s.attempt(ctx, vp, region, cfg)
		if err == nil {
			s.metrics.latency.Observe(time.Since(start).Seconds())
			outcome := outcomeHit
			if sel.Empty() {
				outcome = outcomeEmpty
			}
			s.metrics.picks.WithLabelValues(outcome).Inc()
			span.SetAttributes(attribute.Int("hits", sel.Len()))
			return sel, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			lastErr = ctxErr
			break
		}
		var invalid *InvalidRegionError
		if errors.As(err, &invalid) {
			lastErr = err
			break
		}
		lastErr = err
		if attempt < maxAttempts {
			s.metrics.retries.Inc()
			common.Logger().Warn("pick failed, retrying",
				zap.Int("viewport", vp.ID()),
				zap.Stringer("region", region),
				zap.Error(err))
		}
	}

	s.metrics.picks.WithLabelValues(outcomeError).Inc()
	span.RecordError(lastErr)
	var readback *ReadbackError
	var invalid *InvalidRegionError
	if ctx.Err() == nil && !errors.As(lastErr, &readback) && !errors.As(lastErr, &invalid) {
		lastErr = &ReadbackError{Viewport: vp.ID(), Err: lastErr}
	}
	return nil, lastErr
}

func (s *selectorImpl) attempt(ctx context.Context, vp viewport.Viewport, region common.Rect, cfg viewportConfig) (*Selection, error) {
	buf, err := s.encoder.Encode(ctx, vp, cfg.captureZ, cfg.association)
	if err != nil {
		return nil, err
	}
	raw, err := Capture(ctx, buf, region)
	if err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, "selector.Decode")
	hits := Decode(raw, region, cfg.association)
	span.End()

	return &Selection{
		viewportID:  vp.ID(),
		region:      region,
		association: cfg.association,
		hits:        hits,
	}, nil
}

// configLocked returns the effective configuration of a viewport. Caller must hold s.mu.
func (s *selectorImpl) configLocked(id int) viewportConfig {
	if cfg, ok := s.overrides[id]; ok {
		return cfg
	}
	return s.defaults
}

func (s *selectorImpl) viewportLock(id int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
