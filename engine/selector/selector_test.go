package selector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The test camera orbits at radius 5 looking down -Z with a 30 degree field of view, so a
// unit cube at the origin covers roughly pixels 19..45 of a 64x64 viewport.
const size = 64

func cube(name string, edge float32, options ...game_object.GameObjectBuilderOption) game_object.GameObject {
	opts := append([]game_object.GameObjectBuilderOption{
		game_object.WithName(name),
		game_object.WithModel(model.NewCube(name, edge)),
	}, options...)
	return game_object.NewGameObject(opts...)
}

func newViewport(t *testing.T, objects ...game_object.GameObject) viewport.Viewport {
	t.Helper()
	scn := scene.NewScene("pick", scene.WithObjects(objects...))
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(5))))
	return viewport.NewViewport(0, common.NewRect(0, 0, size-1, size-1), viewport.WithCamera(cam), viewport.WithScene(scn))
}

func newRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, nil)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func render(t *testing.T, r renderer.Renderer, vp viewport.Viewport) {
	t.Helper()
	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Render(context.Background(), vp))
	r.EndFrame()
	r.Present()
}

func newSelector(t *testing.T, engine RenderEngine, options ...SelectorBuilderOption) Selector {
	t.Helper()
	s := NewSelector(engine, options...)
	t.Cleanup(s.Close)
	return s
}

func pick(t *testing.T, s Selector, vp viewport.Viewport, x0, y0, x1, y1 int) *Selection {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sel, err := s.Pick(ctx, vp, x0, y0, x1, y1)
	require.NoError(t, err)
	require.NotNil(t, sel)
	return sel
}

func objectIDs(sel *Selection) []uint64 {
	var ids []uint64
	for _, h := range sel.Hits() {
		ids = append(ids, h.ObjectID)
	}
	return ids
}

func TestPickBackgroundIsEmpty(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	s := newSelector(t, r)

	sel := pick(t, s, vp, 0, 0, 3, 3)
	assert.True(t, sel.Empty())
	assert.NotNil(t, sel.Hits())
	_, ok := sel.Nearest()
	assert.False(t, ok)
}

func TestPickSingleObject(t *testing.T) {
	r := newRenderer(t)
	obj := cube("cube", 1)
	vp := newViewport(t, obj)
	render(t, r, vp)
	s := newSelector(t, r)

	sel := pick(t, s, vp, 32, 32, 32, 32)
	require.Equal(t, 1, sel.Len())
	hit, ok := sel.Nearest()
	require.True(t, ok)
	assert.Equal(t, obj.ID(), hit.ObjectID)
	assert.Same(t, obj, hit.Object)
	assert.True(t, hit.HasAttributeID)
	assert.Equal(t, uint64(1), hit.AttributeID, "the camera faces the +z quad, cell 1")
	assert.False(t, hit.HasCompositeID)
	assert.False(t, hit.HasDepth)
	assert.Equal(t, AssociationCells, sel.Association())
	assert.Equal(t, common.NewRect(32, 32, 32, 32), sel.Region())
	assert.Equal(t, vp.ID(), sel.ViewportID())
}

func TestPickIsIdempotent(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	s := newSelector(t, r, WithCaptureZValues(true))

	first := pick(t, s, vp, 0, 0, size-1, size-1)
	second := pick(t, s, vp, 0, 0, size-1, size-1)
	require.Equal(t, first.Len(), second.Len())
	for i, h := range first.Hits() {
		other := second.Hits()[i]
		assert.Equal(t, h.ObjectID, other.ObjectID)
		assert.Equal(t, h.AttributeID, other.AttributeID)
		assert.Equal(t, h.Depth, other.Depth)
	}
}

func TestPickNearestFirst(t *testing.T) {
	r := newRenderer(t)
	front := cube("front", 1)
	back := cube("back", 3, game_object.WithPosition(0, 0, -2))
	vp := newViewport(t, back, front)
	render(t, r, vp)
	s := newSelector(t, r, WithCaptureZValues(true), WithFieldAssociation(AssociationNone))

	sel := pick(t, s, vp, 0, 0, size-1, size-1)
	assert.Equal(t, []uint64{front.ID(), back.ID()}, objectIDs(sel))
	hits := sel.Hits()
	assert.Less(t, hits[0].Depth, hits[1].Depth)

	center := pick(t, s, vp, 32, 32, 32, 32)
	assert.Equal(t, []uint64{front.ID()}, objectIDs(center))
}

func TestPickNearestFirstWithDefaults(t *testing.T) {
	r := newRenderer(t)
	front := cube("front", 1)
	back := cube("back", 3, game_object.WithPosition(0, 0, -2))
	// back gets the lower ID and would lead in scan order.
	vp := newViewport(t, back, front)
	render(t, r, vp)
	s := newSelector(t, r)
	require.False(t, s.CaptureZValues())

	sel := pick(t, s, vp, 0, 0, size-1, size-1)
	hits := sel.Hits()
	require.NotEmpty(t, hits)
	assert.Equal(t, front.ID(), hits[0].ObjectID)
	assert.Equal(t, back.ID(), hits[len(hits)-1].ObjectID)
	for _, h := range hits {
		assert.False(t, h.HasDepth)
		assert.Zero(t, h.Depth)
	}
}

func TestSelectionHandsOutCopies(t *testing.T) {
	r := newRenderer(t)
	obj := cube("cube", 1)
	vp := newViewport(t, obj)
	render(t, r, vp)
	s := newSelector(t, r, WithCaptureZValues(true))

	sel := pick(t, s, vp, 32, 32, 32, 32)
	hit, ok := sel.Nearest()
	require.True(t, ok)
	world, ok := hit.WorldPosition()
	require.True(t, ok)

	hit.ObjectID, hit.Depth, hit.X = 99, 0.99, 0
	hits := sel.Hits()
	hits[0].AttributeID = 42

	again, _ := sel.Nearest()
	assert.Equal(t, obj.ID(), again.ObjectID)
	assert.Equal(t, 32, again.X)
	assert.NotEqual(t, uint64(42), again.AttributeID)
	cached, ok := again.WorldPosition()
	require.True(t, ok)
	assert.Equal(t, world, cached)
}

func TestPickBeforeFirstRenderIsNil(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	s := newSelector(t, r)

	sel, err := s.Pick(context.Background(), vp, 32, 32, 32, 32)
	require.NoError(t, err)
	assert.Nil(t, sel)

	render(t, r, vp)
	sel = pick(t, s, vp, 32, 32, 32, 32)
	assert.Equal(t, 1, sel.Len())
}

func TestPickWhileAnimatingIsNil(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	s := newSelector(t, r)

	vp.Camera().Controller().BeginInteraction()
	sel, err := s.Pick(context.Background(), vp, 32, 32, 32, 32)
	require.NoError(t, err)
	assert.Nil(t, sel)

	vp.Camera().Controller().EndInteraction()
	sel = pick(t, s, vp, 32, 32, 32, 32)
	assert.Equal(t, 1, sel.Len())
}

func TestPickInvalidRegion(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	s := newSelector(t, r)

	tests := []struct {
		name           string
		x0, y0, x1, y1 int
	}{
		{"x1 at width", 0, 0, size, 10},
		{"y1 at height", 0, 0, 10, size},
		{"negative origin", -1, 0, 10, 10},
		{"inverted", 10, 10, 5, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := s.PickAsync(context.Background(), vp, tt.x0, tt.y0, tt.x1, tt.y1)
			assert.Nil(t, req)
			require.ErrorIs(t, err, ErrInvalidRegion)
			var invalid *InvalidRegionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, size, invalid.Width)
			assert.Equal(t, vp.ID(), invalid.Viewport)
		})
	}
}

func TestPickCellsAndPoints(t *testing.T) {
	r := newRenderer(t)
	obj := cube("cube", 1)
	vp := newViewport(t, obj)
	render(t, r, vp)
	s := newSelector(t, r)

	sel := pick(t, s, vp, 32, 32, 32, 32)
	hit, _ := sel.Nearest()
	assert.Equal(t, uint64(1), hit.AttributeID)

	s.SetFieldAssociation(AssociationPoints)
	sel = pick(t, s, vp, 43, 41, 43, 41)
	hit, _ = sel.Nearest()
	assert.Equal(t, AssociationPoints, sel.Association())
	assert.Equal(t, uint64(6), hit.AttributeID, "nearest corner of the +z quad is point 6")

	s.SetFieldAssociation(AssociationNone)
	sel = pick(t, s, vp, 32, 32, 32, 32)
	hit, _ = sel.Nearest()
	assert.False(t, hit.HasAttributeID)
	assert.Equal(t, obj.ID(), hit.ObjectID)
}

func TestPickViewportOverrides(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	s := newSelector(t, r)

	s.SetViewportFieldAssociation(vp, AssociationNone)
	s.SetViewportCaptureZValues(vp, true)
	s.SetFieldAssociation(AssociationPoints)

	mode, captureZ := s.ViewportConfig(vp)
	assert.Equal(t, AssociationNone, mode)
	assert.True(t, captureZ)
	assert.Equal(t, AssociationPoints, s.FieldAssociation())
	assert.False(t, s.CaptureZValues())

	sel := pick(t, s, vp, 32, 32, 32, 32)
	hit, _ := sel.Nearest()
	assert.False(t, hit.HasAttributeID)
	assert.True(t, hit.HasDepth)
}

func TestPickBatchesMergeByDepth(t *testing.T) {
	r := newRenderer(t)
	back := cube("back", 3, game_object.WithPosition(0, 0, -2))
	front := cube("front", 1)
	// back gets the lower ID, so it lands in the first batch.
	vp := newViewport(t, back, front)
	render(t, r, vp)
	s := newSelector(t, r, WithBatchCapacity(1), WithFieldAssociation(AssociationNone))

	center := pick(t, s, vp, 32, 32, 32, 32)
	assert.Equal(t, []uint64{front.ID()}, objectIDs(center))

	all := pick(t, s, vp, 0, 0, size-1, size-1)
	assert.Equal(t, []uint64{front.ID(), back.ID()}, objectIDs(all))
	for _, h := range all.Hits() {
		assert.True(t, h.HasDepth, "several batches always capture depth")
	}
}

func TestPickGlyphCompositeID(t *testing.T) {
	r := newRenderer(t)
	source := model.NewModel(model.WithName("pair"), model.WithPoints([][3]float32{{-1, 0, 0}, {1, 0, 0}}))
	glyphs := cube("glyph", 0.5, game_object.WithGlyphSource(source, 1))
	vp := newViewport(t, glyphs)
	render(t, r, vp)
	s := newSelector(t, r, WithFieldAssociation(AssociationNone))

	left := pick(t, s, vp, 7, 32, 7, 32)
	hit, ok := left.Nearest()
	require.True(t, ok)
	assert.True(t, hit.HasCompositeID)
	assert.Equal(t, 0, hit.CompositeID)

	right := pick(t, s, vp, 57, 32, 57, 32)
	hit, ok = right.Nearest()
	require.True(t, ok)
	assert.Equal(t, 1, hit.CompositeID)

	all := pick(t, s, vp, 0, 0, size-1, size-1)
	assert.Equal(t, 2, all.Len())
}

func TestHitWorldPosition(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)

	s := newSelector(t, r)
	hit, _ := pick(t, s, vp, 32, 32, 32, 32).Nearest()
	_, ok := hit.WorldPosition()
	assert.False(t, ok, "no depth, no world position")

	s.SetCaptureZValues(true)
	hit, _ = pick(t, s, vp, 32, 32, 32, 32).Nearest()
	world, ok := hit.WorldPosition()
	require.True(t, ok)
	assert.InDelta(t, 0.5, world[2], 0.02)
	assert.InDelta(t, 0, world[0], 0.05)
	assert.InDelta(t, 0, world[1], 0.05)
}

// flakyEngine fails the first failures RenderOffscreen calls and forwards the rest.
type flakyEngine struct {
	mu       sync.Mutex
	calls    int
	failures int
	next     RenderEngine
}

func (f *flakyEngine) RenderOffscreen(ctx context.Context, vp viewport.Viewport, enc renderer.Encoding) (renderer.Target, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures || f.next == nil
	f.mu.Unlock()
	if fail {
		return nil, errors.New("device lost")
	}
	return f.next.RenderOffscreen(ctx, vp, enc)
}

func (f *flakyEngine) DepthBuffer(ctx context.Context, vp viewport.Viewport) (renderer.Target, error) {
	if f.next == nil {
		return nil, errors.New("device lost")
	}
	return f.next.DepthBuffer(ctx, vp)
}

func TestPickRetriesOnceThenFails(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)

	engine := &flakyEngine{failures: 100}
	reg := prometheus.NewRegistry()
	s := newSelector(t, engine, WithRegisterer(reg))

	sel, err := s.Pick(context.Background(), vp, 32, 32, 32, 32)
	assert.Nil(t, sel)
	require.ErrorIs(t, err, ErrReadback)
	var readback *ReadbackError
	require.ErrorAs(t, err, &readback)
	assert.Equal(t, vp.ID(), readback.Viewport)
	assert.Equal(t, 2, engine.calls)

	impl := s.(*selectorImpl)
	assert.Equal(t, float64(1), testutil.ToFloat64(impl.metrics.retries))
	assert.Equal(t, float64(1), testutil.ToFloat64(impl.metrics.picks.WithLabelValues(outcomeError)))
}

// unmappableEngine hands out targets whose first failures readbacks fail the way a
// rejected GPU buffer map does.
type unmappableEngine struct {
	failures atomic.Int32
	next     RenderEngine
}

type unmappableTarget struct {
	renderer.Target
	engine *unmappableEngine
}

func (e *unmappableEngine) RenderOffscreen(ctx context.Context, vp viewport.Viewport, enc renderer.Encoding) (renderer.Target, error) {
	t, err := e.next.RenderOffscreen(ctx, vp, enc)
	if err != nil {
		return nil, err
	}
	return &unmappableTarget{Target: t, engine: e}, nil
}

func (e *unmappableEngine) DepthBuffer(ctx context.Context, vp viewport.Viewport) (renderer.Target, error) {
	return e.next.DepthBuffer(ctx, vp)
}

func (t *unmappableTarget) ReadRegion(ctx context.Context, rect common.Rect) ([]byte, error) {
	if t.engine.failures.Add(-1) >= 0 {
		return nil, errors.New("map readback buffer: buffer is not mappable")
	}
	return t.Target.ReadRegion(ctx, rect)
}

func TestPickRetriesRejectedReadback(t *testing.T) {
	r := newRenderer(t)
	obj := cube("cube", 1)
	vp := newViewport(t, obj)
	render(t, r, vp)

	engine := &unmappableEngine{next: r}
	engine.failures.Store(1)
	s := newSelector(t, engine, WithRegisterer(prometheus.NewRegistry()))
	sel := pick(t, s, vp, 32, 32, 32, 32)
	hit, ok := sel.Nearest()
	require.True(t, ok)
	assert.Equal(t, obj.ID(), hit.ObjectID)
	assert.Equal(t, float64(1), testutil.ToFloat64(s.(*selectorImpl).metrics.retries))

	engine.failures.Store(100)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.Pick(ctx, vp, 32, 32, 32, 32)
	require.ErrorIs(t, err, ErrReadback)
	var readback *ReadbackError
	require.ErrorAs(t, err, &readback)
	assert.ErrorContains(t, err, "not mappable")
}

func TestPickRetrySucceeds(t *testing.T) {
	r := newRenderer(t)
	obj := cube("cube", 1)
	vp := newViewport(t, obj)
	render(t, r, vp)

	engine := &flakyEngine{failures: 1, next: r}
	s := newSelector(t, engine)

	sel := pick(t, s, vp, 32, 32, 32, 32)
	assert.Equal(t, []uint64{obj.ID()}, objectIDs(sel))
}

func TestPickAsyncOrderAndSeq(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	s := newSelector(t, r)

	ctx := context.Background()
	first, err := s.PickAsync(ctx, vp, 0, 0, 0, 0)
	require.NoError(t, err)
	second, err := s.PickAsync(ctx, vp, 32, 32, 32, 32)
	require.NoError(t, err)
	assert.Less(t, first.Seq(), second.Seq())

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	sel, err := second.Wait(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Len())

	select {
	case <-first.Done():
	default:
		t.Fatal("earlier request must resolve before a later one")
	}
	sel, err = first.Result()
	require.NoError(t, err)
	assert.True(t, sel.Empty())
}

func TestSelectorClose(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	s := NewSelector(r)
	s.Close()
	s.Close()

	_, err := s.PickAsync(context.Background(), vp, 0, 0, 0, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

// stalledEngine blocks every RenderOffscreen call until release is closed.
type stalledEngine struct {
	release chan struct{}
	entered chan struct{}
	next    RenderEngine
}

func newStalledEngine(next RenderEngine) *stalledEngine {
	return &stalledEngine{release: make(chan struct{}), entered: make(chan struct{}, 64), next: next}
}

func (e *stalledEngine) RenderOffscreen(ctx context.Context, vp viewport.Viewport, enc renderer.Encoding) (renderer.Target, error) {
	select {
	case e.entered <- struct{}{}:
	default:
	}
	<-e.release
	return e.next.RenderOffscreen(ctx, vp, enc)
}

func (e *stalledEngine) DepthBuffer(ctx context.Context, vp viewport.Viewport) (renderer.Target, error) {
	return e.next.DepthBuffer(ctx, vp)
}

func TestPickAsyncRejectsWhenQueueFull(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	engine := newStalledEngine(r)
	reg := prometheus.NewRegistry()
	s := newSelector(t, engine, WithQueueSize(2), WithRegisterer(reg))
	t.Cleanup(func() { close(engine.release) })

	type outcome struct {
		accepted []*PickRequest
		rejected []error
	}
	result := make(chan outcome, 1)
	go func() {
		var out outcome
		for range 10 {
			req, err := s.PickAsync(context.Background(), vp, 32, 32, 32, 32)
			if err != nil {
				out.rejected = append(out.rejected, err)
				continue
			}
			out.accepted = append(out.accepted, req)
		}
		result <- out
	}()

	var out outcome
	select {
	case out = <-result:
	case <-time.After(5 * time.Second):
		t.Fatal("PickAsync blocked on a stalled render engine")
	}
	require.Len(t, out.accepted, 2, "one running pick plus one queued")
	require.Len(t, out.rejected, 8)
	for _, err := range out.rejected {
		require.ErrorIs(t, err, ErrQueueFull)
		var full *QueueFullError
		require.ErrorAs(t, err, &full)
		assert.Equal(t, vp.ID(), full.Viewport)
		assert.Equal(t, 2, full.Pending)
	}
	impl := s.(*selectorImpl)
	assert.Equal(t, float64(8), testutil.ToFloat64(impl.metrics.picks.WithLabelValues(outcomeRejected)))
}

func TestSelectorCloseDrainsQueue(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)
	engine := newStalledEngine(r)
	s := NewSelector(engine)

	first, err := s.PickAsync(context.Background(), vp, 32, 32, 32, 32)
	require.NoError(t, err)
	second, err := s.PickAsync(context.Background(), vp, 0, 0, 0, 0)
	require.NoError(t, err)
	<-engine.entered

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while picks were queued")
	case <-time.After(50 * time.Millisecond):
	}

	close(engine.release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the queue drained")
	}
	for _, req := range []*PickRequest{first, second} {
		select {
		case <-req.Done():
		default:
			t.Fatal("queued pick left unresolved by Close")
		}
	}
	sel, err := first.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Len())
	_, err = s.PickAsync(context.Background(), vp, 0, 0, 0, 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCaptureStaleAfterResize(t *testing.T) {
	r := newRenderer(t)
	vp := newViewport(t, cube("cube", 1))
	render(t, r, vp)

	buf, err := NewEncoder(r).Encode(context.Background(), vp, false, AssociationCells)
	require.NoError(t, err)
	assert.Equal(t, 1, buf.Batches())
	assert.Equal(t, 2, buf.Passes(), "object and cell passes")

	vp.Resize(common.NewRect(0, 0, 31, 31))
	_, err = Capture(context.Background(), buf, common.NewRect(0, 0, 0, 0))
	require.ErrorIs(t, err, ErrReadback)
	assert.ErrorIs(t, err, ErrStaleBuffer)
}

func TestNewSelectorPanicsWithoutEngine(t *testing.T) {
	assert.Panics(t, func() { NewSelector(nil) })
	assert.Panics(t, func() { WithQueueSize(0) })
}

func TestPickSeventhObjectThirdCell(t *testing.T) {
	r := newRenderer(t)
	offscreen := make([]game_object.GameObject, 6)
	for i := range offscreen {
		offscreen[i] = cube("far", 1, game_object.WithPosition(100, 0, 0))
	}
	// Cells 0..2 sit outside the view; cell 3 covers the origin.
	tris := model.NewModel(
		model.WithName("tris"),
		model.WithPoints([][3]float32{
			{10, 0, 0}, {11, 0, 0}, {10, 1, 0},
			{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0, 0.5, 0},
		}),
		model.WithPolygons([]uint32{0, 1, 2}, []uint32{1, 0, 2}, []uint32{2, 1, 0}, []uint32{3, 4, 5}),
	)
	target := game_object.NewGameObject(game_object.WithName("target"), game_object.WithModel(tris))
	vp := newViewport(t, append(offscreen, target)...)
	render(t, r, vp)
	s := newSelector(t, r, WithFieldAssociation(AssociationCells))

	require.Equal(t, uint64(7), target.ID())
	sel := pick(t, s, vp, 32, 32, 32, 32)
	require.Equal(t, 1, sel.Len())
	hit, _ := sel.Nearest()
	assert.Equal(t, uint64(7), hit.ObjectID)
	assert.Equal(t, uint64(3), hit.AttributeID)
}
