package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"go.uber.org/zap"
)

// Profiler tracks frame rate, pick throughput and memory statistics. It logs a summary
// through the common logger once per update interval. Frames are counted on the render
// goroutine while picks resolve on the selector worker, so every method is safe for
// concurrent use.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration

	picks        int
	emptyPicks   int
	failedPicks  int
	pickTotal    time.Duration
	pickMax      time.Duration
	lastSnapshot Snapshot

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// Snapshot is the summary of one update interval.
type Snapshot struct {
	FPS         float64
	Picks       int
	EmptyPicks  int
	FailedPicks int
	PickMean    time.Duration
	PickMax     time.Duration
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithUpdateInterval sets how often Tick logs a summary.
//
// Parameters:
//   - d: the interval, zero logs on every tick
//
// Returns:
//   - ProfilerOption: the option
func WithUpdateInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// RecordPick adds one resolved pick to the current interval.
//
// Parameters:
//   - latency: time from submission to resolution
//   - hits: the number of hits, ignored when err is non-nil
//   - err: the pick error, if any
func (p *Profiler) RecordPick(latency time.Duration, hits int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case err != nil:
		p.failedPicks++
	case hits == 0:
		p.emptyPicks++
	}
	p.picks++
	p.pickTotal += latency
	p.pickMax = max(p.pickMax, latency)
}

// Last returns the summary of the most recently completed interval.
func (p *Profiler) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSnapshot
}

// Tick should be called once per frame. Logs the interval summary when the update interval
// has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)

	runtime.ReadMemStats(&p.memStats)
	snap := Snapshot{
		FPS:         float64(p.frameCount) / seconds,
		Picks:       p.picks,
		EmptyPicks:  p.emptyPicks,
		FailedPicks: p.failedPicks,
		PickMax:     p.pickMax,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds,
		GCCount:     p.memStats.NumGC,
	}
	if p.picks > 0 {
		snap.PickMean = p.pickTotal / time.Duration(p.picks)
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	var maxPause time.Duration
	start := p.lastGCCount
	if snap.GCCount-start > 256 {
		start = snap.GCCount - 256
	}
	for i := start; i < snap.GCCount; i++ {
		maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
	}

	common.Logger().Info("profiler",
		zap.Float64("fps", snap.FPS),
		zap.Int("picks", snap.Picks),
		zap.Int("empty_picks", snap.EmptyPicks),
		zap.Int("failed_picks", snap.FailedPicks),
		zap.Duration("pick_mean", snap.PickMean),
		zap.Duration("pick_max", snap.PickMax),
		zap.Float64("heap_mb", snap.HeapMB),
		zap.Float64("alloc_rate_mb", snap.AllocRateMB),
		zap.Uint32("gc", snap.GCCount),
		zap.Duration("gc_max_pause", maxPause))

	p.lastSnapshot = snap
	p.frameCount = 0
	p.picks, p.emptyPicks, p.failedPicks = 0, 0, 0
	p.pickTotal, p.pickMax = 0, 0
	p.lastTime = now
	p.lastGCCount = snap.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
