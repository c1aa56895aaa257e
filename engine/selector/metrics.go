package selector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pick outcomes recorded by the picks counter.
const (
	outcomeHit      = "hit"
	outcomeEmpty    = "empty"
	outcomeNotReady = "not_ready"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

// pickMetrics groups the Prometheus collectors of one selector.
type pickMetrics struct {
	latency prometheus.Histogram
	picks   *prometheus.CounterVec
	passes  *prometheus.CounterVec
	retries prometheus.Counter
}

// newPickMetrics builds the collectors and registers them on reg. A nil registerer leaves
// them unregistered, which keeps several selectors in one process from colliding.
func newPickMetrics(reg prometheus.Registerer) *pickMetrics {
	m := &pickMetrics{
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "oxy_pick",
			Name:      "pick_duration_seconds",
			Help:      "Time from dequeue to decoded selection, by pick.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oxy_pick",
			Name:      "picks_total",
			Help:      "Picks by outcome, including picks rejected by a full queue.",
		}, []string{"outcome"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oxy_pick",
			Name:      "encode_passes_total",
			Help:      "Offscreen encoding passes by encoded quantity.",
		}, []string{"quantity"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oxy_pick",
			Name:      "readback_retries_total",
			Help:      "Picks re-encoded after a failed readback.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.latency, m.picks, m.passes, m.retries)
	}
	return m
}
