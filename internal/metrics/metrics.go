// Package metrics provides Prometheus collectors for the reduction and
// prediction pipelines. The tool is a batch CLI, so instead of serving
// /metrics the registry is dumped in node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns a private registry and the pipeline collectors.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	gamesReduced    *prometheus.CounterVec
	slicesEmitted   prometheus.Counter
	overtimeEmitted *prometheus.CounterVec
	windowsBuilt    *prometheus.CounterVec
	reduceErrors    prometheus.Counter
	reduceLatency   prometheus.Histogram

	inferenceLatency *prometheus.HistogramVec
	predictions      *prometheus.CounterVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithHistogramBuckets sets the latency buckets, in seconds.
func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.buckets = b
		}
	}
}

// New creates a Manager on a fresh registry.
func New(opts ...Option) *Manager {
	m := &Manager{
		namespace: "hockeymeter",
		buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.gamesReduced = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reduce",
		Name:      "games_total",
		Help:      "Games reduced, by regime.",
	}, []string{"regime"})
	m.slicesEmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reduce",
		Name:      "slices_total",
		Help:      "Regulation slices emitted.",
	})
	m.overtimeEmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reduce",
		Name:      "overtime_rows_total",
		Help:      "Overtime rows emitted, by regime.",
	}, []string{"regime"})
	m.windowsBuilt = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "features",
		Name:      "windows_total",
		Help:      "Overtime windows built, by regime.",
	}, []string{"regime"})
	m.reduceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "reduce",
		Name:      "errors_total",
		Help:      "Games whose reduction failed.",
	})
	m.reduceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "reduce",
		Name:      "game_duration_seconds",
		Help:      "Per-game reduction latency.",
		Buckets:   m.buckets,
	})
	m.inferenceLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "inference",
		Name:      "duration_seconds",
		Help:      "Model inference latency, by regime.",
		Buckets:   m.buckets,
	}, []string{"regime"})
	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "meter",
		Name:      "predictions_total",
		Help:      "Timeline requests, by outcome (ok or unavailable).",
	}, []string{"outcome"})
	return m
}

// Registry exposes the private registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// RecordGame counts one reduced game and its latency.
func (m *Manager) RecordGame(regime string, slices, overtimeRows int, d time.Duration) {
	if m == nil {
		return
	}
	m.gamesReduced.WithLabelValues(regime).Inc()
	m.slicesEmitted.Add(float64(slices))
	if overtimeRows > 0 {
		m.overtimeEmitted.WithLabelValues(regime).Add(float64(overtimeRows))
	}
	m.reduceLatency.Observe(d.Seconds())
}

// RecordReduceError counts a failed game.
func (m *Manager) RecordReduceError() {
	if m == nil {
		return
	}
	m.reduceErrors.Inc()
}

// RecordWindows counts windows built for a regime.
func (m *Manager) RecordWindows(regime string, n int) {
	if m == nil {
		return
	}
	m.windowsBuilt.WithLabelValues(regime).Add(float64(n))
}

// RecordInference observes one model call.
func (m *Manager) RecordInference(regime string, d time.Duration) {
	if m == nil {
		return
	}
	m.inferenceLatency.WithLabelValues(regime).Observe(d.Seconds())
}

// RecordPrediction counts a timeline request outcome.
func (m *Manager) RecordPrediction(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "unavailable"
	}
	m.predictions.WithLabelValues(outcome).Inc()
}

// WriteTextfile dumps the registry to path for the node-exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
