package minimax

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCacheHit    = "cache_hit"
	outcomeConstructed = "constructed"
	outcomeNotFound    = "not_found"
	outcomeFailed      = "failed"
)

// Metrics exposes the provider activity as prometheus collectors.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	resolutions  *prometheus.CounterVec
	constructing *prometheus.HistogramVec
	discarded    *prometheus.CounterVec
	singletons   prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "resolutions_total",
				Help:      "Number of service resolutions, by identifier and outcome.",
			},
			[]string{"identifier", "outcome"},
		),
		constructing: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "construction_duration_seconds",
				Help:      "Time spent in service factories.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"identifier"},
		),
		discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "discarded_singletons_total",
				Help:      "Singletons built concurrently and discarded because another instance was cached first.",
			},
			[]string{"identifier"},
		),
		singletons: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "cached_singletons",
				Help:      "Number of singletons currently cached.",
			},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.resolutions.Describe(ch)
	m.constructing.Describe(ch)
	m.discarded.Describe(ch)
	m.singletons.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.resolutions.Collect(ch)
	m.constructing.Collect(ch)
	m.discarded.Collect(ch)
	m.singletons.Collect(ch)
}

// register adds m to reg, reusing an already registered collector with the
// same descriptors.
func (m *Metrics) register(reg prometheus.Registerer) (*Metrics, error) {
	if err := reg.Register(m); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*Metrics); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return m, nil
}

func (m *Metrics) resolved(id Identifier, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(id.String(), outcome).Inc()
}

func (m *Metrics) constructed(id Identifier, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.constructing.WithLabelValues(id.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) discardedSingleton(id Identifier) {
	if m == nil {
		return
	}
	m.discarded.WithLabelValues(id.String()).Inc()
}

func (m *Metrics) singletonCached() {
	if m == nil {
		return
	}
	m.singletons.Inc()
}

func (m *Metrics) singletonsReleased(count int) {
	if m == nil {
		return
	}
	m.singletons.Sub(float64(count))
}
