// Package metrics exposes Prometheus instrumentation for the outbox publisher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Published prometheus.Counter
	Failures  prometheus.Counter
	BatchSize prometheus.Histogram
	Pending   prometheus.Gauge
}

// New registers the outbox metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Outbox events successfully published to the broker.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_publish_failures_total",
			Help: "Outbox publish attempts that failed and were scheduled for retry.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "outbox_batch_size",
			Help:    "Number of due events claimed per publish cycle.",
			Buckets: prometheus.LinearBuckets(0, 10, 6),
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_events",
			Help: "Events currently waiting in NEW or FAILED state.",
		}),
	}
	reg.MustRegister(m.Published, m.Failures, m.BatchSize, m.Pending)
	return m
}
