// Package metrics holds the Prometheus collectors for session admission,
// session lifetime and per-operation request handling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ems"

// Metrics is the set of server collectors.  A nil *Metrics is valid and
// records nothing, which keeps tests and tools free of registry plumbing.
type Metrics struct {
	sessionsAdmitted prometheus.Counter
	sessionsActive   prometheus.Gauge
	queueDepth       prometheus.Gauge
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	protocolErrors   prometheus.Counter
}

// New registers the collectors on reg.  Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionsAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_admitted_total",
			Help:      "Session-open requests accepted into the admission queue.",
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently being served by a worker.",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "admission_queue_depth",
			Help:      "Session-open requests waiting for a free worker.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Session requests handled, by operation and result code.",
		}, []string{"op", "result"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a session request, store access included.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Frames discarded because of an unknown op code or a session id mismatch.",
		}),
	}
}

// SessionAdmitted records an enqueue.
func (m *Metrics) SessionAdmitted() {
	if m == nil {
		return
	}
	m.sessionsAdmitted.Inc()
}

// QueueDepth records the number of queued session requests.
func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// SessionStarted and SessionEnded bracket a worker's dispatch loop.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// Request records one handled request.
func (m *Metrics) Request(op, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(op, result).Inc()
	m.requestDuration.WithLabelValues(op).Observe(took.Seconds())
}

// ProtocolError records a discarded frame.
func (m *Metrics) ProtocolError() {
	if m == nil {
		return
	}
	m.protocolErrors.Inc()
}
