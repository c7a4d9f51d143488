// Package metrics holds the Prometheus collectors recorded by the transport
// client. A nil *ClientMetrics is valid and records nothing.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes.
const (
	OutcomeOK                = "ok"
	OutcomeTimeout           = "timeout"
	OutcomeProtocolViolation = "protocol_violation"
	OutcomeError             = "error"
)

// ClientMetrics tracks traffic through one or more clients.
type ClientMetrics struct {
	mu sync.Mutex

	published       *prometheus.CounterVec
	delivered       *prometheus.CounterVec
	requests        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	decodeFailures  *prometheus.CounterVec
	handled         *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	registerer prometheus.Registerer
	registered bool
}

func newCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// New creates the collectors under namespace. A nil registerer falls back to
// prometheus.DefaultRegisterer.
func New(namespace string, registerer prometheus.Registerer) *ClientMetrics {
	if namespace == "" {
		namespace = "toolbus"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ClientMetrics{
		registerer:     registerer,
		published:      newCounterVec(namespace, "published_total", "Envelopes published, including replies", []string{"type"}),
		delivered:      newCounterVec(namespace, "delivered_total", "Envelopes decoded and handed to subscribers", []string{"type"}),
		requests:       newCounterVec(namespace, "requests_total", "Requests by final outcome", []string{"type", "outcome"}),
		retries:        newCounterVec(namespace, "request_retries_total", "Request attempts repeated after a timeout", []string{"type"}),
		decodeFailures: newCounterVec(namespace, "decode_failures_total", "Inbound payloads skipped because they could not be decoded", []string{"reason"}),
		handled:        newCounterVec(namespace, "served_total", "Requests answered by Serve by result", []string{"type", "result"}),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Time from first send to final outcome of a request",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"type"},
		),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *ClientMetrics) Register() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	for _, c := range m.collectors() {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

func (m *ClientMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.published,
		m.delivered,
		m.requests,
		m.retries,
		m.decodeFailures,
		m.handled,
		m.requestDuration,
	}
}

func (m *ClientMetrics) RecordPublished(msgType string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(msgType).Inc()
}

func (m *ClientMetrics) RecordDelivered(msgType string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(msgType).Inc()
}

func (m *ClientMetrics) RecordRequest(msgType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(msgType, outcome).Inc()
	m.requestDuration.WithLabelValues(msgType).Observe(elapsed.Seconds())
}

func (m *ClientMetrics) RecordRetry(msgType string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(msgType).Inc()
}

func (m *ClientMetrics) RecordDecodeFailure(reason string) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(reason).Inc()
}

func (m *ClientMetrics) RecordServed(msgType, result string) {
	if m == nil {
		return
	}
	m.handled.WithLabelValues(msgType, result).Inc()
}
