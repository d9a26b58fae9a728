// Package metrics holds the Prometheus collectors for event writes and analytics queries.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics is safe to use through a nil pointer, in which case nothing is recorded.
type Metrics struct {
	registry *prometheus.Registry

	appendCallsTotal     *prometheus.CounterVec
	eventsAppendedTotal  *prometheus.CounterVec
	appendDurationSecond *prometheus.HistogramVec
	queriesTotal         *prometheus.CounterVec
	queryDurationSeconds *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with registry.
// If registry is nil, a new one is created, along with the Go runtime and process collectors.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.appendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklog_append_calls_total",
			Help: "Number of append transactions",
		},
		[]string{"op", "status"}, // op: single, bulk
	)

	m.eventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklog_events_appended_total",
			Help: "Number of events committed to the store",
		},
		[]string{"op"},
	)

	m.appendDurationSecond = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracklog_append_duration_seconds",
			Help:    "Time taken to commit an append transaction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"op"},
	)

	m.queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklog_queries_total",
			Help: "Number of analytics queries executed",
		},
		[]string{"query", "status"},
	)

	m.queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracklog_query_duration_seconds",
			Help:    "Time taken to execute an analytics query",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"query"},
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.appendCallsTotal.Describe(ch)
	m.eventsAppendedTotal.Describe(ch)
	m.appendDurationSecond.Describe(ch)
	m.queriesTotal.Describe(ch)
	m.queryDurationSeconds.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.appendCallsTotal.Collect(ch)
	m.eventsAppendedTotal.Collect(ch)
	m.appendDurationSecond.Collect(ch)
	m.queriesTotal.Collect(ch)
	m.queryDurationSeconds.Collect(ch)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordAppend records the outcome of one append transaction containing nEvents events.
func (m *Metrics) RecordAppend(op string, nEvents int, start time.Time, err error) {
	if m == nil {
		return
	}
	m.appendDurationSecond.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.appendCallsTotal.WithLabelValues(op, StatusError).Inc()
		return
	}
	m.appendCallsTotal.WithLabelValues(op, StatusSuccess).Inc()
	m.eventsAppendedTotal.WithLabelValues(op).Add(float64(nEvents))
}

// RecordQuery records the outcome and duration of one analytics query.
func (m *Metrics) RecordQuery(query string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.queryDurationSeconds.WithLabelValues(query).Observe(time.Since(start).Seconds())
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.queriesTotal.WithLabelValues(query, status).Inc()
}
