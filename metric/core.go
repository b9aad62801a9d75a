package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not per-cache metrics, which
// are registered dynamically by pkg/cache).
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Flattening engine metrics
	FlattenDuration *prometheus.HistogramVec
	FlattenErrors   *prometheus.CounterVec
	RowsEmitted     *prometheus.CounterVec

	// Upstream PX-Web metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram

	// Health metrics
	HealthCheckStatus *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pcaxis",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"route", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pcaxis",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		FlattenDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pcaxis",
				Subsystem: "engine",
				Name:      "flatten_duration_seconds",
				Help:      "Cube flattening duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"dataset"},
		),

		FlattenErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pcaxis",
				Subsystem: "engine",
				Name:      "flatten_errors_total",
				Help:      "Total number of failed flatten operations",
			},
			[]string{"dataset", "class"},
		),

		RowsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pcaxis",
				Subsystem: "engine",
				Name:      "rows_emitted_total",
				Help:      "Total number of rows emitted by the flattening engine",
			},
			[]string{"dataset"},
		),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pcaxis",
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of upstream PX-Web requests",
			},
			[]string{"outcome"},
		),

		UpstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "pcaxis",
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Upstream PX-Web request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pcaxis",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),
	}
}

// RecordRequest increments the HTTP request counter
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}

// RecordRequestDuration records HTTP request latency
func (m *Metrics) RecordRequestDuration(route string, duration time.Duration) {
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordFlatten records a flatten operation's duration and emitted row count
func (m *Metrics) RecordFlatten(dataset string, rows int, duration time.Duration) {
	m.FlattenDuration.WithLabelValues(dataset).Observe(duration.Seconds())
	m.RowsEmitted.WithLabelValues(dataset).Add(float64(rows))
}

// RecordFlattenError increments the flatten error counter
func (m *Metrics) RecordFlattenError(dataset, class string) {
	m.FlattenErrors.WithLabelValues(dataset, class).Inc()
}

// RecordUpstream records an upstream request outcome
func (m *Metrics) RecordUpstream(outcome string, duration time.Duration) {
	m.UpstreamRequests.WithLabelValues(outcome).Inc()
	m.UpstreamDuration.Observe(duration.Seconds())
}

// RecordHealthStatus updates health check status
func (m *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(value)
}
