// Package metric provides Prometheus metrics for the pcaxis server.
//
// A MetricsRegistry owns a private prometheus.Registry preloaded with the
// platform metrics (HTTP, flattening engine, upstream PX-Web, health) plus
// Go runtime collectors. Components register additional collectors through
// RegisterCounter/RegisterGauge/RegisterHistogram, which reject duplicate
// names so a misconfigured component fails fast instead of silently
// shadowing another component's series.
package metric
