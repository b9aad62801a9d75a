package health

import (
	"sort"
	"sync"
	"time"

	"github.com/nikolozi2001/pcaxis-server-sub000/metric"
)

// Monitor tracks component statuses. Safe for concurrent use.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
	metrics  *metric.Metrics
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMetrics exports per-component health gauges.
func WithMetrics(reg *metric.MetricsRegistry) MonitorOption {
	return func(m *Monitor) {
		if reg != nil {
			m.metrics = reg.CoreMetrics()
		}
	}
}

// NewMonitor creates an empty monitor.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{statuses: make(map[string]Status)}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Update records the status for a named component.
func (m *Monitor) Update(name string, status Status) {
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.statuses[name] = status
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordHealthStatus(name, status.IsHealthy())
	}
}

// ReportError records a component status derived from an error; nil marks
// the component healthy.
func (m *Monitor) ReportError(name string, err error) {
	m.Update(name, FromError(name, err))
}

// Get retrieves one component's status.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[name]
	return status, ok
}

// System aggregates every tracked component into one status with
// sub-statuses ordered by component name.
func (m *Monitor) System(systemName string) Status {
	m.mu.RLock()
	subs := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		subs = append(subs, status)
	}
	m.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].Component < subs[j].Component })
	return Aggregate(systemName, subs)
}

// Count returns the number of tracked components.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}
