// Package perfmon is the default performanceMonitor collaborator:
// per-agent execution histograms and error counters backed by
// github.com/prometheus/client_golang, local to the process rather than
// a durable metrics store.
package perfmon

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor implements agent.PerformanceMonitor.
type Monitor struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

// New registers the workflow's metrics with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the global default
// registry.
func New(reg prometheus.Registerer) *Monitor {
	m := &Monitor{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workflow_agent_duration_seconds",
			Help:    "Agent execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workflow_agent_errors_total",
			Help: "Count of agent execution errors.",
		}, []string{"agent"}),
	}
	reg.MustRegister(m.duration, m.errors)
	return m
}

// ObserveDuration satisfies agent.PerformanceMonitor.
func (m *Monitor) ObserveDuration(agentName string, d time.Duration) {
	m.duration.WithLabelValues(agentName).Observe(d.Seconds())
}

// IncError satisfies agent.PerformanceMonitor.
func (m *Monitor) IncError(agentName string) {
	m.errors.WithLabelValues(agentName).Inc()
}
