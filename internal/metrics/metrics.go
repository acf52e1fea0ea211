// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors reported by the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "convertly"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	sweepRemoved prometheus.Counter
	sweepErrors  prometheus.Counter
	leases       prometheus.Gauge
}

// New registers the collectors with reg. Registration errors are returned
// rather than panicking so two services can share a process in tests.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Handled requests by operation and outcome.",
		}, []string{"operation", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Time spent inside external tool invocations.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 900},
		}, []string{"tool", "status"}),
		sweepRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "removed_total",
			Help:      "Stale artifacts deleted by the retention sweeper.",
		}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "errors_total",
			Help:      "Artifacts the retention sweeper failed to inspect or delete.",
		}),
		leases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "leases_active",
			Help:      "Artifact paths currently leased by in-flight responses.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.toolDuration, m.sweepRemoved, m.sweepErrors, m.leases} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest counts one handled request.
func (m *Metrics) ObserveRequest(operation, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, status).Inc()
}

// ObserveTool records the duration of one tool invocation.
func (m *Metrics) ObserveTool(tool string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.toolDuration.WithLabelValues(tool, status).Observe(d.Seconds())
}

// ObserveSweep adds the outcome of one sweep.
func (m *Metrics) ObserveSweep(removed, errors int) {
	if m == nil {
		return
	}
	m.sweepRemoved.Add(float64(removed))
	m.sweepErrors.Add(float64(errors))
}

// SetLeases reports the number of active leases.
func (m *Metrics) SetLeases(n int) {
	if m == nil {
		return
	}
	m.leases.Set(float64(n))
}
