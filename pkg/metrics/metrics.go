// Package metrics provides Prometheus instrumentation for the Lifecycle
// Coordinator and Deletion Engine. All methods handle a nil receiver, so
// the rest of the engine can pass a nil *Metrics when metrics are disabled
// without guarding every call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter and histogram this engine exports, all
// prefixed with filevault_ to distinguish them from any other collector
// sharing the process's registry.
type Metrics struct {
	// OperationsTotal counts Lifecycle Coordinator calls by operation and result.
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks Lifecycle Coordinator call latency by operation.
	OperationDuration *prometheus.HistogramVec

	// WipeDuration tracks secure-delete wall-clock time.
	WipeDuration prometheus.Histogram

	// WipesTotal counts secure-delete attempts by result.
	WipesTotal *prometheus.CounterVec

	// LocksHeld tracks the current count of unexpired checkout locks.
	LocksHeld prometheus.Gauge
}

// New creates and registers metrics against reg. Pass nil to construct an
// unregistered instance (tests), or call NullMetrics for a true no-op.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filevault_lifecycle_operations_total",
				Help: "Total Lifecycle Coordinator operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filevault_lifecycle_operation_duration_seconds",
				Help:    "Lifecycle Coordinator operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		WipeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "filevault_secure_wipe_duration_seconds",
				Help:    "Secure delete wipe duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		WipesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filevault_secure_wipes_total",
				Help: "Total secure delete attempts by result",
			},
			[]string{"result"},
		),
		LocksHeld: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "filevault_locks_held",
				Help: "Current count of unexpired checkout locks",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.WipeDuration, m.WipesTotal, m.LocksHeld)
	}
	return m
}

// NullMetrics returns nil, which acts as a no-op metrics collector.
func NullMetrics() *Metrics {
	return nil
}

// RecordOperation records a completed Lifecycle Coordinator call. Safe on
// a nil receiver.
func (m *Metrics) RecordOperation(operation string, success bool, durationSeconds float64) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordWipe records a completed secure-delete wipe attempt. Safe on a nil receiver.
func (m *Metrics) RecordWipe(success bool, durationSeconds float64) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.WipesTotal.WithLabelValues(result).Inc()
	m.WipeDuration.Observe(durationSeconds)
}

// SetLocksHeld sets the current lock-held gauge. Safe on a nil receiver.
func (m *Metrics) SetLocksHeld(count float64) {
	if m == nil {
		return
	}
	m.LocksHeld.Set(count)
}
