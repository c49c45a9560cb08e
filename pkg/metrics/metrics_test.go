package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation_IncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordOperation("checkout", true, 0.1)
	m.RecordOperation("checkout", false, 0.2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("checkout", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("checkout", "error")))
}

func TestRecordWipe_IncrementsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordWipe(true, 1.5)
	m.RecordWipe(true, 2.5)
	m.RecordWipe(false, 0.1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.WipesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WipesTotal.WithLabelValues("error")))
}

func TestSetLocksHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetLocksHeld(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.LocksHeld))
}

func TestNilMetrics_MethodsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation("checkout", true, 0.1)
		m.RecordWipe(true, 0.1)
		m.SetLocksHeld(5)
	})
}

func TestNullMetrics_ReturnsNil(t *testing.T) {
	assert.Nil(t, NullMetrics())
}
