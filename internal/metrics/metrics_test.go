package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerozz/tracking-backend/internal/metrics"
)

func TestNewMetricsRegisters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	require.NoError(t, err)

	m.RecordView("init", metrics.ResultOK)
	m.RecordView("init", metrics.ResultOK)
	m.RecordRateLimited("view")
	m.RecordAssignment(metrics.AssignmentNew)

	count, err := testutil.GatherAndCount(reg,
		"tracking_views_total", "tracking_rate_limited_total", "experiment_assignments_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = metrics.NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RecordView("heartbeat", metrics.ResultOK)
		m.RecordEvent(metrics.ResultDropped)
		m.RecordLimiterError()
	})
}
