package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("scan").End(nil))
	err := m.Track("scan").End(errors.New("boom"))
	require.EqualError(t, err, "boom")

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("scan", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("scan", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("scan")))

	m.SetLowStock(4)
	require.Equal(t, 4.0, testutil.ToFloat64(m.lowStock))
}

func TestNilMetricsTracker(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("scan").End(nil))
	m.SetLowStock(1)
}
