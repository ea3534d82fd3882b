package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMetricsNilSafe(t *testing.T) {
	var m *SyncMetrics
	m.ObserveDrainDuration("reconnect", time.Second)
	m.IncReplaySuccess("start")
	m.IncReplayFailure("finish")
	m.SetPendingDepth(3)
	m.IncCacheFallback()
	m.SetOnline(true)

	empty := NewSyncMetrics(nil)
	empty.ObserveDrainDuration("manual", time.Second)
	empty.SetOnline(false)
}

func TestSyncMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveDrainDuration("reconnect", 250*time.Millisecond)
	m.IncReplaySuccess("start")
	m.IncReplaySuccess("start")
	m.IncReplayFailure("")
	m.SetPendingDepth(4)
	m.IncCacheFallback()
	m.SetOnline(true)

	families, err := reg.Gather()
	require.NoError(t, err)

	assert.InDelta(t, 0.25, fetchHistogramSum(t, families, "sync_drain_duration_seconds", "trigger", "reconnect"), 0.001)
	assert.Equal(t, float64(2), fetchCounterValue(t, families, "sync_replay_success_total", "kind", "start"))
	assert.Equal(t, float64(1), fetchCounterValue(t, families, "sync_replay_failure_total", "kind", "unknown"))
	assert.Equal(t, float64(4), fetchGaugeValue(t, families, "sync_pending_actions"))
	assert.Equal(t, float64(1), fetchGaugeValue(t, families, "sync_backend_online"))
}

func TestSyncMetricsOnlineToggles(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.SetOnline(true)
	m.SetOnline(false)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(0), fetchGaugeValue(t, families, "sync_backend_online"))
}

func findMetricFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func matchesLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func fetchCounterValue(t *testing.T, families []*dto.MetricFamily, name, labelName, labelValue string) float64 {
	t.Helper()
	family := findMetricFamily(families, name)
	require.NotNil(t, family, "metric family %s not found", name)
	for _, metric := range family.GetMetric() {
		if matchesLabel(metric, labelName, labelValue) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("no %s sample with %s=%s", name, labelName, labelValue)
	return 0
}

func fetchHistogramSum(t *testing.T, families []*dto.MetricFamily, name, labelName, labelValue string) float64 {
	t.Helper()
	family := findMetricFamily(families, name)
	require.NotNil(t, family, "metric family %s not found", name)
	for _, metric := range family.GetMetric() {
		if matchesLabel(metric, labelName, labelValue) {
			return metric.GetHistogram().GetSampleSum()
		}
	}
	t.Fatalf("no %s sample with %s=%s", name, labelName, labelValue)
	return 0
}

func fetchGaugeValue(t *testing.T, families []*dto.MetricFamily, name string) float64 {
	t.Helper()
	family := findMetricFamily(families, name)
	require.NotNil(t, family, "metric family %s not found", name)
	require.NotEmpty(t, family.GetMetric())
	return family.GetMetric()[0].GetGauge().GetValue()
}
