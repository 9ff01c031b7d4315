package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisMetricsLifecycle(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewAnalysisMetrics(registry)
	require.NoError(t, err)

	m.RunStarted()
	m.RunStarted()
	assert.InDelta(t, 2, testutil.ToFloat64(m.runsActive), 0)

	m.StageFinished("scanning", 2*time.Second)
	m.StageFinished("processing", 1500*time.Millisecond)
	m.Classified("1", 83.5)
	m.RunFinished("completed", 3500*time.Millisecond)
	m.RunFinished("cancelled", time.Second)

	assert.InDelta(t, 0, testutil.ToFloat64(m.runsActive), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runsTotal.WithLabelValues("completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runsTotal.WithLabelValues("cancelled")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.classifications.WithLabelValues("1")), 0)

	expected := `
# HELP pugmark_classifications_total Total number of classifications by class id
# TYPE pugmark_classifications_total counter
pugmark_classifications_total{class_id="1"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "pugmark_classifications_total"))

	families, err := registry.Gather()
	require.NoError(t, err)
	var confidence *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "pugmark_classification_confidence" {
			confidence = f
		}
	}
	require.NotNil(t, confidence)
	h := confidence.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), h.GetSampleCount())
	assert.InDelta(t, 83.5, h.GetSampleSum(), 1e-9)
}

func TestAnalysisMetricsDoubleRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewAnalysisMetrics(registry)
	require.NoError(t, err)
	_, err = NewAnalysisMetrics(registry)
	require.Error(t, err)
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewHTTPMetrics(registry)
	require.NoError(t, err)

	m.RecordHTTPRequest("GET", "/api/v2/species", 200, 0.002)
	m.SSEConnectionStarted()
	m.RecordSSEMessageSent()
	m.RecordSSEMessageSent()
	m.SSEConnectionClosed()

	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v2/species", "200")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.sseActiveConnections), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.sseMessagesSent), 0)
}
