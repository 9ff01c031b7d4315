package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/conf"
)

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Analysis.RunStarted()
	m.Analysis.Classified("0", 91.2)
	m.Analysis.RunFinished("completed", time.Second)

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pugmark_runs_total{outcome="completed"} 1`)
	assert.Contains(t, string(body), `pugmark_classifications_total{class_id="0"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewEndpointRequiresTelemetry(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	_, err = NewEndpoint(&conf.Settings{}, m)
	require.Error(t, err)

	e, err := NewEndpoint(&conf.Settings{Telemetry: conf.TelemetrySettings{Enabled: true, Listen: "127.0.0.1:0"}}, m)
	require.NoError(t, err)
	assert.Same(t, m, e.GetMetrics())
}
