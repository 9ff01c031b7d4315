package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/observability"
	"github.com/tphakala/pugmark/internal/species"
	"github.com/tphakala/pugmark/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, testutil.LeakOptions()...)
}

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.WebServer.Port = "0"
	s.Upload.MaxSize = "1M"
	s.Upload.Extensions = []string{".jpg", ".png"}
	return s
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	reg, err := species.Default()
	require.NoError(t, err)
	policy, err := classifier.NewPolicy(reg)
	require.NoError(t, err)
	engine, err := analysis.NewEngine(analysis.DefaultConfig(), policy)
	require.NoError(t, err)
	manager := analysis.NewManager(engine, time.Minute, time.Minute)
	t.Cleanup(manager.Shutdown)

	s, err := New(testSettings(), manager, policy, opts...)
	require.NoError(t, err)
	return s
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, WithVersion("1.2.3"))

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "1.2.3", response["version"])
	assert.InDelta(t, 0, response["sessions"], 0)

	_, err := time.Parse(time.RFC3339, response["timestamp"].(string))
	assert.NoError(t, err)
}

func TestServerSetsSecurityHeaders(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/species", http.NoBody)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestServerRecordsHTTPMetrics(t *testing.T) {
	t.Parallel()
	m, err := observability.NewMetrics()
	require.NoError(t, err)
	s := newTestServer(t, WithMetrics(m))

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v2/species/1", http.NoBody)
		s.Echo().ServeHTTP(httptest.NewRecorder(), req)
	}

	count, err := promtest.GatherAndCount(m.Registry(), "pugmark_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one series for the route template")
}

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(DefaultShutdownTimeout):
		t.Fatal("server did not stop")
	}
	http.DefaultClient.CloseIdleConnections()
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	s := testSettings()
	s.WebServer.Port = "9090"
	s.WebServer.AllowedOrigins = []string{"https://example.org"}
	s.WebServer.RateLimit = 2
	s.WebServer.Burst = 4
	s.Debug = true

	cfg := ConfigFromSettings(s)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, []string{"https://example.org"}, cfg.AllowedOrigins)
	assert.Equal(t, "1088K", cfg.BodyLimit)
	assert.InDelta(t, 2.0, cfg.RateLimit, 0)
	assert.Equal(t, 4, cfg.Burst)
	assert.True(t, cfg.Debug)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"zero write timeout", func(c *Config) { c.WriteTimeout = 0 }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"rate without burst", func(c *Config) { c.RateLimit = 1; c.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}
