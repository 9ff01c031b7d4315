package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
	metricspkg "github.com/tphakala/pugmark/internal/observability/metrics"
)

const readHeaderTimeout = 10 * time.Second

// Endpoint serves /metrics on its own listener.
type Endpoint struct {
	server  *http.Server
	metrics *Metrics
}

// NewEndpoint creates the metrics endpoint. It fails when telemetry is
// disabled in settings.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, errors.Newf("telemetry not enabled in settings").
			Category(errors.CategoryConfiguration).
			Build()
	}

	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)

	return &Endpoint{
		metrics: metrics,
		server: &http.Server{
			Addr:              settings.Telemetry.Listen,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts the server down.
func (e *Endpoint) Run(ctx context.Context) error {
	log := GetLogger()
	errCh := make(chan error, 1)

	go func() {
		log.Info("metrics endpoint starting", logger.String("address", e.server.Addr))
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.New(err).
				Category(errors.CategoryHTTP).
				Context("operation", "metrics_listen").
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("stopping metrics endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics endpoint shutdown error", logger.Error(err))
		return err
	}
	return nil
}

// GetMetrics returns the Metrics instance served by this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
