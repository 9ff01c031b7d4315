// Package serve runs the pugmark HTTP API.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/api"
	"github.com/tphakala/pugmark/internal/buildinfo"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/observability"
	"github.com/tphakala/pugmark/internal/species"
)

// Command creates the serve command.
func Command(bi *buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis HTTP API",
		Long:  "Start the HTTP API for analysis sessions, with an optional Prometheus metrics endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Run(ctx, conf.GetSettings(), bi)
		},
	}

	if err := setupFlags(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().StringP("port", "p", "8080", "HTTP port of the API")
	cmd.Flags().Bool("telemetry", false, "Enable Prometheus telemetry endpoint")
	cmd.Flags().String("listen", "0.0.0.0:8090", "Listen address and port of telemetry endpoint")

	for key, name := range map[string]string{
		"webserver.port":    "port",
		"telemetry.enabled": "telemetry",
		"telemetry.listen":  "listen",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Run serves the API until ctx is cancelled. Sessions are shut down first so
// open event streams end with a cancelled snapshot, then the listeners stop.
func Run(ctx context.Context, settings *conf.Settings, bi *buildinfo.Context) error {
	log := logger.Global().Module("serve")

	registry, err := species.Load(settings.Classifier.SpeciesFile)
	if err != nil {
		return err
	}

	policy, err := classifier.NewPolicy(registry, classifier.WithThreshold(settings.Classifier.Threshold))
	if err != nil {
		return err
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	engine, err := analysis.NewEngine(analysis.ConfigFromSettings(settings), policy,
		analysis.WithRecorder(metrics.Analysis))
	if err != nil {
		return err
	}
	manager := analysis.NewManager(engine, settings.Session.TTL, settings.Session.CleanupInterval)

	server, err := api.New(settings, manager, policy,
		api.WithMetrics(metrics),
		api.WithVersion(bi.GetVersion()))
	if err != nil {
		manager.Shutdown()
		return err
	}

	var endpoint *observability.Endpoint
	if settings.Telemetry.Enabled {
		if endpoint, err = observability.NewEndpoint(settings, metrics); err != nil {
			manager.Shutdown()
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		manager.Shutdown()
		return nil
	})

	g.Go(func() error {
		return server.Run(gctx)
	})

	if endpoint != nil {
		g.Go(func() error {
			return endpoint.Run(gctx)
		})
	}

	log.Info("pugmark serving",
		logger.String("version", bi.GetVersion()),
		logger.String("address", server.Config().Address()),
		logger.Int("species", registry.Len()),
		logger.Float64("threshold", policy.Threshold()),
		logger.Bool("telemetry", settings.Telemetry.Enabled))

	err = g.Wait()
	log.Info("pugmark stopped")
	return err
}
