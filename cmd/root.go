// Package cmd wires the pugmark command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/pugmark/cmd/identify"
	"github.com/tphakala/pugmark/cmd/serve"
	"github.com/tphakala/pugmark/cmd/species"
	"github.com/tphakala/pugmark/internal/buildinfo"
	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/logger"
	"github.com/tphakala/pugmark/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(bi *buildinfo.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "pugmark",
		Short:         "pugmark footprint identification",
		Long:          "Identify animal footprints from images through a staged analysis.",
		Version:       bi.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(bi.String() + "\n")

	if err := setupFlags(rootCmd, &configFile); err != nil {
		// flag names are static
		panic(err)
	}

	rootCmd.AddCommand(
		serve.Command(bi),
		identify.Command(),
		species.Command(),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(configFile, bi)
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return finalize()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to a config file, overrides the default search paths")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.Float64P("threshold", "t", conf.DefaultThreshold, "Confidence threshold in percent, scores below it are reported as unknown")

	bindings := map[string]string{
		"debug":                "debug",
		"classifier.threshold": "threshold",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// initialize loads settings, installs the global logger and optional error
// reporting. It runs before every subcommand.
func initialize(configFile string, bi *buildinfo.Context) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}

	settings, err := conf.Load()
	if err != nil {
		return err
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	if err := telemetry.InitSentry(settings, bi.GetVersion()); err != nil {
		// error reporting is optional
		conf.GetLogger().Warn("sentry disabled", logger.Error(err))
	}

	conf.GetLogger().Debug("configuration loaded",
		logger.String("config_file", viper.ConfigFileUsed()),
		logger.String("instance_id", bi.GetInstanceID()))
	return nil
}

// finalize flushes buffered telemetry and log output.
func finalize() error {
	telemetry.Flush(telemetry.FlushTimeout)
	return logger.Global().Close()
}
