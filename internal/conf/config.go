// conf/config.go
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/bytes"
	"github.com/spf13/viper"

	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "PUGMARK"

// ClassifierSettings contains the classification policy settings
type ClassifierSettings struct {
	Threshold   float64 // confidence below this yields the unknown result
	SpeciesFile string  // optional external species registry, empty for embedded
}

// SequencerSettings contains the stage sequencer timing
type SequencerSettings struct {
	TickInterval    time.Duration // interval between scanning progress ticks
	ProgressStep    int           // progress added per tick
	ProcessingDelay time.Duration // one-shot delay before classification
}

// UploadSettings constrains files accepted for analysis
type UploadSettings struct {
	MaxSize    string   // maximum file size, e.g. "10M"
	Extensions []string // accepted lowercase extensions including the dot
}

// MaxSizeBytes parses MaxSize into a byte count.
func (u *UploadSettings) MaxSizeBytes() (int64, error) {
	return bytes.Parse(u.MaxSize)
}

// SessionSettings controls how long idle sessions keep their run
type SessionSettings struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// WebServerSettings contains HTTP API settings
type WebServerSettings struct {
	Enabled        bool
	Port           string
	Debug          bool
	AllowedOrigins []string
	RateLimit      float64 // run submissions per second per client, 0 disables
	Burst          int
}

// TelemetrySettings controls the Prometheus metrics endpoint
type TelemetrySettings struct {
	Enabled bool
	Listen  string
}

// SentrySettings controls optional error reporting
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings holds the full pugmark configuration
type Settings struct {
	Debug bool

	Classifier ClassifierSettings
	Sequencer  SequencerSettings
	Upload     UploadSettings
	Session    SessionSettings
	WebServer  WebServerSettings
	Telemetry  TelemetrySettings
	Sentry     SentrySettings

	Logging logger.LoggingConfig
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
// An explicit file set with viper.SetConfigFile (the --config flag) is used
// as is; otherwise the default paths are searched and the embedded default
// is written when nothing is found.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "validate_config").
			Build()
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, env bindings and reads the configuration file.
func initViper() error {
	setDefaultConfig()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if viper.ConfigFileUsed() != "" {
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
				Category(errors.CategoryConfiguration).
				Context("config_file", viper.ConfigFileUsed()).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths[0])
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it back
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(fmt.Errorf("error creating directories for config file: %w", err)).
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := os.WriteFile(configPath, getDefaultConfig(), 0o644); err != nil {
		return errors.New(fmt.Errorf("error writing default config file: %w", err)).
			Category(errors.CategoryFileIO).
			Build()
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig returns the embedded default config.yaml.
func getDefaultConfig() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// embedded at build time
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
