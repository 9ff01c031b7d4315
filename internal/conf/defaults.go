// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default engine constants.
const (
	DefaultThreshold       = 70.0
	DefaultTickInterval    = 40 * time.Millisecond
	DefaultProgressStep    = 2
	DefaultProcessingDelay = 1500 * time.Millisecond
)

// DefaultExtensions are the image extensions accepted for upload.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("classifier.threshold", DefaultThreshold)
	viper.SetDefault("classifier.speciesfile", "")

	viper.SetDefault("sequencer.tickinterval", DefaultTickInterval)
	viper.SetDefault("sequencer.progressstep", DefaultProgressStep)
	viper.SetDefault("sequencer.processingdelay", DefaultProcessingDelay)

	viper.SetDefault("upload.maxsize", "10M")
	viper.SetDefault("upload.extensions", DefaultExtensions)

	viper.SetDefault("session.ttl", 30*time.Minute)
	viper.SetDefault("session.cleanupinterval", 5*time.Minute)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.allowedorigins", []string{"*"})
	viper.SetDefault("webserver.ratelimit", 5.0)
	viper.SetDefault("webserver.burst", 10)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")

	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/pugmark.log")
	viper.SetDefault("logging.file_output.level", "info")
}
