package analysis

import (
	"fmt"
	"time"

	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
	"github.com/tphakala/pugmark/internal/logger"
)

// MaxProgress is the scanning progress at which a run moves to processing.
const MaxProgress = 100

// GetLogger returns the analysis package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}

// Config holds the sequencer timing.
type Config struct {
	TickInterval    time.Duration // scanning tick period
	ProgressStep    int           // progress added per tick
	ProcessingDelay time.Duration // one-shot delay before classification
}

// DefaultConfig returns the stock timing: +2 every 40ms, then 1.5s processing.
func DefaultConfig() Config {
	return Config{
		TickInterval:    conf.DefaultTickInterval,
		ProgressStep:    conf.DefaultProgressStep,
		ProcessingDelay: conf.DefaultProcessingDelay,
	}
}

// ConfigFromSettings reads sequencer timing from application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	return Config{
		TickInterval:    settings.Sequencer.TickInterval,
		ProgressStep:    settings.Sequencer.ProgressStep,
		ProcessingDelay: settings.Sequencer.ProcessingDelay,
	}
}

// Validate checks the timing values.
func (c Config) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return configError("tick interval must be positive")
	case c.ProgressStep <= 0 || c.ProgressStep > MaxProgress:
		return configError(fmt.Sprintf("progress step must be between 1 and %d", MaxProgress))
	case c.ProcessingDelay < 0:
		return configError("processing delay must not be negative")
	}
	return nil
}

func configError(msg string) error {
	return errors.New(errors.NewStd(msg)).
		Category(errors.CategoryConfiguration).
		Component("analysis").
		Build()
}
