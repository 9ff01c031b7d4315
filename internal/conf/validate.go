// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, validate := range []func(*Settings) []string{
		validateClassifierSettings,
		validateSequencerSettings,
		validateUploadSettings,
		validateSessionSettings,
		validateWebServerSettings,
		validateTelemetrySettings,
		validateSentrySettings,
	} {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateClassifierSettings(s *Settings) []string {
	var errs []string
	if s.Classifier.Threshold < 0 || s.Classifier.Threshold > 100 {
		errs = append(errs, fmt.Sprintf("classifier.threshold must be between 0 and 100, got %v", s.Classifier.Threshold))
	}
	return errs
}

func validateSequencerSettings(s *Settings) []string {
	var errs []string
	if s.Sequencer.TickInterval <= 0 {
		errs = append(errs, "sequencer.tickinterval must be positive")
	}
	if s.Sequencer.ProgressStep <= 0 || s.Sequencer.ProgressStep > 100 {
		errs = append(errs, fmt.Sprintf("sequencer.progressstep must be between 1 and 100, got %d", s.Sequencer.ProgressStep))
	}
	if s.Sequencer.ProcessingDelay < 0 {
		errs = append(errs, "sequencer.processingdelay must not be negative")
	}
	return errs
}

func validateUploadSettings(s *Settings) []string {
	var errs []string
	size, err := s.Upload.MaxSizeBytes()
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("upload.maxsize %q is not a valid size: %v", s.Upload.MaxSize, err))
	case size <= 0:
		errs = append(errs, "upload.maxsize must be positive")
	}

	if len(s.Upload.Extensions) == 0 {
		errs = append(errs, "upload.extensions must list at least one extension")
	}
	for i, ext := range s.Upload.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized != "" && !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if len(normalized) < 2 {
			errs = append(errs, fmt.Sprintf("upload.extensions[%d] is empty", i))
			continue
		}
		s.Upload.Extensions[i] = normalized
	}
	return errs
}

func validateSessionSettings(s *Settings) []string {
	var errs []string
	if s.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if s.Session.CleanupInterval <= 0 {
		errs = append(errs, "session.cleanupinterval must be positive")
	}
	return errs
}

func validateWebServerSettings(s *Settings) []string {
	if !s.WebServer.Enabled {
		return nil
	}

	var errs []string
	port, err := strconv.Atoi(s.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("webserver.port %q is not a valid port", s.WebServer.Port))
	}
	if s.WebServer.RateLimit < 0 {
		errs = append(errs, "webserver.ratelimit must not be negative")
	}
	if s.WebServer.RateLimit > 0 && s.WebServer.Burst < 1 {
		errs = append(errs, "webserver.burst must be at least 1 when rate limiting is enabled")
	}
	return errs
}

func validateTelemetrySettings(s *Settings) []string {
	if s.Telemetry.Enabled && s.Telemetry.Listen == "" {
		return []string{"telemetry.listen is required when telemetry is enabled"}
	}
	return nil
}

func validateSentrySettings(s *Settings) []string {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return []string{"sentry.dsn is required when sentry is enabled"}
	}
	return nil
}
