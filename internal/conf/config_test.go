package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/errors"
)

// resetViper isolates tests that use the global viper instance.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	resetViper(t)
	viper.SetConfigFile(writeConfig(t, string(getDefaultConfig())))

	settings, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 70.0, settings.Classifier.Threshold, 0)
	assert.Empty(t, settings.Classifier.SpeciesFile)
	assert.Equal(t, 40*time.Millisecond, settings.Sequencer.TickInterval)
	assert.Equal(t, 2, settings.Sequencer.ProgressStep)
	assert.Equal(t, 1500*time.Millisecond, settings.Sequencer.ProcessingDelay)
	assert.Equal(t, DefaultExtensions, settings.Upload.Extensions)
	assert.Equal(t, 30*time.Minute, settings.Session.TTL)
	assert.Equal(t, "8080", settings.WebServer.Port)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Equal(t, "logs/pugmark.log", settings.Logging.FileOutput.Path)

	maxSize, err := settings.Upload.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), maxSize)

	assert.Same(t, settings, GetSettings())
}

func TestLoadEnvironmentOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("PUGMARK_CLASSIFIER_THRESHOLD", "85.5")
	t.Setenv("PUGMARK_SEQUENCER_TICKINTERVAL", "10ms")
	viper.SetConfigFile(writeConfig(t, "debug: true\n"))

	settings, err := Load()
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.InDelta(t, 85.5, settings.Classifier.Threshold, 0)
	assert.Equal(t, 10*time.Millisecond, settings.Sequencer.TickInterval)
	assert.Equal(t, DefaultProgressStep, settings.Sequencer.ProgressStep)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	resetViper(t)
	viper.SetConfigFile(writeConfig(t, "classifier:\n  threshold: 120\nsequencer:\n  progressstep: 0\n"))

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	resetViper(t)
	viper.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestCreateDefaultConfig(t *testing.T) {
	resetViper(t)
	setDefaultConfig()
	dir := filepath.Join(t.TempDir(), "nested")

	require.NoError(t, createDefaultConfig(dir))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, getDefaultConfig(), data)
	assert.Equal(t, "8080", viper.GetString("webserver.port"))
}
