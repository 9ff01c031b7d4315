package identify

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
)

func init() {
	text.DisableColors()
}

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Classifier.Threshold = conf.DefaultThreshold
	s.Sequencer.TickInterval = time.Millisecond
	s.Sequencer.ProgressStep = 20
	s.Sequencer.ProcessingDelay = time.Millisecond
	s.Upload.MaxSize = "1M"
	s.Upload.Extensions = []string{".jpg", ".png"}
	return s
}

func writeImage(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestRunInstant(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Run(t.Context(), testSettings(), Options{Path: writeImage(t, "tiger.png", 840), Instant: true}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Tiger")
	assert.Contains(t, out.String(), "Panthera tigris")
	assert.Contains(t, out.String(), "82.0%")
	assert.NotContains(t, out.String(), "Scanning")
}

func TestRunStaged(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Sequencer.TickInterval = 10 * time.Millisecond

	var out bytes.Buffer
	err := Run(t.Context(), settings, Options{Path: writeImage(t, "elephant_trail.jpg", 8192)}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Scanning...")
	assert.Contains(t, s, "Processing...")
	assert.Contains(t, s, "Elephant")
	assert.Contains(t, s, "84.9%")
}

func TestRunUnknown(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Run(t.Context(), testSettings(), Options{Path: writeImage(t, "dog_track.jpg", 1234), Instant: true}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Another animal footprint")
	assert.Contains(t, out.String(), "unknown")
	assert.Contains(t, out.String(), "97.4%")
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Sequencer.TickInterval = time.Hour

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var out bytes.Buffer
	err := Run(ctx, settings, Options{Path: writeImage(t, "tiger.png", 10)}, &out)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	assert.Contains(t, out.String(), "Analysis cancelled")
}

func TestRunRejectsFiles(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := Run(t.Context(), testSettings(), Options{Path: writeImage(t, "tiger.gif", 10), Instant: true}, &out)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	err = Run(t.Context(), testSettings(), Options{Path: filepath.Join(t.TempDir(), "missing.png"), Instant: true}, &out)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	assert.Empty(t, out.String())
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "["+string(bytes.Repeat([]byte(" "), progressBarWidth))+"]", progressBar(0))
	assert.Equal(t, "["+string(bytes.Repeat([]byte("="), progressBarWidth))+"]", progressBar(100))
	assert.Len(t, progressBar(50), progressBarWidth+2)
}
