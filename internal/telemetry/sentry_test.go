package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/conf"
	"github.com/tphakala/pugmark/internal/errors"
)

func TestInitSentryDisabled(t *testing.T) {
	require.NoError(t, InitSentry(&conf.Settings{}, "test"))
	assert.Nil(t, errors.GetTelemetryReporter())
	Flush(FlushTimeout)
}

func TestSentryReceivesScrubbedErrors(t *testing.T) {
	transport := &MockTransport{}
	settings := &conf.Settings{Sentry: conf.SentrySettings{
		Enabled:     true,
		DSN:         "https://public@sentry.example.com/1",
		Environment: "test",
	}}
	require.NoError(t, initSentry(settings, "test", transport))
	t.Cleanup(func() { Flush(FlushTimeout) })

	_ = errors.Newf("species registry is empty, token=abc123").
		Category(errors.CategoryRegistry).
		Component("species").
		Build()

	events := transport.GetEvents()
	require.Len(t, events, 1)
	event := events[0]
	assert.Equal(t, sentry.LevelFatal, event.Level)
	assert.Equal(t, "species", event.Tags["component"])
	assert.Equal(t, "species-registry", event.Tags["category"])
	assert.NotContains(t, event.Message, "abc123")
	assert.Empty(t, event.ServerName)
}

func TestApplyPrivacyFilters(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "host-1",
		User:       sentry.User{ID: "u"},
		Contexts:   map[string]sentry.Context{"os": {}, "category": {}},
		Extra:      map[string]any{"component": "api", "path": "/home/user"},
		Tags:       map[string]string{"hostname": "h", "category": "validation"},
	}

	out := applyPrivacyFilters(event)
	assert.Empty(t, out.ServerName)
	assert.True(t, out.User.IsEmpty())
	assert.NotContains(t, out.Contexts, "os")
	assert.Contains(t, out.Contexts, "category")
	assert.Equal(t, map[string]any{"component": "api"}, out.Extra)
	assert.Equal(t, map[string]string{"category": "validation"}, out.Tags)
}
