package api

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/testutil"
)

func TestSubmitRunCompletes(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, fastTiming())
	id := env.openSession(t)

	rec := env.submit(t, id, ImageFormField, "elephant_trail.jpg", 8192)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	accepted := decode[snapshotBody](t, rec)
	assert.NotEmpty(t, accepted.RunID)
	assert.Equal(t, id, accepted.SessionID)
	assert.Equal(t, "elephant_trail.jpg", accepted.FileName)
	assert.Equal(t, int64(8192), accepted.FileSize)

	env.waitForRun(t, id)

	rec = env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := decode[snapshotBody](t, rec)
	assert.Equal(t, accepted.RunID, snap.RunID)
	assert.Equal(t, "complete", snap.Stage)
	assert.Equal(t, 100, snap.Progress)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "0", snap.Result.ClassID)
	assert.True(t, snap.Result.Known)
	assert.Equal(t, "Elephant", snap.Result.Name)
	assert.InDelta(t, 84.9, snap.Result.Confidence, 1e-9)
}

func TestSubmitRunStartsScanning(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, slowTiming())
	id := env.openSession(t)

	rec := env.submit(t, id, ImageFormField, "tiger.png", 840)
	require.Equal(t, http.StatusAccepted, rec.Code)

	snap := decode[snapshotBody](t, rec)
	assert.Equal(t, "scanning", snap.Stage)
	assert.Equal(t, 0, snap.Progress)
	assert.Nil(t, snap.Result)
}

func TestSubmitRunReplacesPreviousRun(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, slowTiming())
	id := env.openSession(t)

	first := decode[snapshotBody](t, env.submit(t, id, ImageFormField, "tiger.png", 840))
	second := decode[snapshotBody](t, env.submit(t, id, ImageFormField, "elephant_trail.jpg", 8192))
	assert.NotEqual(t, first.RunID, second.RunID)

	rec := env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[snapshotBody](t, rec)
	assert.Equal(t, second.RunID, snap.RunID)
	assert.Equal(t, "elephant_trail.jpg", snap.FileName)
}

func TestSubmitRunRejections(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, slowTiming())
	id := env.openSession(t)

	tests := []struct {
		name       string
		session    string
		field      string
		fileName   string
		size       int
		wantStatus int
	}{
		{"unsupported extension", id, ImageFormField, "tiger.gif", 10, http.StatusBadRequest},
		{"no extension", id, ImageFormField, "tiger", 10, http.StatusBadRequest},
		{"too large", id, ImageFormField, "tiger.png", 2 << 20, http.StatusBadRequest},
		{"wrong field", id, "file", "tiger.png", 10, http.StatusBadRequest},
		{"unknown session", "missing", ImageFormField, "tiger.png", 10, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.submit(t, tt.session, tt.field, tt.fileName, tt.size)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.NotEmpty(t, resp.CorrelationID)
		})
	}

	// rejected uploads never create a run
	rec := env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetRun(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, slowTiming())
	id := env.openSession(t)

	require.Equal(t, http.StatusAccepted, env.submit(t, id, ImageFormField, "tiger.png", 840).Code)
	run, err := env.manager.Current(id)
	require.NoError(t, err)

	rec := env.do(http.MethodDelete, "/api/v2/sessions/"+id+"/run", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	testutil.RequireClosed(t, run.Done(), "reset run still active")
	assert.True(t, run.File().Released())

	rec = env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// resetting an empty session is fine
	rec = env.do(http.MethodDelete, "/api/v2/sessions/"+id+"/run", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCloseSession(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, slowTiming())
	id := env.openSession(t)

	rec := env.do(http.MethodDelete, "/api/v2/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodDelete, "/api/v2/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunImage(t *testing.T) {
	t.Parallel()
	env := setupTestEnvironment(t, slowTiming())
	id := env.openSession(t)

	rec := env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run/image", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusAccepted, env.submit(t, id, ImageFormField, "tiger.png", 840).Code)

	rec = env.do(http.MethodGet, "/api/v2/sessions/"+id+"/run/image", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Body.Bytes(), 840)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSubmitRunRateLimited(t *testing.T) {
	t.Parallel()
	limiter := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.NoContent(http.StatusTooManyRequests)
		}
	}
	env := setupTestEnvironment(t, slowTiming(), WithSubmitLimiter(limiter))
	id := env.openSession(t)

	rec := env.submit(t, id, ImageFormField, "tiger.png", 840)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// other routes are not limited
	rec = env.do(http.MethodGet, "/api/v2/species", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
