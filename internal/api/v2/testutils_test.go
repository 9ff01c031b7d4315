package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pugmark/internal/analysis"
	"github.com/tphakala/pugmark/internal/classifier"
	"github.com/tphakala/pugmark/internal/species"
	"github.com/tphakala/pugmark/internal/testutil"
	"github.com/tphakala/pugmark/internal/upload"
)

type testEnv struct {
	echo       *echo.Echo
	controller *Controller
	manager    *analysis.Manager
}

func fastTiming() analysis.Config {
	return analysis.Config{
		TickInterval:    time.Millisecond,
		ProgressStep:    25,
		ProcessingDelay: time.Millisecond,
	}
}

// slowTiming keeps a run in Scanning for the length of a test.
func slowTiming() analysis.Config {
	return analysis.Config{
		TickInterval:    time.Hour,
		ProgressStep:    1,
		ProcessingDelay: time.Hour,
	}
}

func setupTestEnvironment(t *testing.T, timing analysis.Config, opts ...Option) *testEnv {
	t.Helper()

	reg, err := species.Default()
	require.NoError(t, err)
	policy, err := classifier.NewPolicy(reg)
	require.NoError(t, err)

	engine, err := analysis.NewEngine(timing, policy)
	require.NoError(t, err)
	manager := analysis.NewManager(engine, time.Minute, time.Minute)
	t.Cleanup(manager.Shutdown)

	uploads, err := upload.NewPolicy("1M", []string{".jpg", ".jpeg", ".png"})
	require.NoError(t, err)

	e := echo.New()
	controller, err := New(e, manager, policy, uploads, opts...)
	require.NoError(t, err)

	return &testEnv{echo: e, controller: controller, manager: manager}
}

// do serves a request through the full router.
func (env *testEnv) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = http.NoBody
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) openSession(t *testing.T) string {
	t.Helper()
	rec := env.do(http.MethodPost, "/api/v2/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func (env *testEnv) submit(t *testing.T, sessionID, field, name string, size int) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartImage(t, field, name, bytes.Repeat([]byte{0xAB}, size))
	return env.do(http.MethodPut, "/api/v2/sessions/"+sessionID+"/run", body, contentType)
}

func (env *testEnv) waitForRun(t *testing.T, sessionID string) {
	t.Helper()
	run, err := env.manager.Current(sessionID)
	require.NoError(t, err)
	testutil.WaitForChannel(t, run.Done(), testutil.DefaultTestTimeout, "run did not finish")
}

func multipartImage(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

type resultBody struct {
	ClassID    string  `json:"class_id"`
	Known      bool    `json:"known"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence_percent"`
}

type snapshotBody struct {
	RunID     string      `json:"run_id"`
	SessionID string      `json:"session_id"`
	FileName  string      `json:"file_name"`
	FileSize  int64       `json:"file_size"`
	Stage     string      `json:"stage"`
	Progress  int         `json:"progress"`
	Result    *resultBody `json:"result"`
	Cancelled bool        `json:"cancelled"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
