package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/config"
	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/testutil"
)

// newTestServer builds a server over a mock engine with sessions rooted in
// a temp dir; rate limiting stays off unless the test turns it on.
func newTestServer(t *testing.T, mock *engine.Mock) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Server.RateLimitRPS = 0

	srv, err := New(mock, cfg)
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

// multipartBody builds a request body with one PNG page per filename under
// the given field.
func multipartBody(t *testing.T, field string, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range filenames {
		path := testutil.SavePNG(t, dir, name, testutil.TextPageImage(40, 30, 1))
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		data, err := io.ReadAll(mustOpen(t, path))
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func mustOpen(t *testing.T, path string) io.ReadCloser {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(nil, config.DefaultConfig())
	assert.Error(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	_, err := New(engine.NewMock("en"), cfg)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, engine.NewMock("en"))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body := decode[HealthResponse](t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body.Status)
	assert.NotEmpty(t, body.Version)
}

func TestHealthzRejectsPost(t *testing.T) {
	_, ts := newTestServer(t, engine.NewMock("en"))

	resp, err := http.Post(ts.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestProcessDocument(t *testing.T) {
	mock := engine.NewMock("en").Script("en", testutil.Row(3))
	_, ts := newTestServer(t, mock)

	body, ctype := multipartBody(t, "document", "page.png")
	resp, err := http.Post(ts.URL+"/process", ctype, body)
	require.NoError(t, err)
	out := decode[ProcessResponse](t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.Session)
	require.NotNil(t, out.Result)
	require.Len(t, out.Result.Results, 1)
	assert.Equal(t, 3, out.Result.Results[0].TextCount)
}

func TestProcessRequiresFile(t *testing.T) {
	_, ts := newTestServer(t, engine.NewMock("en"))

	body, ctype := multipartBody(t, "wrong_field", "page.png")
	resp, err := http.Post(ts.URL+"/process", ctype, body)
	require.NoError(t, err)
	out := decode[ErrorResponse](t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out.Error, "document")
}

func TestSessionsListAndPrune(t *testing.T) {
	mock := engine.NewMock("en").
		Script("en", testutil.Row(1), testutil.Row(1), testutil.Row(1))
	_, ts := newTestServer(t, mock)

	for i := 0; i < 3; i++ {
		body, ctype := multipartBody(t, "document", "page.png")
		resp, err := http.Post(ts.URL+"/process", ctype, body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	listed := decode[SessionsResponse](t, resp)
	assert.Equal(t, 3, listed.Count)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sessions?keep=1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	pruned := decode[PruneResponse](t, resp)
	assert.Equal(t, 1, pruned.Kept)
	assert.Len(t, pruned.Removed, 2)

	resp, err = http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	listed = decode[SessionsResponse](t, resp)
	assert.Equal(t, 1, listed.Count)
}

func TestPruneRejectsBadKeep(t *testing.T) {
	_, ts := newTestServer(t, engine.NewMock("en"))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/sessions?keep=-2", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
