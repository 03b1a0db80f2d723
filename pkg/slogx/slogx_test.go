package slogx_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/backoffice/pkg/idx"
	"github.com/aussiebroadwan/backoffice/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "backoffice", Env: "test", Level: level, Output: &buf})
	t.Cleanup(func() { slog.SetDefault(slogx.Discard()) })
	return logger, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warn"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel(""))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("verbose"))
}

func TestNew_RedactsSecrets(t *testing.T) {
	logger, buf := capture(t, "info")

	logger.Info("login", "password", "hunter2", "admin_secret", "abc", "principal", "admin@example.com")

	entry := lastEntry(t, buf)
	require.Equal(t, slogx.Redacted, entry["password"])
	require.Equal(t, slogx.Redacted, entry["admin_secret"])
	require.Equal(t, "admin@example.com", entry["principal"])
	require.Equal(t, "backoffice", entry["service"])
}

func TestHTTPMiddleware(t *testing.T) {
	logger, buf := capture(t, "info")

	var fromCtx *slog.Logger
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = slogx.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	require.NotNil(t, fromCtx)
	reqID := rec.Header().Get(slogx.RequestIDHeader)
	require.True(t, idx.Valid(reqID))

	entry := lastEntry(t, buf)
	require.Equal(t, "http_request", entry["msg"])
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, reqID, entry["req_id"])
	require.Equal(t, "/admin", entry["path"])
	require.EqualValues(t, http.StatusTeapot, entry["status"])
	require.EqualValues(t, len("short and stout"), entry["bytes"])
}

func TestHTTPMiddleware_Levels(t *testing.T) {
	logger, buf := capture(t, "info")

	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Zero(t, buf.Len(), "probes log at debug")

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, "ERROR", lastEntry(t, buf)["level"])
}

func TestHTTPMiddleware_KeepsValidRequestID(t *testing.T) {
	id := idx.New()
	h := slogx.HTTPMiddleware(slogx.Discard())(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(slogx.RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, id, rec.Header().Get(slogx.RequestIDHeader))

	req.Header.Set(slogx.RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotEqual(t, "<script>", rec.Header().Get(slogx.RequestIDHeader))
}

func TestWith(t *testing.T) {
	logger, buf := capture(t, "info")

	ctx := slogx.WithContext(t.Context(), logger)
	ctx = slogx.With(ctx, "route_class", "protected")
	slogx.FromContext(ctx).Info("checked")

	require.Equal(t, "protected", lastEntry(t, buf)["route_class"])
}

func TestFromContext_DefaultsToSlogDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Same(t, slog.Default(), slogx.FromContext(req.Context()))
}
