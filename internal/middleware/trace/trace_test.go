package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	return NewMiddleware(func(*http.Request) string { return "10.0.0.1" }, log.NewText(buf, slog.LevelInfo, log.ComponentTrace))
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	require.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), "status_code=418")
	assert.Contains(t, buf.String(), "client_ip=10.0.0.1")
	assert.Equal(t, int64(1), m.GetMetrics().TotalRequests)
}

func TestMiddleware_KeepsValidIncomingID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc12345-upstream")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc12345-upstream", rec.Header().Get(HeaderRequestID))

	req.Header.Set(HeaderRequestID, "bad id with spaces")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id with spaces", rec.Header().Get(HeaderRequestID))
}

func TestResponseWriter_Flushes(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var flushed bool
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data: x\n\n"))
		f.Flush()
		flushed = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.True(t, flushed)
	assert.True(t, rec.Flushed)
}

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := log.NewText(&buf, slog.LevelInfo, log.ComponentHTTP)
	m := newTestMiddleware(&bytes.Buffer{})

	h := m.Middleware(LoggerMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).Info("inside handler")
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "request_id=req_")
}
