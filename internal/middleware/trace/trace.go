package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	"subtrack/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
	// HeaderRequestID carries the request id in and out.
	HeaderRequestID = "X-Request-ID"
)

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,64}$`)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger

	totalRequests int64
	totalMicros   int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	AverageResponseTime int64 // in microseconds
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string, logger *log.Logger) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    log.NewStructuredLogger(logger),
	}
}

// Middleware returns HTTP middleware for request tracing. A well-formed
// incoming X-Request-ID is kept, otherwise a new one is generated.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		m.logger.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.AddInt64(&m.totalRequests, 1)
		atomic.AddInt64(&m.totalMicros, duration.Microseconds())

		m.logger.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
// It forwards Flush so streaming handlers keep working.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.totalRequests)
	metrics := Metrics{TotalRequests: total}
	if total > 0 {
		metrics.AverageResponseTime = atomic.LoadInt64(&m.totalMicros) / total
	}
	return metrics
}

// LoggerMiddleware attaches a request-scoped logger carrying the request id.
func LoggerMiddleware(base *log.Logger) func(http.Handler) http.Handler {
	withID := log.RequestIDMiddleware(func(r *http.Request) string { return GetRequestID(r.Context()) })
	return func(next http.Handler) http.Handler {
		return log.Middleware(base)(withID(next))
	}
}
