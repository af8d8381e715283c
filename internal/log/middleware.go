package log

import (
	"context"
	"log/slog"
	"net/http"

	"subtrack/internal/core"
)

type contextKey struct{}

// Middleware stores logger in each request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or the slog default tagged
// "unknown" outside a request.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return wrap(slog.Default(), "unknown")
}

// ComponentMiddleware retags the request logger.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware adds the request id to the request logger.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the fixed-shape events shared across packages.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithClientIP(clientIP)

	sl.logger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs 4xx at warn and 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogSubscriptionCreated(ctx context.Context, userID string, s core.Subscription) {
	fields := NewFields().
		WithUser(userID).
		WithSubscription(s).
		WithOperation(OpCreate)

	sl.logger.InfoContext(ctx, "Subscription created", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogSubscriptionDeleted(ctx context.Context, userID, id string) {
	fields := NewFields().
		WithUser(userID).
		WithOperation(OpDelete)
	fields[FieldSubscriptionID] = id

	sl.logger.InfoContext(ctx, "Subscription deleted", fields.ToSlice()...)
}

// LogError logs err under component, overriding the logger's own tag.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}
