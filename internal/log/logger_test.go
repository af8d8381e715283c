package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLogger_ComponentIsAttached(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelDebug, ComponentRealtime)

	l.Info("listener added", FieldUserID, "u1")

	out := buf.String()
	assert.Contains(t, out, "component=realtime")
	assert.Contains(t, out, "user_id=u1")
}

func TestLogger_ComponentIsNotRepeated(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelInfo, ComponentApp).
		With(FieldRequestID, "req_1").
		WithComponent(ComponentAuth)

	l.Info("signed in")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="))
	assert.Contains(t, out, "component=auth")
	assert.Contains(t, out, "request_id=req_1", "attributes survive a component switch")
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelWarn, ComponentApp)

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestStructuredLogger_SubscriptionCreated(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentApp))

	sub := core.Subscription{
		ID:              "abc",
		Name:            "Netflix",
		Cost:            core.Money{Cents: 1599},
		Currency:        core.USD,
		Cycle:           core.Monthly,
		Category:        core.Category("Entertainment"),
		NextBillingDate: core.NewDate(2024, 3, 1),
	}
	sl.LogSubscriptionCreated(context.Background(), "u1", sub)

	out := buf.String()
	for _, want := range []string{"subscription_id=abc", "cost_cents=1599", "next_billing_date=2024-03-01", "operation=create"} {
		assert.Contains(t, out, want)
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentApp))

	sl.LogError(context.Background(), "mirror failed", errors.New("quota"), ComponentSheets, OpMirror, NewFields().WithUser("u2"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "level=ERROR"))
	assert.Contains(t, out, "error=quota")
	assert.Contains(t, out, "user_id=u2")
	assert.Contains(t, out, "component=sheets")
	assert.Equal(t, 1, strings.Count(out, "component="))
}

func TestMiddleware_FromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewText(&buf, slog.LevelInfo, ComponentApp)

	var got *Logger
	h := Middleware(base)(ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
