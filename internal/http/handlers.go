package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/i18n"
)

type appMetrics struct {
	uptime               time.Time
	subscriptionsCreated int64
	subscriptionsDeleted int64
	activeStreams        int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.deps.Store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.deps.Store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	if s.deps.Provider != nil && s.deps.Provider.Configured() {
		checks["login"] = "ok"
	} else {
		checks["login"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_response_time_microseconds_avg", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	writeMetric(w, "subscriptions_created_total", "counter", "Subscriptions created through the API", atomic.LoadInt64(&s.metrics.subscriptionsCreated))
	writeMetric(w, "subscriptions_deleted_total", "counter", "Subscriptions deleted through the API", atomic.LoadInt64(&s.metrics.subscriptionsDeleted))
	writeMetric(w, "event_streams_active", "gauge", "Open dashboard event streams", atomic.LoadInt64(&s.metrics.activeStreams))
	writeMetric(w, "rate_limit_rejected_reads_total", "counter", "Reads rejected by the rate limiter", rateLimitMetrics.RejectedReads)
	writeMetric(w, "rate_limit_rejected_writes_total", "counter", "Writes rejected by the rate limiter", rateLimitMetrics.RejectedWrites)
	writeMetric(w, "rate_limit_windows", "gauge", "Currently tracked rate limit windows", rateLimitMetrics.Windows)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.metrics.uptime).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

type userHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireUser rejects requests without a valid session.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFrom(r.Context())
		if !ok {
			loc := requestLocale(r, s.deps.DefaultLocale)
			UnauthorizedError(i18n.T(loc, i18n.SignInRequired)).Write(w)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	type preset struct {
		core.ServicePreset
		Cost float64 `json:"cost"`
	}
	presets := core.Presets()
	out := make([]preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, preset{ServicePreset: p, Cost: p.Cost.Units()})
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(core.Currencies()).Write(w)
}

func (s *Server) handleTradeOffs(w http.ResponseWriter, r *http.Request) {
	loc := requestLocale(r, s.deps.DefaultLocale)
	NewJSONResponse().Data(map[string]any{
		"locale": loc,
		"items":  core.TradeOffItems(loc),
	}).Write(w)
}
