package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/services"
)

// handleEvents streams one "dashboard" event per snapshot the hub pushes.
// The first event is the current state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, user core.User) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentRealtime)

	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError("streaming unsupported").Write(w)
		return
	}
	opts, err := parseDashboardOptions(r, s.deps.DefaultLocale, s.asOf())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	updates := make(chan []core.Subscription, 1)
	reg, err := s.deps.Snapshots.Subscribe(ctx, user.ID, func(snapshot []core.Subscription) {
		select {
		case updates <- snapshot:
		case <-ctx.Done():
		}
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to subscribe to snapshots", log.FieldUserID, user.ID, log.FieldError, err)
		InternalServerError("could not open event stream").Write(w)
		return
	}
	defer reg.Cancel()

	atomic.AddInt64(&s.metrics.activeStreams, 1)
	defer atomic.AddInt64(&s.metrics.activeStreams, -1)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(s.deps.Keepalive)
	defer keepalive.Stop()

	logger.DebugContext(ctx, "Event stream opened", log.FieldUserID, user.ID)
	for {
		select {
		case <-ctx.Done():
			return
		case <-reg.Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snapshot := <-updates:
			// Each push gets a fresh "today" so day boundaries roll over.
			opts.AsOf = s.asOf()
			payload, err := json.Marshal(services.BuildDashboard(snapshot, opts))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to encode dashboard", log.FieldError, err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: dashboard\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
