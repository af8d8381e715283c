package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/realtime"
	"subtrack/internal/storage"
)

// SubscriptionAPI is the part of the subscription service the API drives.
type SubscriptionAPI interface {
	CreateSubscription(ctx context.Context, userID string, in core.NewSubscription) (string, error)
	DeleteSubscription(ctx context.Context, userID, id string) error
	ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
	Now() time.Time
}

// SnapshotSource pushes a user's full set on subscribe and on every change.
type SnapshotSource interface {
	Subscribe(ctx context.Context, userID string, fn realtime.Listener) (*realtime.Registration, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the server to the rest of the application.
type Deps struct {
	Subscriptions SubscriptionAPI
	Snapshots     SnapshotSource
	Users         storage.UserStore
	Store         Pinger
	Provider      *auth.Provider
	Sessions      *auth.SessionManager
	Logger        *log.Logger

	DefaultLocale  core.Locale
	Location       *time.Location
	AllowedOrigins []string
	TrustedProxies []string
	RateLimit      int
	// Keepalive is the interval between comment frames on event streams.
	Keepalive time.Duration
}

// Server is the HTTP API. It embeds http.Server so callers can
// ListenAndServe directly.
type Server struct {
	http.Server

	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Logger == nil {
		d.Logger = log.New(log.DefaultConfig())
	}
	if !d.DefaultLocale.IsValid() {
		d.DefaultLocale = core.DefaultLocale
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Keepalive <= 0 {
		d.Keepalive = 25 * time.Second
	}

	detector, err := security.NewDetector(d.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	logger := d.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:     d,
		logger:   logger,
		detector: detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: d.RateLimit,
			CleanupInterval:   5 * time.Minute,
		}),
		tracer:  trace.NewMiddleware(detector.ExtractClientIP, d.Logger.WithComponent(log.ComponentTrace)),
		metrics: newAppMetrics(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)

	mux.HandleFunc("GET /api/subscriptions", s.requireUser(s.handleDashboard))
	mux.HandleFunc("POST /api/subscriptions", s.requireUser(s.handleCreateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.requireUser(s.handleDeleteSubscription))
	mux.HandleFunc("GET /api/events", s.requireUser(s.handleEvents))

	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/tradeoffs", s.handleTradeOffs)

	var h http.Handler = mux
	if d.Sessions != nil {
		h = auth.Authenticate(d.Sessions)(h)
	}
	h = security.NoStoreMiddleware(h)
	h = s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(h)
	h = security.CORSMiddleware(d.AllowedOrigins)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = detector.Middleware(d.Logger)(h)
	h = trace.LoggerMiddleware(d.Logger)(h)
	h = s.tracer.Middleware(h)

	// No WriteTimeout: event streams stay open for the life of the client.
	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// asOf is the current instant in the configured zone.
func (s *Server) asOf() time.Time {
	return s.deps.Subscriptions.Now().In(s.deps.Location)
}
