package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	// Content Security Policy
	CSP string

	// HSTS settings
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	// Additional security headers
	XFrameOptions       string
	XContentTypeOptions string
	XXSSProtection      string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginEmbedder string
	CrossOriginResource string
}

// DefaultHeadersConfig returns secure defaults for a JSON and event-stream API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'",

		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		XXSSProtection:      "1; mode=block",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginEmbedder: "require-corp",
		CrossOriginResource: "same-site",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	config HeadersConfig
}

// NewHeadersMiddleware creates a new security headers middleware
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{
		config: config,
	}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Apply security headers
		h.applyHeaders(w, r)

		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) applyHeaders(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()

	// Basic security headers
	headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
	headers.Set("X-Frame-Options", h.config.XFrameOptions)
	headers.Set("X-XSS-Protection", h.config.XXSSProtection)

	// Content Security Policy
	if h.config.CSP != "" {
		headers.Set("Content-Security-Policy", h.config.CSP)
	}

	// Modern security headers
	headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
	headers.Set("Permissions-Policy", h.config.PermissionsPolicy)
	headers.Set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
	headers.Set("Cross-Origin-Embedder-Policy", h.config.CrossOriginEmbedder)
	headers.Set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

	// HSTS header (only for HTTPS, directly or behind a terminating proxy)
	if (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") && h.config.HSTSMaxAge > 0 {
		hstsValue := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			hstsValue += "; includeSubDomains"
		}
		if h.config.HSTSPreload {
			hstsValue += "; preload"
		}
		headers.Set("Strict-Transport-Security", hstsValue)
	}
}

// NoStoreMiddleware marks responses as uncacheable. Dashboards are per
// user and change on every write.
func NoStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware lets the listed frontend origins call the API with
// credentials. Origins are compared without a trailing slash. Preflight
// requests from allowed origins are answered directly.
func CORSMiddleware(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSuffix(r.Header.Get("Origin"), "/")
			if _, ok := set[origin]; !ok || origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
