package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"

	"subtrack/internal/log"
)

// Rule names a probe signature.
type Rule string

const (
	RulePath         Rule = "path"
	RuleQuery        Rule = "query"
	RuleAgent        Rule = "agent"
	RuleMethod       Rule = "method"
	RuleLongURL      Rule = "long_url"
	RuleForwardChain Rule = "forward_chain"
)

const (
	maxURLLength    = 2048
	maxForwardHops  = 5
	forwardedFor    = "X-Forwarded-For"
	realIP          = "X-Real-IP"
	defaultNetworks = "127.0.0.0/8 ::1/128 10.0.0.0/8 172.16.0.0/12 192.168.0.0/16"
)

var (
	probePatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb",
		"masscan", "zgrab", "scanner",
	}
	probeMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

// DetectionMetrics counts probes and forged forwarding headers.
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector flags probe traffic and resolves client addresses behind
// trusted proxies.
type Detector struct {
	suspicious atomic.Int64
	invalidIP  atomic.Int64
	trusted    []netip.Prefix
}

// NewDetector trusts loopback and private networks plus any extra CIDRs.
func NewDetector(extra ...string) (*Detector, error) {
	d := &Detector{}
	for _, cidr := range append(strings.Fields(defaultNetworks), extra...) {
		if err := d.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trusted = append(d.trusted, p.Masked())
	return nil
}

// Inspect returns the first rule r matches.
func (d *Detector) Inspect(r *http.Request) (Rule, bool) {
	rule, hit := match(r)
	if hit {
		d.suspicious.Add(1)
	}
	return rule, hit
}

// DetectSuspiciousRequest reports whether r looks like a probe.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	_, hit := d.Inspect(r)
	return hit
}

func match(r *http.Request) (Rule, bool) {
	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if q, err := url.QueryUnescape(query); err == nil {
		query = q
	}
	query = strings.ToLower(query)
	for _, p := range probePatterns {
		if strings.Contains(path, p) {
			return RulePath, true
		}
		if strings.Contains(query, p) {
			return RuleQuery, true
		}
	}

	agent := strings.ToLower(r.UserAgent())
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return RuleAgent, true
		}
	}

	if slices.Contains(probeMethods, r.Method) {
		return RuleMethod, true
	}
	if len(r.URL.String()) > maxURLLength {
		return RuleLongURL, true
	}
	if xff := r.Header.Get(forwardedFor); xff != "" && r.Header.Get(realIP) != "" {
		if strings.Count(xff, ",") > maxForwardHops {
			return RuleForwardChain, true
		}
	}
	return "", false
}

// ExtractClientIP returns the peer address unless the peer is a trusted
// proxy. Then X-Forwarded-For is walked from the right, skipping trusted
// hops, and the first untrusted address wins. X-Real-IP is the fallback.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !d.isTrusted(peer) {
		return host
	}

	if xff := r.Header.Get(forwardedFor); xff != "" {
		if ip, ok := d.fromForwarded(xff); ok {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get(realIP)); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}
	return host
}

func (d *Detector) fromForwarded(xff string) (string, bool) {
	hops := strings.Split(xff, ",")
	var last netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			d.invalidIP.Add(1)
			return "", false
		}
		if !d.isTrusted(addr) {
			return addr.String(), true
		}
		last = addr
	}
	// Every hop is a proxy we run; the leftmost is as close as we get.
	return last.String(), last.IsValid()
}

func (d *Detector) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range d.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
}

// Middleware logs requests that look like probes and lets them through.
// Blocking is left to the rate limiter.
func (d *Detector) Middleware(logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(log.ComponentSecurity)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rule, hit := d.Inspect(r); hit {
				logger.WarnContext(r.Context(), "Suspicious request",
					"rule", string(rule),
					log.FieldClientIP, d.ExtractClientIP(r),
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path,
					log.FieldUserAgent, r.UserAgent())
			}
			next.ServeHTTP(w, r)
		})
	}
}
