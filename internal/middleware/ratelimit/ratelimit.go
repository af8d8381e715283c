// Package ratelimit throttles clients with fixed one-minute windows. Reads
// and writes are counted separately so a client polling the dashboard does
// not exhaust its budget for creating or deleting subscriptions.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window   = time.Minute
	staleAge = 10 * time.Minute
)

// Class separates request budgets.
type Class uint8

const (
	Read Class = iota
	Write
)

// ClassOf treats every method that can change state as a write.
func ClassOf(r *http.Request) Class {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	default:
		return Write
	}
}

// Limiter counts requests per client and class.
type Limiter struct {
	mu           sync.Mutex
	windows      map[key]*counter
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	limits          [2]int
	cleanupInterval time.Duration
	now             func() time.Time

	rejected [2]atomic.Int64
}

type key struct {
	client string
	class  Class
}

type counter struct {
	start    time.Time
	requests int
}

// Config holds rate limiter configuration. WritesPerMinute defaults to a
// quarter of RequestsPerMinute, never below one.
type Config struct {
	RequestsPerMinute int
	WritesPerMinute   int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		WritesPerMinute:   15,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter with a background sweep of idle clients.
// Stop releases it.
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.WritesPerMinute <= 0 {
		config.WritesPerMinute = max(1, config.RequestsPerMinute/4)
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &Limiter{
		windows:         make(map[key]*counter),
		stopCleanup:     make(chan struct{}),
		limits:          [2]int{Read: config.RequestsPerMinute, Write: config.WritesPerMinute},
		cleanupInterval: config.CleanupInterval,
		now:             time.Now,
	}
	go rl.startCleanup()
	return rl
}

// Allow records one request and reports whether it fits the client's
// current window. When it does not, retryAfter is the time left until the
// window resets.
func (rl *Limiter) Allow(client string, class Class) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	k := key{client: client, class: class}
	c, exists := rl.windows[k]
	if !exists || now.Sub(c.start) >= window {
		rl.windows[k] = &counter{start: now, requests: 1}
		return true, 0
	}

	if c.requests >= rl.limits[class] {
		rl.rejected[class].Add(1)
		return false, c.start.Add(window).Sub(now)
	}
	c.requests++
	return true, 0
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleAge)
	for k, c := range rl.windows {
		if c.start.Before(cutoff) {
			delete(rl.windows, k)
		}
	}
}

// ActiveClients returns the number of tracked client windows.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Metrics counts rejections per class since start.
type Metrics struct {
	RejectedReads  int64
	RejectedWrites int64
	Windows        int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		RejectedReads:  rl.rejected[Read].Load(),
		RejectedWrites: rl.rejected[Write].Load(),
		Windows:        int64(rl.ActiveClients()),
	}
}

// RetryAfterSeconds rounds d up to whole seconds, at least one.
func RetryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}

// Middleware rejects requests over budget. Retry-After is set before onLimit
// runs; a nil onLimit answers with a plain 429.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := rl.Allow(extractIP(r), ClassOf(r))
			if !ok {
				w.Header().Set("Retry-After", RetryAfterSeconds(retry))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
