// Package middleware carries HTTP middleware shared across handlers.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	dErrors "pinmap/pkg/domain-errors"
	"pinmap/pkg/platform/httputil"
)

// RateLimiter is a per-key sliding window limiter. Registration is the only
// guarded surface, so an in-memory window per client IP is enough; the point
// is to keep floods from burning captcha and provider quota.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string][]time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window per key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string][]time.Time),
	}
}

// Allow records one request for key and reports whether it is within limits.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	kept := l.buckets[key][:0]
	for _, ts := range l.buckets[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.buckets[key] = kept
		return false
	}
	l.buckets[key] = append(kept, now)
	return true
}

// ClientIP extracts the client address for rate-limit keying, preferring the
// first hop of X-Forwarded-For when a proxy set it.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit wraps a handler, answering 429 once a client IP exceeds the window.
func (l *RateLimiter) Limit(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(keyFn(r)) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many registration attempts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
