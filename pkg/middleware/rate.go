// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cremaze/cremaze/pkg/apperr"
	"github.com/cremaze/cremaze/pkg/response"
)

// bucket tracks a fixed-window request count for one client.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// allow counts one request and reports whether it fits the window. The
// remaining window duration is returned for the Retry-After header.
func (b *bucket) allow(max int, window time.Duration) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max, time.Until(b.resetAt)
}

// limiter holds the buckets for one RateLimit instance. Each guarded route
// gets its own limiter, so hammering the login endpoint cannot exhaust the
// contact form's allowance for the same client.
type limiter struct {
	mu      sync.Mutex
	window  time.Duration
	buckets map[string]*bucket
}

func newLimiter(window time.Duration) *limiter {
	l := &limiter{window: window, buckets: map[string]*bucket{}}
	go l.sweep()
	return l
}

// sweep evicts buckets whose window has expired so long-running servers
// don't accumulate one entry per client forever.
func (l *limiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for key, b := range l.buckets {
			b.mu.Lock()
			expired := now.After(b.resetAt)
			b.mu.Unlock()
			if expired {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *limiter) bucket(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		return b
	}

	b := &bucket{resetAt: time.Now().Add(l.window)}
	l.buckets[key] = b
	return b
}

// clientIP resolves the caller's address: first hop of X-Forwarded-For when
// the SPA sits behind a proxy, RemoteAddr (sans port) otherwise.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit limits each client IP to max requests per window on the routes it
// wraps. Over-limit requests get a 429 envelope and a Retry-After header.
// Example: middleware.RateLimit(5, time.Minute) on the contact form.
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(window)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryIn := l.bucket(clientIP(r)).allow(max, window)
			if !ok {
				secs := int(retryIn / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				response.Error(w, http.StatusTooManyRequests, apperr.CodeRateLimited,
					"Too many requests, try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
