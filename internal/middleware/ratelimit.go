package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

type limiter struct {
	mu        sync.Mutex
	limit     int
	per       time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(limit int, per time.Duration) *limiter {
	return &limiter{
		limit:     limit,
		per:       per,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// allow reports whether a request from ip fits in its current window. At most
// once per window it sweeps expired buckets so the map stays bounded by the
// number of clients seen in the last window, not ever.
func (l *limiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.per {
		for key, b := range l.buckets {
			if now.After(b.until) {
				delete(l.buckets, key)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[ip]
	if !ok || now.After(b.until) {
		b = &bucket{count: 0, until: now.Add(l.per)}
		l.buckets[ip] = b
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// RateLimit applies a fixed-window per-IP limit. The router mounts it on the
// unauthenticated credential endpoints to keep bcrypt work bounded.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(ClientIP(r), time.Now()) {
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
