// Package ratelimit provides rate limiting for the API proxy.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Window is the length of one counting window.
	Window time.Duration
	// MaxPerWindow is the number of proxied requests one client may make
	// per window.
	MaxPerWindow int

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Window:       time.Minute,
		MaxPerWindow: 120,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks request counts per window.
type entry struct {
	count   int
	firstAt time.Time
}

// Limiter implements fixed-window per-client rate limiting.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	byIP   map[string]*entry
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		config: cfg,
		clock:  clock,
		byIP:   make(map[string]*entry),
	}
}

// Check records a request for the client and reports whether it is
// allowed within the current window.
func (l *Limiter) Check(clientIP string) LimitResult {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.byIP[clientIP]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		l.byIP[clientIP] = &entry{count: 1, firstAt: now}
		l.pruneLocked(now)
		return LimitResult{Allowed: true}
	}

	if e.count >= l.config.MaxPerWindow {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Window - now.Sub(e.firstAt),
			Reason:     "window_limit",
		}
	}

	e.count++
	return LimitResult{Allowed: true}
}

// pruneLocked drops entries whose window has passed. Called with the
// lock held, piggybacking on window rollover so no cleanup goroutine is
// needed.
func (l *Limiter) pruneLocked(now time.Time) {
	for ip, e := range l.byIP {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.byIP, ip)
		}
	}
}

// ClientIP extracts the originating client address from a request,
// preferring the first X-Forwarded-For hop.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
