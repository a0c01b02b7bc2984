package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
)

// Config holds rate limiting configuration
type Config struct {
	// Global rate limiting across all callers
	GlobalEnabled    bool
	GlobalCapacity   int     // Max burst
	GlobalRefillRate float64 // Requests per second

	// Per-IP rate limiting
	PerIPEnabled    bool
	PerIPCapacity   int
	PerIPRefillRate float64

	// Bucket TTL (how long to keep inactive buckets in memory)
	BucketTTL time.Duration
}

// DefaultConfig returns limits sized for provisioning traffic: identity
// providers push in small bursts, so anything past these rates is a
// replay loop or a misconfigured connector.
func DefaultConfig() *Config {
	return &Config{
		// Global: 600 requests per minute
		GlobalEnabled:    true,
		GlobalCapacity:   600,
		GlobalRefillRate: 600.0 / 60.0,

		// Per-IP: 120 requests per minute
		PerIPEnabled:    true,
		PerIPCapacity:   120,
		PerIPRefillRate: 120.0 / 60.0,

		// Keep buckets for 1 hour after last use
		BucketTTL: 1 * time.Hour,
	}
}

// Middleware holds the rate limiting middleware state
type Middleware struct {
	config        *Config
	globalLimiter *TokenBucket
	ipLimiter     *KeyedLimiter
}

// NewMiddleware creates a new rate limiting middleware
func NewMiddleware(config *Config) *Middleware {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Middleware{config: config}
	if config.GlobalEnabled {
		m.globalLimiter = NewTokenBucket(config.GlobalCapacity, config.GlobalRefillRate)
	}
	if config.PerIPEnabled {
		m.ipLimiter = NewKeyedLimiter(config.PerIPCapacity, config.PerIPRefillRate, config.BucketTTL)
	}
	return m
}

// Handler returns the middleware handler function
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.globalLimiter != nil && !m.globalLimiter.Allow() {
			slog.Warn("Global rate limit exceeded", "path", r.URL.Path)
			renderTooManyRequests(w, r)
			return
		}

		if m.ipLimiter != nil {
			ip := clientIP(r)
			if !m.ipLimiter.Allow(ip) {
				slog.Warn("Per-IP rate limit exceeded", "ip", ip, "path", r.URL.Path)
				renderTooManyRequests(w, r)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func renderTooManyRequests(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, map[string]string{
		"status":  "failure",
		"message": "Rate limit exceeded",
	})
}

// clientIP extracts the caller address, honoring X-Forwarded-For from the
// usual load balancer hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
