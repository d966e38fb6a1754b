package handler

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/landing/backend/internal/metrics"
)

// SecurityHeadersStage adds hardening response headers to every response.
func SecurityHeadersStage() Stage {
	return Stage{
		Name: "security-headers",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("X-XSS-Protection", "0")
			h.Set("X-DNS-Prefetch-Control", "off")
			h.Set("X-Download-Options", "noopen")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			h.Set("Origin-Agent-Cluster", "?1")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			return Next(nil)
		},
	}
}

// RateLimitMessage is the body message of a 429 response.
const RateLimitMessage = "Too many requests, please try again later."

// rateLimitResponse is the 429 body. It deliberately differs from the
// envelope; existing clients match on statusCode.
type rateLimitResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// RateLimiter provides IP-based rate limiting using a sliding window.
type RateLimiter struct {
	name              string
	max               int
	window            time.Duration
	trustedProxyCount int
	metrics           *metrics.Metrics
	now               func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow

	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	timestamps []time.Time
}

// RateLimiterConfig configures NewRateLimiter.
type RateLimiterConfig struct {
	Name   string // label used in logs and metrics
	Max    int
	Window time.Duration
	// TrustedProxyCount is the number of X-Forwarded-For entries appended by
	// our own infrastructure. Zero ignores the header.
	TrustedProxyCount int
	Metrics           *metrics.Metrics
}

// NewRateLimiter creates a limiter allowing cfg.Max requests per client IP
// in any cfg.Window. Call Close to stop its cleanup goroutine.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		name:              cfg.Name,
		max:               cfg.Max,
		window:            cfg.Window,
		trustedProxyCount: cfg.TrustedProxyCount,
		metrics:           cfg.Metrics,
		now:               time.Now,
		clients:           make(map[string]*clientWindow),
		stop:              make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanupLoop periodically removes stale entries from the clients map.
func (rl *RateLimiter) cleanupLoop() {
	interval := rl.window
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() {
	windowStart := rl.now().Add(-rl.window)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, cw := range rl.clients {
		cw.trim(windowStart)
		if len(cw.timestamps) == 0 {
			delete(rl.clients, ip)
		}
	}
}

// trim drops timestamps outside the window; in-place filter on the shared
// backing array.
func (cw *clientWindow) trim(windowStart time.Time) {
	valid := cw.timestamps[:0]
	for _, ts := range cw.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	cw.timestamps = valid
}

// Stage returns the pipeline stage enforcing this limiter. With no prefixes
// it applies to every path; otherwise only to paths under one of them.
func (rl *RateLimiter) Stage(prefixes ...string) Stage {
	return Stage{
		Name: "rate-limit:" + rl.name,
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			if !matchesPrefix(r.URL.Path, prefixes) {
				return Next(nil)
			}
			if rl.allow(w, r) {
				return Next(nil)
			}
			return Halt()
		},
	}
}

// allow records the request and reports whether it is within the limit. On
// rejection it writes the 429 response.
func (rl *RateLimiter) allow(w http.ResponseWriter, r *http.Request) bool {
	ip := rl.clientIP(r)
	now := rl.now()

	rl.mu.Lock()
	cw, ok := rl.clients[ip]
	if !ok {
		cw = &clientWindow{}
		rl.clients[ip] = cw
	}
	cw.trim(now.Add(-rl.window))

	if len(cw.timestamps) >= rl.max {
		reset := cw.timestamps[0].Add(rl.window).Sub(now)
		rl.mu.Unlock()

		rl.setHeaders(w, 0, reset)
		w.Header().Set("Retry-After", retryAfterSeconds(reset))
		rl.metrics.RateLimited(rl.name)
		slog.Warn("rate limit exceeded", "limiter", rl.name, "ip", ip, "path", r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
			StatusCode: http.StatusTooManyRequests,
			Message:    RateLimitMessage,
		})
		return false
	}

	cw.timestamps = append(cw.timestamps, now)
	remaining := rl.max - len(cw.timestamps)
	reset := cw.timestamps[0].Add(rl.window).Sub(now)
	rl.mu.Unlock()

	rl.setHeaders(w, remaining, reset)
	return true
}

func (rl *RateLimiter) setHeaders(w http.ResponseWriter, remaining int, reset time.Duration) {
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(rl.max))
	h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("RateLimit-Reset", retryAfterSeconds(reset))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", rl.max, int(rl.window.Seconds())))
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP extracts the real client IP, reading from the rightmost trusted
// proxy position in X-Forwarded-For to prevent spoofing.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && rl.trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		// The rightmost entry added by our infrastructure is at
		// index len(parts) - trustedProxyCount.
		idx := len(parts) - rl.trustedProxyCount
		if idx >= 0 && idx < len(parts) {
			return strings.TrimSpace(parts[idx])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func matchesPrefix(path string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
