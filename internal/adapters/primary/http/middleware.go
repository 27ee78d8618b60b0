package http

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Unwrap lets http.ResponseController and the WebSocket upgrader reach the
// underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack is required by the WebSocket upgrader
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

// createLoggingMiddleware creates logging middleware with a specific logger
func createLoggingMiddleware(next http.Handler, logger ports.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		if wrapped.status >= http.StatusInternalServerError {
			logger.Error("HTTP %s %s - %d %d bytes in %v", r.Method, r.URL.Path, wrapped.status, wrapped.size, duration)
			return
		}
		logger.Info("HTTP %s %s - %d %d bytes in %v", r.Method, r.URL.Path, wrapped.status, wrapped.size, duration)
	})
}

// metricsMiddleware records request counts and latency per route template
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.ObserveHTTPRequest(r.Method, route, wrapped.status, time.Since(start))
	})
}

// securityHeadersMiddleware adds security headers to all responses
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Content Security Policy - the API only serves JSON and course assets
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"img-src 'self' data:; "+
				"connect-src 'self' ws: wss:; "+
				"frame-ancestors 'none'")

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-DNS-Prefetch-Control", "off")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter manages rate limiting per IP with a sliding window
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	limit   int
	window  time.Duration
	cleanup time.Duration
	now     func() time.Time
}

type clientInfo struct {
	lastSeen time.Time
	requests []time.Time
}

// newRateLimiter creates a new rate limiter allowing limit requests per window
func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientInfo),
		limit:   limit,
		window:  window,
		cleanup: 5 * time.Minute,
		now:     time.Now,
	}
}

// cleanupRoutine removes old client entries until ctx ends
func (rl *rateLimiter) cleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *rateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cleanup)
	for ip, info := range rl.clients {
		if info.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// isAllowed checks if the request is within rate limits
func (rl *rateLimiter) isAllowed(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	client, exists := rl.clients[ip]
	if !exists {
		rl.clients[ip] = &clientInfo{
			lastSeen: now,
			requests: []time.Time{now},
		}
		return true
	}

	client.lastSeen = now

	validRequests := client.requests[:0]
	for _, reqTime := range client.requests {
		if reqTime.After(cutoff) {
			validRequests = append(validRequests, reqTime)
		}
	}

	if len(validRequests) >= rl.limit {
		client.requests = validRequests
		return false
	}

	client.requests = append(validRequests, now)
	return true
}

// rateLimitMiddleware implements rate limiting per IP
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(s.limiter.window.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.isAllowed(getClientIP(r)) {
			w.Header().Set("Retry-After", retryAfter)
			s.writeStatus(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the real client IP address
func getClientIP(r *http.Request) string {
	// X-Forwarded-For holds a comma separated chain; the first hop is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// recoveryMiddleware recovers from panics
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				s.logger.Error("Panic recovered in HTTP handler %s %s: %v", r.Method, r.URL.Path, err)
				s.writeStatus(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
