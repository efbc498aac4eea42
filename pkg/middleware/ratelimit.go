package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/ratelimit"
)

// RateLimit wraps a handler with a per-IP limiter. Requests over the
// limit get a 429 with the standard response envelope.
func RateLimit(limiter *ratelimit.IPRateLimiter, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.Allow(ip) {
				log.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "Too many requests, please try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's address. X-Forwarded-For may carry a
// comma-separated hop list; only the first entry names the client, and
// it is used only when it parses as an IP address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
