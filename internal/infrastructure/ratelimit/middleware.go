package ratelimit

import (
	"encoding/json"
	"net/http"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/infrastructure/config"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"strconv"
	"strings"
)

// RateLimitMiddleware provides per-client rate limiting for HTTP requests
type RateLimitMiddleware struct {
	limiters  *ClientLimiters
	skipPaths map[string]bool
	enabled   bool
}

// NewRateLimitMiddleware creates the middleware from configuration. A
// disabled config yields a pass-through middleware.
func NewRateLimitMiddleware(rateLimitConfig config.RateLimitConfig) *RateLimitMiddleware {
	// Probes and scrapes are never limited
	skipPaths := map[string]bool{
		"/health":  true,
		"/ready":   true,
		"/metrics": true,
	}

	var limiters *ClientLimiters
	if rateLimitConfig.Enabled {
		limiters = NewClientLimiters(rateLimitConfig.RequestsPerSecond, rateLimitConfig.Burst, rateLimitConfig.IdleTTL)
	}

	return &RateLimitMiddleware{
		limiters:  limiters,
		skipPaths: skipPaths,
		enabled:   rateLimitConfig.Enabled,
	}
}

// Limiters exposes the client buckets so the caller can schedule cleanup.
// It is nil when rate limiting is disabled.
func (rlm *RateLimitMiddleware) Limiters() *ClientLimiters {
	return rlm.limiters
}

// Handler returns the HTTP middleware handler
func (rlm *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rlm.enabled || rlm.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientID := getClientID(r)

		allowed, remaining := rlm.limiters.Allow(clientID)
		metrics.RecordRateLimitResult(allowed)

		if !allowed {
			logging.Security().RateLimitExceeded(ctx, clientID, r.URL.Path)
			logging.Debug(ctx, "Rate limit exceeded", logging.Fields{
				"client_id":  clientID,
				"path":       r.URL.Path,
				"method":     r.Method,
				"user_agent": r.Header.Get("User-Agent"),
			})

			rlm.writeRateLimitError(w)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// getClientID extracts the key used for a client's bucket
func getClientID(r *http.Request) string {
	// First hop of X-Forwarded-For when behind a proxy
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if first := strings.TrimSpace(parts[0]); first != "" {
			return first
		}
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	remoteAddr := r.RemoteAddr
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}

	return remoteAddr
}

func (rlm *RateLimitMiddleware) writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)

	resp := dto.NewErrorResponseWithCode("RATE_LIMIT_EXCEEDED",
		"Rate limit exceeded. Please slow down your requests.", strconv.Itoa(http.StatusTooManyRequests))
	resp.RetryAfter = 1

	json.NewEncoder(w).Encode(resp)
}

// Stats returns rate limiting statistics
func (rlm *RateLimitMiddleware) Stats() map[string]interface{} {
	if rlm.limiters == nil {
		return map[string]interface{}{"enabled": false}
	}
	stats := rlm.limiters.Stats()
	stats["enabled"] = rlm.enabled
	return stats
}
