package middleware

import (
	"net/http"
	"price-chain-service/internal/infrastructure/logging"
	"strings"
)

// maxBodyBytes is larger than any update request the API accepts
const maxBodyBytes = 64 * 1024

// LoggingMiddleware adds debug and security logging on top of
// RequestTracingMiddleware, which owns the request/response log lines.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), getRemoteIP(r))

		logging.Debug(ctx, "Processing HTTP request", logging.Fields{
			"headers":        extractImportantHeaders(r),
			"query":          r.URL.RawQuery,
			"content_length": r.ContentLength,
		})

		if reason, suspicious := suspiciousReason(r); suspicious {
			logging.Security().SuspiciousActivity(ctx, getRemoteIP(r), reason)
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		next.ServeHTTP(w, r)
	})
}

// extractImportantHeaders picks headers worth logging, never credentials
func extractImportantHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)

	importantHeaders := []string{
		"Content-Type",
		"Accept",
		"Accept-Encoding",
		"X-Forwarded-For",
		"X-Real-IP",
		"Upgrade",
	}

	for _, header := range importantHeaders {
		if value := r.Header.Get(header); value != "" {
			headers[header] = value
		}
	}

	return headers
}

// suspiciousReason reports traversal and injection probes. Pair keys are
// arbitrary text, so only the path and the raw query are inspected.
func suspiciousReason(r *http.Request) (string, bool) {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)

	patterns := []string{
		"../",
		"%2e%2e",
		"<script",
		"union select",
		"drop table",
		"exec(",
		"eval(",
	}

	for _, pattern := range patterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return "pattern:" + pattern, true
		}
	}

	if r.ContentLength > maxBodyBytes {
		return "oversized_body", true
	}

	return "", false
}
