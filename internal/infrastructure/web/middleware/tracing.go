package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"price-chain-service/internal/infrastructure/logging"
	"strings"
	"time"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// responseWriter captures the status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Hijack lets the event stream upgrade through the tracing wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// RequestTracingMiddleware adds request tracing and structured logging.
// A well-formed inbound X-Request-ID is kept so callers can correlate logs.
func RequestTracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !logging.IsValidRequestID(requestID) {
			requestID = logging.GenerateRequestID()
		}

		startTime := time.Now()
		userAgent := r.Header.Get("User-Agent")
		remoteIP := getRemoteIP(r)

		ctx := logging.WithRequestID(r.Context(), requestID)
		ctx = logging.WithStartTime(ctx, startTime)
		ctx = logging.WithUserAgent(ctx, userAgent)
		ctx = logging.WithRemoteIP(ctx, remoteIP)

		w.Header().Set(RequestIDHeader, requestID)

		wrapped := &responseWriter{ResponseWriter: w}

		method := r.Method
		path := r.URL.Path

		logging.Info(ctx, "HTTP request started", logging.Fields{
			logging.FieldHTTPMethod:    method,
			logging.FieldHTTPPath:      path,
			logging.FieldHTTPUserAgent: userAgent,
			logging.FieldHTTPRemoteIP:  remoteIP,
			"content_length":           r.ContentLength,
		})

		r = r.WithContext(ctx)
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode == 0 {
			wrapped.statusCode = http.StatusOK
		}

		duration := time.Since(startTime)
		durationMs := float64(duration.Nanoseconds()) / 1e6

		logging.HTTPRequest(ctx, method, path, wrapped.statusCode, logging.Fields{
			logging.FieldHTTPUserAgent: userAgent,
			logging.FieldHTTPRemoteIP:  remoteIP,
			"response_size":            wrapped.written,
			"request_size":             r.ContentLength,
			"response_time_ms":         durationMs,
		})
	})
}

// getRemoteIP extracts the real client IP from request
func getRemoteIP(r *http.Request) string {
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		if idx := strings.Index(xForwardedFor, ","); idx != -1 {
			return strings.TrimSpace(xForwardedFor[:idx])
		}
		return strings.TrimSpace(xForwardedFor)
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	return r.RemoteAddr
}
