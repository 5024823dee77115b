package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

var (
	fixedRoutes = map[string]bool{
		"/":                 true,
		"/health":           true,
		"/ready":            true,
		"/metrics":          true,
		"/docs":             true,
		"/api/v1/events/ws": true,
	}
	routeVariants = map[string]bool{"twap": true, "feed": true}
	routeActions  = map[string]bool{"update": true, "record": true, "pairs": true, "events": true, "verify": true}
)

// HTTPMetricsMiddleware records count, latency, size and in-flight requests per route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		RecordHTTPRequest(r.Method, normalizePath(r.URL.Path), rec.status, time.Since(start).Seconds(), rec.bytes)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

// Hijack lets websocket upgrades pass through the recorder
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// normalizePath maps a request path to a bounded route label.
func normalizePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if fixedRoutes[path] {
		return path
	}

	switch {
	case strings.HasPrefix(path, "/swagger"):
		return "/swagger"
	case strings.HasPrefix(path, "/api/v1/"):
		variant, action, ok := strings.Cut(strings.TrimPrefix(path, "/api/v1/"), "/")
		if ok && routeVariants[variant] && routeActions[action] {
			return path
		}
		return "/api/v1/*"
	case strings.HasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "/unknown"
	}
}
