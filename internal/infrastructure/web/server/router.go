package server

import (
	"net/http"
	_ "price-chain-service/docs"
	"price-chain-service/internal/infrastructure/config"
	"price-chain-service/internal/infrastructure/metrics"
	"price-chain-service/internal/infrastructure/ratelimit"
	"price-chain-service/internal/infrastructure/web/handlers"
	"price-chain-service/internal/infrastructure/web/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps are the pieces the HTTP surface is assembled from
type RouterDeps struct {
	Oracle    *handlers.OracleHandler
	Health    *handlers.HealthHandler
	RateLimit *ratelimit.RateLimitMiddleware
	Auth      config.AuthConfig
	// EventStream serves /api/v1/events/ws when set.
	EventStream http.Handler
}

// NewRouter builds the routes and wraps them in the middleware chain:
// tracing, logging, auth, rate limit, metrics.
func NewRouter(deps RouterDeps) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", deps.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", deps.Health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	router.Handle("/docs", http.RedirectHandler("/swagger/", http.StatusMovedPermanently))

	// Registered before the {variant} routes so "events" is not read as a variant
	if deps.EventStream != nil {
		router.Handle("/api/v1/events/ws", deps.EventStream).Methods(http.MethodGet)
	}
	deps.Oracle.RegisterRoutes(router)

	var h http.Handler = router
	h = metrics.HTTPMetricsMiddleware(h)
	if deps.RateLimit != nil {
		h = deps.RateLimit.Handler(h)
	}
	h = middleware.NewAuthMiddleware(deps.Auth).Handler(h)
	h = middleware.LoggingMiddleware(h)
	h = middleware.RequestTracingMiddleware(h)

	return h
}
