package server

import (
	"context"
	"fmt"
	"net/http"
	"price-chain-service/internal/infrastructure/config"
	"price-chain-service/internal/infrastructure/logging"
)

// Server encapsulates HTTP server configuration
type Server struct {
	httpServer *http.Server
	port       int
}

// NewServer creates a new server instance
func NewServer(handler http.Handler, cfg config.ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		port: cfg.Port,
	}
}

// Start blocks serving HTTP until the server is stopped
func (s *Server) Start() error {
	ctx := context.Background()

	logging.Info(ctx, "HTTP server starting", logging.Fields{
		"port": s.port,
	})

	logging.Info(ctx, "Available endpoints", logging.Fields{
		"endpoints": []string{
			fmt.Sprintf("GET  http://localhost:%d/health", s.port),
			fmt.Sprintf("GET  http://localhost:%d/ready", s.port),
			fmt.Sprintf("POST http://localhost:%d/api/v1/{twap|feed}/update", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/{twap|feed}/record?pair=ETH/USD", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/{twap|feed}/pairs", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/{twap|feed}/events?pair=ETH/USD", s.port),
			fmt.Sprintf("GET  http://localhost:%d/api/v1/{twap|feed}/verify?pair=ETH/USD", s.port),
			fmt.Sprintf("WS   ws://localhost:%d/api/v1/events/ws", s.port),
			fmt.Sprintf("GET  http://localhost:%d/swagger/", s.port),
		},
	})

	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	logging.Info(ctx, "Stopping HTTP server gracefully", logging.Fields{
		"port": s.port,
	})

	return s.httpServer.Shutdown(ctx)
}

// GetPort returns the configured port
func (s *Server) GetPort() int {
	return s.port
}
