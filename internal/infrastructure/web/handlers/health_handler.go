package handlers

import (
	"encoding/json"
	"net/http"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
)

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	services map[entities.Variant]interfaces.OracleService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(services map[entities.Variant]interfaces.OracleService) *HealthHandler {
	return &HealthHandler{
		services: services,
	}
}

// Health godoc
// @Summary Basic health check
// @Description Verifies that the service is running. Does not touch the store or sources.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is running"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"service": "running",
	}

	h.writeJSONResponse(w, http.StatusOK, dto.NewHealthResponse("healthy", services))
}

// Ready godoc
// @Summary Readiness check
// @Description Pings the record store of every enabled engine.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service is ready"
// @Failure 503 {object} dto.HealthResponse "A store is unreachable"
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	services := make(map[string]string, len(h.services))

	ready := true
	for variant, svc := range h.services {
		if err := svc.Ping(ctx); err != nil {
			services[string(variant)] = "error: " + err.Error()
			ready = false
			continue
		}
		services[string(variant)] = "ready"
	}

	if !ready {
		h.writeJSONResponse(w, http.StatusServiceUnavailable, dto.NewHealthResponse("unhealthy", services))
		return
	}
	h.writeJSONResponse(w, http.StatusOK, dto.NewHealthResponse("ready", services))
}

func (h *HealthHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		_, _ = w.Write([]byte(`{"error":"ENCODING_ERROR","message":"Failed to encode response"}`))
	}
}
