package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/pkg/utils"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
)

// OracleHandler serves the per-variant oracle API
type OracleHandler struct {
	services    map[entities.Variant]interfaces.OracleService
	mapper      *dto.RecordMapper
	callTimeout time.Duration
	now         func() time.Time
}

// NewOracleHandler creates a handler over the enabled engines. callTimeout
// bounds each update, including every source call it makes; zero disables it.
func NewOracleHandler(services map[entities.Variant]interfaces.OracleService, mapper *dto.RecordMapper, callTimeout time.Duration) *OracleHandler {
	return &OracleHandler{
		services:    services,
		mapper:      mapper,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// RegisterRoutes mounts the oracle endpoints on router
func (h *OracleHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1/{variant}").Subrouter()
	api.HandleFunc("/update", h.Update).Methods(http.MethodPost)
	api.HandleFunc("/record", h.GetRecord).Methods(http.MethodGet)
	api.HandleFunc("/pairs", h.GetPairs).Methods(http.MethodGet)
	api.HandleFunc("/events", h.GetEvents).Methods(http.MethodGet)
	api.HandleFunc("/verify", h.Verify).Methods(http.MethodGet)
}

// Update godoc
// @Summary Update a pair's price
// @Description Reads the pair's bound source, records the new price and extends its hash chain. The first update of a pair must name a source, which is then bound permanently.
// @Tags oracle
// @Accept json
// @Produce json
// @Param variant path string true "Engine variant" Enums(twap, feed)
// @Param request body dto.UpdateRequest true "Pair and optional source"
// @Success 200 {object} dto.AuditEventResponse "Accepted update"
// @Failure 400 {object} dto.ErrorResponse "Invalid pair or missing source"
// @Failure 409 {object} dto.ErrorResponse "Source mismatch or update in progress"
// @Failure 422 {object} dto.ErrorResponse "Invalid price data"
// @Failure 429 {object} dto.ErrorResponse "Update too soon"
// @Failure 502 {object} dto.ErrorResponse "Source unavailable"
// @Router /api/v1/{variant}/update [post]
func (h *OracleHandler) Update(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var req dto.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r.Context(), http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object: "+err.Error())
		return
	}

	pair, err := req.PairKey()
	if err != nil {
		h.writeErrorResponse(w, r.Context(), http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}
	source, err := req.SourceAddress()
	if err != nil {
		h.writeErrorResponse(w, r.Context(), http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return
	}

	ctx := r.Context()
	if h.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.callTimeout)
		defer cancel()
	}

	event, err := svc.Update(ctx, pair, source)
	if err != nil {
		h.writeOracleError(w, r.Context(), err)
		return
	}

	h.writeJSONResponse(w, r.Context(), http.StatusOK, h.mapper.ToAuditEventResponse(event))
}

// GetRecord godoc
// @Summary Current record of a pair
// @Tags oracle
// @Produce json
// @Param variant path string true "Engine variant" Enums(twap, feed)
// @Param pair query string false "Pair key as text"
// @Param pair_hex query string false "Pair key as hex bytes"
// @Success 200 {object} dto.PriceRecordResponse
// @Failure 404 {object} dto.ErrorResponse "Pair is not tracked"
// @Router /api/v1/{variant}/record [get]
func (h *OracleHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	svc, pair, ok := h.servicePair(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	source, err := svc.Source(ctx, pair)
	if err != nil {
		h.writeOracleError(w, ctx, err)
		return
	}
	record, err := svc.Get(ctx, pair)
	if err != nil {
		h.writeOracleError(w, ctx, err)
		return
	}

	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToRecordResponse(svc.Variant(), pair, source, record))
}

// GetPairs godoc
// @Summary Tracked pairs of an engine
// @Tags oracle
// @Produce json
// @Param variant path string true "Engine variant" Enums(twap, feed)
// @Success 200 {object} dto.PairsResponse
// @Router /api/v1/{variant}/pairs [get]
func (h *OracleHandler) GetPairs(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	pairs, err := svc.Pairs(ctx)
	if err != nil {
		h.writeOracleError(w, ctx, err)
		return
	}

	sources := make(map[entities.PairKey]common.Address, len(pairs))
	for _, pair := range pairs {
		source, err := svc.Source(ctx, pair)
		if err != nil {
			h.writeOracleError(w, ctx, err)
			return
		}
		sources[pair] = source
	}

	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToPairsResponse(svc.Variant(), pairs, sources))
}

// GetEvents godoc
// @Summary Audit log of a pair
// @Description Audit events in sequence order. Replaying them from the zero hash reproduces the stored chain hash.
// @Tags audit
// @Produce json
// @Param variant path string true "Engine variant" Enums(twap, feed)
// @Param pair query string false "Pair key as text"
// @Param pair_hex query string false "Pair key as hex bytes"
// @Success 200 {object} dto.EventsResponse
// @Failure 404 {object} dto.ErrorResponse "Pair is not tracked"
// @Router /api/v1/{variant}/events [get]
func (h *OracleHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	svc, pair, ok := h.servicePair(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	events, err := svc.Events(ctx, pair)
	if err != nil {
		h.writeOracleError(w, ctx, err)
		return
	}

	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToEventsResponse(svc.Variant(), pair, events))
}

// Verify godoc
// @Summary Verify a pair's hash chain
// @Description Replays the audit log and compares the result with the stored chain hash. A broken chain is reported with valid=false, not as an error status.
// @Tags audit
// @Produce json
// @Param variant path string true "Engine variant" Enums(twap, feed)
// @Param pair query string false "Pair key as text"
// @Param pair_hex query string false "Pair key as hex bytes"
// @Success 200 {object} dto.VerificationResponse
// @Failure 404 {object} dto.ErrorResponse "Pair is not tracked"
// @Router /api/v1/{variant}/verify [get]
func (h *OracleHandler) Verify(w http.ResponseWriter, r *http.Request) {
	svc, pair, ok := h.servicePair(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	report, err := svc.Verify(ctx, pair)
	if err != nil {
		h.writeOracleError(w, ctx, err)
		return
	}

	h.writeJSONResponse(w, ctx, http.StatusOK, h.mapper.ToVerificationResponse(report))
}

// service resolves the {variant} path segment to an enabled engine
func (h *OracleHandler) service(w http.ResponseWriter, r *http.Request) (interfaces.OracleService, bool) {
	variant, err := dto.ParseVariant(mux.Vars(r)["variant"])
	if err != nil {
		h.writeErrorResponse(w, r.Context(), http.StatusNotFound, "UNKNOWN_VARIANT", err.Error())
		return nil, false
	}
	svc, ok := h.services[variant]
	if !ok {
		h.writeErrorResponse(w, r.Context(), http.StatusNotFound, "UNKNOWN_VARIANT", "variant "+string(variant)+" is not enabled")
		return nil, false
	}
	return svc, true
}

func (h *OracleHandler) servicePair(w http.ResponseWriter, r *http.Request) (interfaces.OracleService, entities.PairKey, bool) {
	svc, ok := h.service(w, r)
	if !ok {
		return nil, "", false
	}
	pair, err := dto.PairFromQuery(r.URL.Query())
	if err != nil {
		h.writeErrorResponse(w, r.Context(), http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
		return nil, "", false
	}
	return svc, pair, true
}

// writeOracleError maps an oracle error to its status. Errors without a kind
// are internal and their detail stays in the log.
func (h *OracleHandler) writeOracleError(w http.ResponseWriter, ctx context.Context, err error) {
	var oe *entities.OracleError
	if !errors.As(err, &oe) {
		logging.ErrorWithError(ctx, "Oracle request failed", err, nil)
		h.writeErrorResponse(w, ctx, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	status := StatusForKind(oe.Kind)
	resp := dto.NewErrorResponseWithCode(string(oe.Kind), oe.Error(), strconv.Itoa(status))

	if oe.Kind == entities.KindUpdateTooSoon && oe.RetryAt > 0 {
		wait := utils.SecondsUntil(oe.RetryAt, uint64(h.now().Unix()))
		if wait == 0 {
			wait = 1
		}
		resp.RetryAfter = wait
		w.Header().Set("Retry-After", strconv.FormatUint(wait, 10))
	}

	h.writeJSONResponse(w, ctx, status, resp)
}

func (h *OracleHandler) writeErrorResponse(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	h.writeJSONResponse(w, ctx, status, dto.NewErrorResponseWithCode(code, message, strconv.Itoa(status)))
}

func (h *OracleHandler) writeJSONResponse(w http.ResponseWriter, ctx context.Context, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.ErrorWithError(ctx, "Failed to encode JSON response", err, logging.Fields{
			logging.FieldHTTPStatusCode: statusCode,
		})
	}
}
