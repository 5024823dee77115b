package handlers

import (
	"net/http"
	"price-chain-service/internal/domain/entities"
)

// statusByKind is the single mapping from oracle error kinds to HTTP statuses
var statusByKind = map[entities.ErrorKind]int{
	entities.KindInvalidIdentifier:    http.StatusBadRequest,
	entities.KindMissingSourceAddress: http.StatusBadRequest,
	entities.KindSourceMismatch:       http.StatusConflict,
	entities.KindUpdateTooSoon:        http.StatusTooManyRequests,
	entities.KindUntrackedPair:        http.StatusNotFound,
	entities.KindInvalidPriceData:     http.StatusUnprocessableEntity,
	entities.KindUpdateInProgress:     http.StatusConflict,
	entities.KindSourceUnavailable:    http.StatusBadGateway,
}

// StatusForKind returns the HTTP status for an error kind, 500 for unknown kinds
func StatusForKind(kind entities.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
