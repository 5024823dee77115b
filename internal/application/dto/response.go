package dto

import (
	"time"
)

// PriceRecordResponse is the current state of a pair
// @Description Current record of a tracked pair
type PriceRecordResponse struct {
	Variant           string `json:"variant" example:"feed"`
	Pair              string `json:"pair" example:"ETH/USD"`
	PairHex           string `json:"pair_hex" example:"0x4554482f555344"`
	Source            string `json:"source" example:"0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"`
	ChainHash         string `json:"chain_hash" example:"0x3f1c..."`
	LastPrice         string `json:"last_price" example:"320012345678"`                       // Raw integer price
	DisplayPrice      string `json:"display_price" example:"3200.12345678"`                   // Price scaled by the variant's display decimals
	Auxiliary         string `json:"auxiliary,omitempty" example:"18446744073709562301"`      // Round id for feeds
	LastUpdateTime    uint64 `json:"last_update_time" example:"1700000000"`                   // Unix seconds
	LastUpdateAt      string `json:"last_update_at,omitempty" example:"2023-11-14T22:13:20Z"` // RFC3339 rendering of last_update_time
	LastFeedTimestamp uint64 `json:"last_feed_timestamp" example:"1699999990"`
	LastBlockHeight   uint64 `json:"last_block_height" example:"18573000"`
	Updates           uint64 `json:"updates" example:"3"`
}

// AuditEventResponse is one accepted update
// @Description Audit event emitted for an accepted update
type AuditEventResponse struct {
	Variant       string `json:"variant" example:"twap"`
	Pair          string `json:"pair" example:"ETH/USD"`
	PairHex       string `json:"pair_hex" example:"0x4554482f555344"`
	Source        string `json:"source" example:"0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"`
	Sequence      uint64 `json:"sequence" example:"1"`
	Price         string `json:"price" example:"-201234"`
	DisplayPrice  string `json:"display_price" example:"-201234"`
	Auxiliary     string `json:"auxiliary,omitempty"`
	Timestamp     uint64 `json:"timestamp" example:"1700000000"` // Feed timestamp, or update time for sources without one
	ObservedAt    string `json:"observed_at" example:"2023-11-14T22:13:20Z"`
	UpdateTime    uint64 `json:"update_time" example:"1700000000"`
	BlockHeight   uint64 `json:"block_height" example:"18573000"`
	PrevChainHash string `json:"prev_chain_hash"`
	ChainHash     string `json:"chain_hash"`
}

// EventsResponse lists a pair's audit log
type EventsResponse struct {
	Variant string               `json:"variant"`
	Pair    string               `json:"pair"`
	Count   int                  `json:"count"`
	Events  []AuditEventResponse `json:"events"`
}

// PairsResponse lists the tracked pairs of one variant
type PairsResponse struct {
	Variant string      `json:"variant" example:"feed"`
	Count   int         `json:"count" example:"2"`
	Pairs   []PairEntry `json:"pairs"`
}

// PairEntry is a tracked pair and its bound source
type PairEntry struct {
	Pair    string `json:"pair" example:"ETH/USD"`
	PairHex string `json:"pair_hex" example:"0x4554482f555344"`
	Source  string `json:"source,omitempty"`
}

// VerificationResponse is the outcome of replaying a pair's audit log
// @Description Result of recomputing the chain hash from the audit log
type VerificationResponse struct {
	Variant       string  `json:"variant"`
	Pair          string  `json:"pair"`
	Valid         bool    `json:"valid" example:"true"`
	Events        int     `json:"events" example:"3"`
	StoredHash    string  `json:"stored_hash"`
	ComputedHash  string  `json:"computed_hash"`
	FirstMismatch *uint64 `json:"first_mismatch,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// ErrorResponse represents a standard error response for endpoints
// @Description Standard error response for endpoints
type ErrorResponse struct {
	Error      string `json:"error" example:"UPDATE_TOO_SOON" validate:"required"`        // Error kind
	Message    string `json:"message,omitempty" example:"next update allowed at 1700086400"` // Detailed error description
	Code       string `json:"code,omitempty" example:"429"`                                // HTTP status code
	RetryAfter uint64 `json:"retry_after,omitempty" example:"3600"`                        // Seconds until the update gate opens
}

// HealthResponse represents the health check response with service status
// @Description Health check response with service status
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy" validate:"required" enums:"healthy,degraded,unhealthy"` // Overall service status
	Timestamp time.Time         `json:"timestamp" example:"2023-12-01T10:30:00Z" validate:"required"`                    // When the health check was performed
	Services  map[string]string `json:"services,omitempty" example:"twap:healthy,feed:healthy"`                          // Individual service statuses
}

// NewErrorResponseWithCode creates an error response with code
func NewErrorResponseWithCode(error string, message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	}
}

// NewHealthResponse creates a health check response
func NewHealthResponse(status string, services map[string]string) *HealthResponse {
	return &HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
}
