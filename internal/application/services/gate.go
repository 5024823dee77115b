package services

import (
	"fmt"
	"price-chain-service/internal/domain/entities"
	"time"
)

// DefaultUpdateInterval is the minimum time between two accepted updates of a pair.
const DefaultUpdateInterval = 24 * time.Hour

// UpdateGate enforces the minimum interval between updates of the same pair.
type UpdateGate struct {
	// Interval in seconds.
	Interval uint64
}

// NewUpdateGate converts a duration into a gate, rounding down to whole seconds.
func NewUpdateGate(interval time.Duration) UpdateGate {
	return UpdateGate{Interval: uint64(interval / time.Second)}
}

// Check passes for a never-updated record and otherwise requires
// now >= lastUpdateTime + interval. The boundary is inclusive.
func (g UpdateGate) Check(pair entities.PairKey, record *entities.PriceRecord, now uint64) error {
	if record.IsEmpty() {
		return nil
	}

	next := record.LastUpdateTime + g.Interval
	if now >= next {
		return nil
	}

	err := entities.NewOracleError(entities.KindUpdateTooSoon, pair,
		fmt.Sprintf("next update allowed at %d, now %d", next, now), nil)
	err.RetryAt = next
	return err
}
