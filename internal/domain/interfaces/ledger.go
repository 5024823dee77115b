package interfaces

import (
	"context"
	"price-chain-service/internal/domain/entities"
)

// Ledger supplies the timestamp and height an update is recorded at.
// Timestamps never go backwards and heights strictly increase.
type Ledger interface {
	Head(ctx context.Context) (entities.LedgerHead, error)
}
