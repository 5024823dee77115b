package interfaces

import (
	"context"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// RecordStore holds bindings, records and the audit log of one engine.
// Commit is the only mutation and must apply all of its parts or none.
type RecordStore interface {
	Binding(ctx context.Context, pair entities.PairKey) (common.Address, bool, error)
	Record(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, bool, error)
	Commit(ctx context.Context, commit *entities.Commit) error
	Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error)
	Pairs(ctx context.Context) ([]entities.PairKey, error)
	Ping(ctx context.Context) error
}
