package interfaces

import (
	"context"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// OracleService is the public surface of one price engine.
type OracleService interface {
	Variant() entities.Variant

	// Update binds the pair on first use, refreshes its price and extends its hash chain.
	// A zero sourceHint means "use the bound source".
	Update(ctx context.Context, pair entities.PairKey, sourceHint common.Address) (*entities.AuditEvent, error)

	// Get returns a snapshot of the current record of a bound pair.
	Get(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, error)

	// Source returns the address a pair is bound to.
	Source(ctx context.Context, pair entities.PairKey) (common.Address, error)

	// Pairs lists the bound pairs.
	Pairs(ctx context.Context) ([]entities.PairKey, error)

	// Events returns a pair's audit log in sequence order.
	Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error)

	// Verify replays a pair's audit log and compares the result with the stored chain hash.
	Verify(ctx context.Context, pair entities.PairKey) (*entities.VerificationReport, error)

	// Ping checks the backing store.
	Ping(ctx context.Context) error
}
