package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/core/types"
)

// HeaderReader is satisfied by *ethclient.Client and *evm.Client.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// EVMLedger reads time and height from the latest block of a chain.
type EVMLedger struct {
	reader HeaderReader
}

func NewEVMLedger(reader HeaderReader) *EVMLedger {
	return &EVMLedger{reader: reader}
}

func (l *EVMLedger) Head(ctx context.Context) (entities.LedgerHead, error) {
	header, err := l.reader.HeaderByNumber(ctx, nil)
	if err != nil {
		return entities.LedgerHead{}, fmt.Errorf("failed to read latest block header: %w", err)
	}
	if header == nil || header.Number == nil {
		return entities.LedgerHead{}, errors.New("latest block header has no number")
	}
	if !header.Number.IsUint64() {
		return entities.LedgerHead{}, fmt.Errorf("block number %s does not fit uint64", header.Number)
	}
	return entities.LedgerHead{Timestamp: header.Time, Height: header.Number.Uint64()}, nil
}
