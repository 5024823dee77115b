package interfaces

import (
	"context"
	"errors"
	"math/big"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMalformedResponse is wrapped by sources whose answer could not be
// decoded. Fetchers report it as invalid price data rather than an outage.
var ErrMalformedResponse = errors.New("malformed source response")

// TickSource answers cumulative tick queries. The result has one entry per
// element of secondsAgos, each a signed 56-bit cumulative tick.
type TickSource interface {
	Observe(ctx context.Context, secondsAgos []uint32) ([]*big.Int, error)
}

// RoundFeed answers latest-round queries of a round-based price feed.
type RoundFeed interface {
	LatestRoundData(ctx context.Context) (*entities.RoundData, error)
}

// SourceResolver hands out a source client for a bound source address.
type SourceResolver interface {
	TickSource(address common.Address) (TickSource, error)
	RoundFeed(address common.Address) (RoundFeed, error)
}

// PriceFetcher is the capability an oracle engine is parameterized by: given the
// bound source and the gate interval (in seconds) it returns a validated observation.
type PriceFetcher interface {
	Variant() entities.Variant
	Fetch(ctx context.Context, pair entities.PairKey, source common.Address, interval uint64) (*entities.Observation, error)
}
