package services

import (
	"context"
	"errors"
	"math"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

// TickFetcher reads a cumulative-tick source over the gate interval.
type TickFetcher struct {
	resolver interfaces.SourceResolver
}

func NewTickFetcher(resolver interfaces.SourceResolver) *TickFetcher {
	return &TickFetcher{resolver: resolver}
}

func (f *TickFetcher) Variant() entities.Variant {
	return entities.VariantCumulativeTick
}

// Fetch observes the ticks at [interval, 0] seconds ago and derives the average.
func (f *TickFetcher) Fetch(ctx context.Context, pair entities.PairKey, source common.Address, interval uint64) (*entities.Observation, error) {
	if interval == 0 || interval > math.MaxUint32 {
		return nil, invalidPriceData(pair, "observation window must be between 1 and 2^32-1 seconds")
	}
	period := uint32(interval)

	src, err := f.resolver.TickSource(source)
	if err != nil {
		return nil, sourceUnavailable(pair, "no tick source for "+source.Hex(), err)
	}

	ticks, err := src.Observe(ctx, []uint32{period, 0})
	if err != nil {
		return nil, sourceUnavailable(pair, "observe failed", err)
	}

	return DeriveFromTicks(pair, ticks, period)
}

// RoundFetcher reads the latest round of a discrete feed.
type RoundFetcher struct {
	resolver interfaces.SourceResolver
}

func NewRoundFetcher(resolver interfaces.SourceResolver) *RoundFetcher {
	return &RoundFetcher{resolver: resolver}
}

func (f *RoundFetcher) Variant() entities.Variant {
	return entities.VariantDiscreteFeed
}

func (f *RoundFetcher) Fetch(ctx context.Context, pair entities.PairKey, source common.Address, _ uint64) (*entities.Observation, error) {
	feed, err := f.resolver.RoundFeed(source)
	if err != nil {
		return nil, sourceUnavailable(pair, "no round feed for "+source.Hex(), err)
	}

	round, err := feed.LatestRoundData(ctx)
	if err != nil {
		return nil, sourceUnavailable(pair, "latestRoundData failed", err)
	}

	return DeriveFromRound(pair, round)
}

// sourceUnavailable classifies a source failure. Undecodable answers are
// invalid price data; anything else not already an OracleError is an outage.
func sourceUnavailable(pair entities.PairKey, message string, err error) error {
	var oe *entities.OracleError
	if errors.As(err, &oe) {
		return err
	}
	if errors.Is(err, interfaces.ErrMalformedResponse) {
		return entities.NewOracleError(entities.KindInvalidPriceData, pair, message, err)
	}
	return entities.NewOracleError(entities.KindSourceUnavailable, pair, message, err)
}

// NewFetcher returns the fetcher for a variant.
func NewFetcher(variant entities.Variant, resolver interfaces.SourceResolver) (interfaces.PriceFetcher, bool) {
	switch variant {
	case entities.VariantCumulativeTick:
		return NewTickFetcher(resolver), true
	case entities.VariantDiscreteFeed:
		return NewRoundFetcher(resolver), true
	default:
		return nil, false
	}
}
