package services

import (
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/hashchain"
)

var (
	maxInt56  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 55), big.NewInt(1))
	minInt56  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 55))
	maxUint80 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 80), big.NewInt(1))
)

// DeriveFromTicks turns the cumulative ticks observed at [period, 0] seconds ago
// into a time-weighted price: (c1 - c0) / period.
//
// The division truncates toward zero, so a negative delta that is not a
// multiple of period rounds up rather than down.
func DeriveFromTicks(pair entities.PairKey, ticks []*big.Int, period uint32) (*entities.Observation, error) {
	if len(ticks) != 2 {
		return nil, invalidPriceData(pair, fmt.Sprintf("expected 2 cumulative ticks, got %d", len(ticks)))
	}
	if period == 0 {
		return nil, invalidPriceData(pair, "observation period must be positive")
	}
	for i, tick := range ticks {
		if tick == nil || tick.Cmp(maxInt56) > 0 || tick.Cmp(minInt56) < 0 {
			return nil, invalidPriceData(pair, fmt.Sprintf("cumulative tick %d is not a signed 56-bit value", i))
		}
	}

	delta := new(big.Int).Sub(ticks[1], ticks[0])
	price := new(big.Int).Quo(delta, new(big.Int).SetUint64(uint64(period)))

	return &entities.Observation{Price: price}, nil
}

// DeriveFromRound takes the answer of a round-based feed as the price.
// The answer must be positive; the round id becomes the auxiliary value and
// the feed's updatedAt the observation timestamp.
func DeriveFromRound(pair entities.PairKey, round *entities.RoundData) (*entities.Observation, error) {
	if round == nil || round.Answer == nil {
		return nil, invalidPriceData(pair, "feed returned no answer")
	}
	if round.Answer.Sign() <= 0 {
		return nil, invalidPriceData(pair, "feed answer must be positive, got "+round.Answer.String())
	}
	if !hashchain.FitsInt256(round.Answer) {
		return nil, invalidPriceData(pair, "feed answer does not fit in int256")
	}
	if round.RoundID == nil || round.RoundID.Sign() < 0 || round.RoundID.Cmp(maxUint80) > 0 {
		return nil, invalidPriceData(pair, "round id is not an unsigned 80-bit value")
	}
	if round.UpdatedAt == nil || !round.UpdatedAt.IsUint64() {
		return nil, invalidPriceData(pair, "feed updatedAt is not a valid timestamp")
	}

	return &entities.Observation{
		Price:           new(big.Int).Set(round.Answer),
		Auxiliary:       new(big.Int).Set(round.RoundID),
		FeedTimestamp:   round.UpdatedAt.Uint64(),
		NativeTimestamp: true,
	}, nil
}

func invalidPriceData(pair entities.PairKey, message string) error {
	return entities.NewOracleError(entities.KindInvalidPriceData, pair, message, nil)
}
