package evm

import (
	"context"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

const kindChainlink = "chainlink"

// AggregatorFeed reads rounds from a Chainlink style aggregator.
type AggregatorFeed struct {
	caller  ContractCaller
	address common.Address
}

func NewAggregatorFeed(caller ContractCaller, address common.Address) *AggregatorFeed {
	return &AggregatorFeed{caller: caller, address: address}
}

func (a *AggregatorFeed) LatestRoundData(ctx context.Context) (*entities.RoundData, error) {
	out, err := call(ctx, a.caller, kindChainlink, aggregatorABI, a.address, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("%w: latestRoundData returned %d values", interfaces.ErrMalformedResponse, len(out))
	}

	values := make([]*big.Int, len(out))
	for i, v := range out {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected latestRoundData value %d of type %T", interfaces.ErrMalformedResponse, i, v)
		}
		values[i] = n
	}

	return &entities.RoundData{
		RoundID:         values[0],
		Answer:          values[1],
		StartedAt:       values[2],
		UpdatedAt:       values[3],
		AnsweredInRound: values[4],
	}, nil
}
