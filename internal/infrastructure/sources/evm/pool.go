package evm

import (
	"context"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

const kindUniswapV3 = "uniswap_v3"

// PoolObserver reads cumulative ticks from a Uniswap V3 style pool.
type PoolObserver struct {
	caller  ContractCaller
	address common.Address
}

func NewPoolObserver(caller ContractCaller, address common.Address) *PoolObserver {
	return &PoolObserver{caller: caller, address: address}
}

// Observe calls observe(secondsAgos) and returns the tick cumulatives.
func (p *PoolObserver) Observe(ctx context.Context, secondsAgos []uint32) ([]*big.Int, error) {
	out, err := call(ctx, p.caller, kindUniswapV3, poolABI, p.address, "observe", secondsAgos)
	if err != nil {
		return nil, err
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("%w: observe returned %d values", interfaces.ErrMalformedResponse, len(out))
	}

	ticks, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected tickCumulatives type %T", interfaces.ErrMalformedResponse, out[0])
	}
	return ticks, nil
}
