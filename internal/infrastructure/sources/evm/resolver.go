package evm

import (
	"price-chain-service/internal/domain/interfaces"

	"github.com/ethereum/go-ethereum/common"
)

// Resolver hands out contract bindings over a shared caller.
type Resolver struct {
	caller ContractCaller
}

func NewResolver(caller ContractCaller) *Resolver {
	return &Resolver{caller: caller}
}

func (r *Resolver) TickSource(address common.Address) (interfaces.TickSource, error) {
	if address == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	return NewPoolObserver(r.caller, address), nil
}

func (r *Resolver) RoundFeed(address common.Address) (interfaces.RoundFeed, error) {
	if address == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	return NewAggregatorFeed(r.caller, address), nil
}
