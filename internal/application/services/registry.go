package services

import (
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// ResolveOrBind applies the first-write-wins binding rule.
//
// With no existing binding the candidate must be non-zero and becomes the
// binding; created reports that the caller must persist it. With an existing
// binding a non-zero candidate must match it, and the bound address is
// returned either way.
func ResolveOrBind(pair entities.PairKey, bound common.Address, hasBinding bool, candidate common.Address) (resolved common.Address, created bool, err error) {
	zero := common.Address{}

	if !hasBinding {
		if candidate == zero {
			return zero, false, entities.NewOracleError(entities.KindMissingSourceAddress, pair,
				"a source address is required to start tracking a new pair", nil)
		}
		return candidate, true, nil
	}

	if candidate != zero && candidate != bound {
		return zero, false, entities.NewOracleError(entities.KindSourceMismatch, pair,
			"pair is bound to "+bound.Hex()+", not "+candidate.Hex(), nil)
	}
	return bound, false, nil
}
