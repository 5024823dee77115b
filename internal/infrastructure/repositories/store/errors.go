package store

import (
	"errors"
	"fmt"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// ErrIncompleteCommit is returned for a commit without a record or event.
var ErrIncompleteCommit = errors.New("commit requires a record and an event")

// checkCommit re-validates a commit against the state the store holds at
// commit time. The oracle already checked the same rules against what it
// read; this catches writers that raced in between.
func checkCommit(c *entities.Commit, bound common.Address, hasBinding bool, current *entities.PriceRecord) error {
	if c == nil || c.Record == nil || c.Event == nil {
		return ErrIncompleteCommit
	}

	if hasBinding {
		if bound != c.Source {
			return entities.NewOracleError(entities.KindSourceMismatch, c.Pair,
				"pair was bound to "+bound.Hex()+" by a concurrent writer", nil)
		}
	} else if !c.NewBinding {
		return entities.NewOracleError(entities.KindUntrackedPair, c.Pair, "commit for a pair without binding", nil)
	}

	var currentHash common.Hash
	if current != nil {
		currentHash = current.ChainHash
	}
	if currentHash != c.PrevHash {
		return entities.NewOracleError(entities.KindUpdateInProgress, c.Pair,
			"record changed since it was read", nil)
	}
	if current != nil && c.Record.LastUpdateTime < current.LastUpdateTime {
		return entities.NewOracleError(entities.KindUpdateInProgress, c.Pair,
			fmt.Sprintf("update time %d is older than stored %d", c.Record.LastUpdateTime, current.LastUpdateTime), nil)
	}
	if c.Record.ChainHash == c.PrevHash {
		return fmt.Errorf("chain hash must change on every update")
	}
	return nil
}

// resultOf maps an error to a store metrics label
func resultOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case entities.KindOf(err) != "":
		return "conflict"
	default:
		return "error"
	}
}
