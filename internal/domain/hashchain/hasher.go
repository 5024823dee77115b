package hashchain

import (
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash is the chain hash of a pair that has never been updated.
var ZeroHash common.Hash

// Next folds one observation into the chain.
func Next(variant entities.Variant, prev common.Hash, price *big.Int, timestamp uint64, auxiliary *big.Int, height uint64) (common.Hash, error) {
	preimage, err := Encode(variant, prev, price, timestamp, auxiliary, height)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(preimage), nil
}

// ReplayError reports the first event whose recorded hashes disagree with the recomputed chain.
type ReplayError struct {
	Index    int
	Sequence uint64
	Expected common.Hash
	Got      common.Hash
	Reason   string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("audit replay failed at event %d (sequence %d): %s: expected %s, got %s",
		e.Index, e.Sequence, e.Reason, e.Expected.Hex(), e.Got.Hex())
}

// Replay recomputes a pair's chain from the zero hash over events in order and
// returns the final hash. Events must be consecutive, starting at sequence 1.
func Replay(variant entities.Variant, events []*entities.AuditEvent) (common.Hash, error) {
	current := ZeroHash
	for i, ev := range events {
		if ev.Sequence != uint64(i+1) {
			return current, &ReplayError{Index: i, Sequence: ev.Sequence, Expected: current, Got: ev.PrevChainHash,
				Reason: fmt.Sprintf("sequence gap, expected %d", i+1)}
		}
		if ev.PrevChainHash != current {
			return current, &ReplayError{Index: i, Sequence: ev.Sequence, Expected: current, Got: ev.PrevChainHash,
				Reason: "previous hash does not link"}
		}
		next, err := Next(variant, current, ev.Price, ev.Timestamp, ev.Auxiliary, ev.BlockHeight)
		if err != nil {
			return current, fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		if next != ev.ChainHash {
			return current, &ReplayError{Index: i, Sequence: ev.Sequence, Expected: next, Got: ev.ChainHash,
				Reason: "recorded hash does not match recomputed hash"}
		}
		current = next
	}
	return current, nil
}
