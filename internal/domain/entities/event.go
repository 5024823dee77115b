package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AuditEvent is emitted once per accepted update. Replaying a pair's events in
// sequence order through the chain hasher reproduces its stored chain hash.
type AuditEvent struct {
	Variant       Variant        `json:"variant"`
	Pair          PairKey        `json:"pair"`
	Source        common.Address `json:"source"`
	Sequence      uint64         `json:"sequence"`
	Price         *big.Int       `json:"price"`
	Auxiliary     *big.Int       `json:"auxiliary,omitempty"`
	Timestamp     uint64         `json:"timestamp"`
	UpdateTime    uint64         `json:"update_time"`
	BlockHeight   uint64         `json:"block_height"`
	PrevChainHash common.Hash    `json:"prev_chain_hash"`
	ChainHash     common.Hash    `json:"chain_hash"`
}

// Clone returns a deep copy of the event.
func (e *AuditEvent) Clone() *AuditEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.Price = cloneBig(e.Price)
	c.Auxiliary = cloneBig(e.Auxiliary)
	return &c
}

// Commit is everything a store must apply in one atomic write.
type Commit struct {
	Pair   PairKey
	Source common.Address
	// NewBinding is set when this commit also creates the pair's source binding.
	NewBinding bool
	// PrevHash is the chain hash the update was computed against; the store
	// rejects the commit if the stored record has moved on.
	PrevHash common.Hash
	Record   *PriceRecord
	Event    *AuditEvent
}

// VerificationReport is the result of replaying a pair's audit log.
type VerificationReport struct {
	Variant       Variant     `json:"variant"`
	Pair          PairKey     `json:"pair"`
	Events        int         `json:"events"`
	StoredHash    common.Hash `json:"stored_hash"`
	ComputedHash  common.Hash `json:"computed_hash"`
	Valid         bool        `json:"valid"`
	FirstMismatch *uint64     `json:"first_mismatch,omitempty"`
	Reason        string      `json:"reason,omitempty"`
}
