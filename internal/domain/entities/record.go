package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PriceRecord is the current state of a tracked pair.
// A record with LastUpdateTime == 0 has never been updated.
type PriceRecord struct {
	ChainHash         common.Hash `json:"chain_hash"`
	LastUpdateTime    uint64      `json:"last_update_time"`
	LastPrice         *big.Int    `json:"last_price"`
	Auxiliary         *big.Int    `json:"auxiliary,omitempty"`
	LastFeedTimestamp uint64      `json:"last_feed_timestamp"`
	LastBlockHeight   uint64      `json:"last_block_height"`
	Updates           uint64      `json:"updates"`
}

// NewEmptyRecord returns the zero-valued record used before a pair's first update.
func NewEmptyRecord() *PriceRecord {
	return &PriceRecord{LastPrice: new(big.Int)}
}

// IsEmpty reports whether the record has never accepted an update.
func (r *PriceRecord) IsEmpty() bool {
	return r == nil || r.LastUpdateTime == 0
}

// Clone returns a deep copy so callers never share big.Int values with the store.
func (r *PriceRecord) Clone() *PriceRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.LastPrice = cloneBig(r.LastPrice)
	c.Auxiliary = cloneBig(r.Auxiliary)
	return &c
}

// Observation is a validated price reading produced by a fetcher.
type Observation struct {
	Price     *big.Int
	Auxiliary *big.Int
	// FeedTimestamp is only meaningful when NativeTimestamp is set; sources
	// without their own clock are stamped with the update time instead.
	FeedTimestamp   uint64
	NativeTimestamp bool
}

// RoundData is the raw answer of a round-based feed.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

// LedgerHead is the host environment's view of time and height at the moment of an update.
type LedgerHead struct {
	Timestamp uint64
	Height    uint64
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
