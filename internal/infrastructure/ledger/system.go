package ledger

import (
	"context"
	"price-chain-service/internal/domain/entities"
	"sync"
	"time"
)

// SystemLedger derives the ledger head from the local clock. Timestamps never
// go backwards and every Head call gets a strictly larger height, so each
// accepted update is stamped with a unique height.
type SystemLedger struct {
	mu     sync.Mutex
	now    func() time.Time
	last   uint64
	height uint64
}

// NewSystemLedger creates a ledger. A zero initial height is seeded from the
// clock in milliseconds so heights keep increasing across restarts.
func NewSystemLedger(initialHeight uint64) *SystemLedger {
	return newSystemLedger(time.Now, initialHeight)
}

func newSystemLedger(now func() time.Time, initialHeight uint64) *SystemLedger {
	if initialHeight == 0 {
		initialHeight = uint64(now().UnixMilli())
	}
	return &SystemLedger{now: now, height: initialHeight}
}

func (l *SystemLedger) Head(ctx context.Context) (entities.LedgerHead, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := uint64(l.now().Unix())
	if ts < l.last {
		ts = l.last
	}
	l.last = ts
	l.height++

	return entities.LedgerHead{Timestamp: ts, Height: l.height}, nil
}
