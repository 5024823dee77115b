package services

import (
	"price-chain-service/internal/domain/entities"
	"sync"
)

// PairGuard is a per-pair exclusive section. A second acquisition for a pair
// that is already held fails instead of waiting, which rejects re-entrant
// updates triggered from inside a source call.
type PairGuard struct {
	mu   sync.Mutex
	busy map[entities.PairKey]struct{}
}

func NewPairGuard() *PairGuard {
	return &PairGuard{busy: make(map[entities.PairKey]struct{})}
}

// TryAcquire returns a release func and true, or nil and false if the pair is held.
func (g *PairGuard) TryAcquire(pair entities.PairKey) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.busy[pair]; held {
		return nil, false
	}
	g.busy[pair] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, pair)
			g.mu.Unlock()
		})
	}, true
}

// Held reports whether pair is currently inside an update.
func (g *PairGuard) Held(pair entities.PairKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.busy[pair]
	return held
}
