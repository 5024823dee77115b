package store

import (
	"context"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/infrastructure/metrics"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryStore keeps one namespace in process memory. It is the default for
// development and tests; state is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	bindings map[entities.PairKey]common.Address
	records  map[entities.PairKey]*entities.PriceRecord
	events   map[entities.PairKey][]*entities.AuditEvent
	order    []entities.PairKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bindings: make(map[entities.PairKey]common.Address),
		records:  make(map[entities.PairKey]*entities.PriceRecord),
		events:   make(map[entities.PairKey][]*entities.AuditEvent),
	}
}

func (m *MemoryStore) Binding(ctx context.Context, pair entities.PairKey) (common.Address, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addr, ok := m.bindings[pair]
	return addr, ok, nil
}

func (m *MemoryStore) Record(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[pair]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

// Commit applies binding, record and event under one lock.
func (m *MemoryStore) Commit(ctx context.Context, c *entities.Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bound common.Address
	var hasBinding bool
	var current *entities.PriceRecord
	if c != nil {
		bound, hasBinding = m.bindings[c.Pair]
		current = m.records[c.Pair]
	}

	if err := checkCommit(c, bound, hasBinding, current); err != nil {
		metrics.RecordStoreOperation("memory", "commit", resultOf(err))
		return err
	}

	if !hasBinding {
		m.bindings[c.Pair] = c.Source
		m.order = append(m.order, c.Pair)
	}
	m.records[c.Pair] = c.Record.Clone()
	m.events[c.Pair] = append(m.events[c.Pair], c.Event.Clone())

	metrics.RecordStoreOperation("memory", "commit", "success")
	return nil
}

func (m *MemoryStore) Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.events[pair]
	out := make([]*entities.AuditEvent, len(stored))
	for i, ev := range stored {
		out[i] = ev.Clone()
	}
	return out, nil
}

// Pairs lists bound pairs in binding order.
func (m *MemoryStore) Pairs(ctx context.Context) ([]entities.PairKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.PairKey, len(m.order))
	copy(out, m.order)
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Size returns the number of bound pairs.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bindings)
}
