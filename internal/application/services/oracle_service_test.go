package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/hashchain"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/repositories/store"
	"price-chain-service/internal/infrastructure/sources/mock"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startTime = uint64(1700000000)
	day       = uint64(86400)
)

var (
	poolAddress  = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	feedAddress  = common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419")
	otherAddress = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
)

// stepLedger reports a settable timestamp and a height that grows on every read.
type stepLedger struct {
	mu     sync.Mutex
	ts     uint64
	height uint64
}

func (l *stepLedger) Head(ctx context.Context) (entities.LedgerHead, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height++
	return entities.LedgerHead{Timestamp: l.ts, Height: l.height}, nil
}

func (l *stepLedger) advance(seconds uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ts += seconds
}

type recordingSink struct {
	mu     sync.Mutex
	events []*entities.AuditEvent
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, ev *entities.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

type harness struct {
	svc     interfaces.OracleService
	sources *mock.Sources
	store   *store.MemoryStore
	ledger  *stepLedger
	sink    *recordingSink
}

func newHarness(t *testing.T, variant entities.Variant) *harness {
	t.Helper()

	sources := mock.NewSources()
	fetcher, ok := NewFetcher(variant, sources)
	require.True(t, ok)

	h := &harness{
		sources: sources,
		store:   store.NewMemoryStore(),
		ledger:  &stepLedger{ts: startTime, height: 18000000},
		sink:    &recordingSink{},
	}
	h.svc = NewOracleService(fetcher, h.store, h.ledger, h.sink, DefaultUpdateInterval)
	return h
}

func round(answer, id int64, updatedAt uint64) *entities.RoundData {
	return &entities.RoundData{
		RoundID:         big.NewInt(id),
		Answer:          big.NewInt(answer),
		StartedAt:       new(big.Int).SetUint64(updatedAt),
		UpdatedAt:       new(big.Int).SetUint64(updatedAt),
		AnsweredInRound: big.NewInt(id),
	}
}

func TestOracleService_CumulativeTickScenarios(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantCumulativeTick)

	h.sources.SetTicks(poolAddress, big.NewInt(0), big.NewInt(86400))
	first, err := h.svc.Update(ctx, "ETH/USDC", poolAddress)
	require.NoError(t, err)

	record, err := h.svc.Get(ctx, "ETH/USDC")
	require.NoError(t, err)
	assert.Equal(t, "1", record.LastPrice.String())
	assert.NotEqual(t, hashchain.ZeroHash, record.ChainHash)
	assert.Equal(t, startTime, record.LastUpdateTime)
	assert.Equal(t, startTime, record.LastFeedTimestamp, "tick sources are stamped with the update time")
	assert.Equal(t, uint64(1), record.Updates)
	assert.Nil(t, record.Auxiliary)

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, hashchain.ZeroHash, first.PrevChainHash)
	assert.Equal(t, record.ChainHash, first.ChainHash)
	assert.Equal(t, poolAddress, first.Source)

	h.ledger.advance(day + 1)
	h.sources.SetTicks(poolAddress, big.NewInt(0), big.NewInt(86400*3))
	second, err := h.svc.Update(ctx, "ETH/USDC", common.Address{})
	require.NoError(t, err)

	next, err := h.svc.Get(ctx, "ETH/USDC")
	require.NoError(t, err)
	assert.Equal(t, "3", next.LastPrice.String())
	assert.NotEqual(t, record.ChainHash, next.ChainHash)
	assert.Greater(t, next.LastUpdateTime, record.LastUpdateTime)
	assert.Equal(t, record.ChainHash, second.PrevChainHash)
	assert.Equal(t, uint64(2), next.Updates)
}

func TestOracleService_DiscreteFeedScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)

	h.sources.SetRound(feedAddress, round(2000, 1, startTime-30))
	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)

	record, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, "2000", record.LastPrice.String())
	require.NotNil(t, record.Auxiliary)
	assert.Equal(t, "1", record.Auxiliary.String())
	assert.Equal(t, startTime-30, record.LastFeedTimestamp)
	assert.Equal(t, startTime, record.LastUpdateTime)

	_, err = h.svc.Update(ctx, "ETH/USD", feedAddress)
	assert.ErrorIs(t, err, entities.ErrUpdateTooSoon)

	_, err = h.svc.Update(ctx, "ETH/USD", otherAddress)
	assert.ErrorIs(t, err, entities.ErrSourceMismatch)

	h.ledger.advance(day)
	h.sources.SetRound(feedAddress, round(0, 2, startTime+day))
	_, err = h.svc.Update(ctx, "ETH/USD", feedAddress)
	assert.ErrorIs(t, err, entities.ErrInvalidPriceData)

	after, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, record, after, "rejected updates leave the record unchanged")
}

func TestOracleService_BindingIsPermanent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))
	h.sources.SetRound(otherAddress, round(9999, 1, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		h.ledger.advance(day)
		_, err = h.svc.Update(ctx, "ETH/USD", otherAddress)
		assert.ErrorIs(t, err, entities.ErrSourceMismatch)

		h.sources.SetRound(feedAddress, round(2000+int64(i), int64(i+2), startTime+uint64(i+1)*day))
		_, err = h.svc.Update(ctx, "ETH/USD", common.Address{})
		require.NoError(t, err)
	}

	source, err := h.svc.Source(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, feedAddress, source)
	assert.Zero(t, h.sources.Calls(otherAddress))
}

func TestOracleService_FirstUpdateRequiresSource(t *testing.T) {
	h := newHarness(t, entities.VariantDiscreteFeed)

	_, err := h.svc.Update(context.Background(), "ETH/USD", common.Address{})
	assert.ErrorIs(t, err, entities.ErrMissingSourceAddress)

	pairs, err := h.svc.Pairs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestOracleService_FailedFirstUpdateDoesNotBind(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(0, 1, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.ErrorIs(t, err, entities.ErrInvalidPriceData)

	_, err = h.svc.Source(ctx, "ETH/USD")
	assert.ErrorIs(t, err, entities.ErrUntrackedPair)

	h.sources.SetRound(otherAddress, round(1500, 1, startTime))
	_, err = h.svc.Update(ctx, "ETH/USD", otherAddress)
	require.NoError(t, err, "a pair that never committed can still be bound to another source")
}

func TestOracleService_IntervalBoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)

	h.ledger.advance(day - 1)
	_, err = h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.ErrorIs(t, err, entities.ErrUpdateTooSoon)

	var oe *entities.OracleError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, startTime+day, oe.RetryAt)

	h.ledger.advance(1)
	h.sources.SetRound(feedAddress, round(2100, 2, startTime+day))
	_, err = h.svc.Update(ctx, "ETH/USD", feedAddress)
	assert.NoError(t, err)
}

func TestOracleService_TooSoonDoesNotCallSource(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)
	before, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)

	_, err = h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.ErrorIs(t, err, entities.ErrUpdateTooSoon)

	after, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, h.sources.Calls(feedAddress))
	assert.Len(t, h.sink.events, 1)
}

func TestOracleService_SourceFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"rpc outage", errors.New("connection refused"), entities.ErrSourceUnavailable},
		{"malformed answer", fmt.Errorf("%w: short return data", interfaces.ErrMalformedResponse), entities.ErrInvalidPriceData},
		{"classified by source", entities.NewOracleError(entities.KindInvalidPriceData, "ETH/USD", "bad", nil), entities.ErrInvalidPriceData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, entities.VariantCumulativeTick)
			h.sources.SetError(poolAddress, tt.err)

			_, err := h.svc.Update(ctx, "ETH/USDC", poolAddress)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)

			_, err = h.svc.Get(ctx, "ETH/USDC")
			assert.ErrorIs(t, err, entities.ErrUntrackedPair)
			assert.Empty(t, h.sink.events)
		})
	}
}

func TestOracleService_NegativeAverageTruncatesTowardZero(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantCumulativeTick)
	h.sources.SetTicks(poolAddress, big.NewInt(0), big.NewInt(-86401))

	_, err := h.svc.Update(ctx, "ETH/USDC", poolAddress)
	require.NoError(t, err)

	record, err := h.svc.Get(ctx, "ETH/USDC")
	require.NoError(t, err)
	assert.Equal(t, "-1", record.LastPrice.String())
}

func TestOracleService_RejectsReentrantUpdate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	var nestedErr error
	var once sync.Once
	h.sources.OnCall(func(ctx context.Context, address common.Address) {
		once.Do(func() {
			_, nestedErr = h.svc.Update(ctx, "ETH/USD", feedAddress)
		})
	})

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, entities.ErrUpdateInProgress)

	record, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.Updates)
}

func TestOracleService_PairsAreIndependent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))
	h.sources.SetRound(otherAddress, round(60000, 4, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)
	_, err = h.svc.Update(ctx, "BTC/USD", otherAddress)
	require.NoError(t, err, "the interval is tracked per pair")

	pairs, err := h.svc.Pairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PairKey{"ETH/USD", "BTC/USD"}, pairs)

	eth, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	btc, err := h.svc.Get(ctx, "BTC/USD")
	require.NoError(t, err)
	assert.NotEqual(t, eth.ChainHash, btc.ChainHash)
}

func TestOracleService_PairKeysAreNotNormalized(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)

	for _, pair := range []entities.PairKey{"eth/usd", " ETH/USD", "ETH/USD "} {
		_, err := h.svc.Get(ctx, pair)
		assert.ErrorIs(t, err, entities.ErrUntrackedPair, "pair %q", pair)
	}
}

func TestOracleService_InvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)

	_, err := h.svc.Update(ctx, "", feedAddress)
	assert.ErrorIs(t, err, entities.ErrInvalidIdentifier)
	_, err = h.svc.Get(ctx, "")
	assert.ErrorIs(t, err, entities.ErrInvalidIdentifier)
	_, err = h.svc.Events(ctx, "")
	assert.ErrorIs(t, err, entities.ErrInvalidIdentifier)
}

func TestOracleService_ReadsOfUntrackedPair(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)

	_, err := h.svc.Get(ctx, "ETH/USD")
	assert.ErrorIs(t, err, entities.ErrUntrackedPair)
	_, err = h.svc.Source(ctx, "ETH/USD")
	assert.ErrorIs(t, err, entities.ErrUntrackedPair)
	_, err = h.svc.Events(ctx, "ETH/USD")
	assert.ErrorIs(t, err, entities.ErrUntrackedPair)
	_, err = h.svc.Verify(ctx, "ETH/USD")
	assert.ErrorIs(t, err, entities.ErrUntrackedPair)
}

func TestOracleService_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)

	record, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	record.LastPrice.SetInt64(1)

	again, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, "2000", again.LastPrice.String())
}

func TestOracleService_PublishesCommittedEvents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sink.err = errors.New("subscriber gone")
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	event, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err, "a failing sink does not undo a committed update")

	require.Len(t, h.sink.events, 1)
	assert.Equal(t, event.ChainHash, h.sink.events[0].ChainHash)
	assert.Equal(t, entities.VariantDiscreteFeed, h.sink.events[0].Variant)

	stored, err := h.svc.Events(ctx, "ETH/USD")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, event, stored[0])
}

func TestOracleService_NilSink(t *testing.T) {
	sources := mock.NewSources()
	sources.SetRound(feedAddress, round(2000, 1, startTime))
	svc := NewOracleService(NewRoundFetcher(sources), store.NewMemoryStore(), &stepLedger{ts: startTime}, nil, DefaultUpdateInterval)

	_, err := svc.Update(context.Background(), "ETH/USD", feedAddress)
	assert.NoError(t, err)
}

func updateDaily(t *testing.T, h *harness, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		h.sources.SetRound(feedAddress, round(2000+int64(i)*10, int64(i+1), h.ledger.ts-5))
		_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
		require.NoError(t, err)
		h.ledger.advance(day)
	}
}

func TestOracleService_VerifyReplaysAuditLog(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	updateDaily(t, h, 3)

	report, err := h.svc.Verify(ctx, "ETH/USD")
	require.NoError(t, err)

	record, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)

	assert.True(t, report.Valid, report.Reason)
	assert.Equal(t, 3, report.Events)
	assert.Equal(t, record.ChainHash, report.StoredHash)
	assert.Equal(t, record.ChainHash, report.ComputedHash)
	assert.Nil(t, report.FirstMismatch)
}

// tamperedStore rewrites one audit event on the way out.
type tamperedStore struct {
	interfaces.RecordStore
	sequence uint64
}

func (s *tamperedStore) Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error) {
	events, err := s.RecordStore.Events(ctx, pair)
	for _, ev := range events {
		if ev.Sequence == s.sequence {
			ev.Price = new(big.Int).Add(ev.Price, big.NewInt(1))
		}
	}
	return events, err
}

// racingStore runs commit once, right after the chosen read returns.
type racingStore struct {
	interfaces.RecordStore
	after  string
	armed  atomic.Bool
	commit func()
}

func (s *racingStore) fire(read string) {
	if read == s.after && s.armed.CompareAndSwap(true, false) {
		s.commit()
	}
}

func (s *racingStore) Record(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, bool, error) {
	rec, ok, err := s.RecordStore.Record(ctx, pair)
	s.fire("record")
	return rec, ok, err
}

func (s *racingStore) Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error) {
	events, err := s.RecordStore.Events(ctx, pair)
	s.fire("events")
	return events, err
}

func TestOracleService_VerifyDuringConcurrentUpdate(t *testing.T) {
	for _, after := range []string{"record", "events"} {
		t.Run("commit after "+after+" read", func(t *testing.T) {
			ctx := context.Background()
			sources := mock.NewSources()
			ledger := &stepLedger{ts: startTime, height: 100}
			racing := &racingStore{RecordStore: store.NewMemoryStore(), after: after}
			svc := NewOracleService(NewRoundFetcher(sources), racing, ledger, nil, DefaultUpdateInterval)

			sources.SetRound(feedAddress, round(2000, 1, startTime))
			_, err := svc.Update(ctx, "ETH/USD", feedAddress)
			require.NoError(t, err)

			var raceErr error
			racing.commit = func() {
				ledger.advance(day)
				sources.SetRound(feedAddress, round(2100, 2, startTime+day))
				_, raceErr = svc.Update(ctx, "ETH/USD", feedAddress)
			}
			racing.armed.Store(true)

			report, err := svc.Verify(ctx, "ETH/USD")
			require.NoError(t, err)
			require.NoError(t, raceErr)
			assert.False(t, racing.armed.Load(), "concurrent commit did not run")

			assert.True(t, report.Valid, report.Reason)
			assert.Equal(t, report.StoredHash, report.ComputedHash)

			again, err := svc.Verify(ctx, "ETH/USD")
			require.NoError(t, err)
			assert.True(t, again.Valid, again.Reason)
			assert.Equal(t, 2, again.Events)
		})
	}
}

func TestOracleService_VerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	updateDaily(t, h, 3)

	fetcher, _ := NewFetcher(entities.VariantDiscreteFeed, h.sources)
	tampered := NewOracleService(fetcher, &tamperedStore{RecordStore: h.store, sequence: 2}, h.ledger, nil, DefaultUpdateInterval)

	report, err := tampered.Verify(ctx, "ETH/USD")
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.NotNil(t, report.FirstMismatch)
	assert.Equal(t, uint64(2), *report.FirstMismatch)
	assert.NotEmpty(t, report.Reason)
}

func TestOracleService_Ping(t *testing.T) {
	h := newHarness(t, entities.VariantCumulativeTick)
	assert.NoError(t, h.svc.Ping(context.Background()))
	assert.Equal(t, entities.VariantCumulativeTick, h.svc.Variant())
}

func TestOracleService_ConcurrentUpdatesCommitOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, entities.VariantDiscreteFeed)
	h.sources.SetRound(feedAddress, round(2000, 1, startTime))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Update(ctx, "ETH/USD", feedAddress)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		kind := entities.KindOf(err)
		assert.Contains(t, []entities.ErrorKind{entities.KindUpdateInProgress, entities.KindUpdateTooSoon}, kind)
	}
	assert.Equal(t, 1, accepted)

	record, err := h.svc.Get(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.Updates)
}

func TestOracleService_UsesConfiguredInterval(t *testing.T) {
	ctx := context.Background()
	sources := mock.NewSources()
	sources.SetRound(feedAddress, round(2000, 1, startTime))
	ledger := &stepLedger{ts: startTime}
	svc := NewOracleService(NewRoundFetcher(sources), store.NewMemoryStore(), ledger, nil, time.Hour)

	_, err := svc.Update(ctx, "ETH/USD", feedAddress)
	require.NoError(t, err)

	ledger.advance(3600)
	_, err = svc.Update(ctx, "ETH/USD", feedAddress)
	assert.NoError(t, err)
}
