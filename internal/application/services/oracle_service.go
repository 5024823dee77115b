package services

import (
	"context"
	"errors"
	"fmt"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/hashchain"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// oracleService is the generic update engine. The variant-specific part lives
// entirely in the fetcher.
type oracleService struct {
	variant entities.Variant
	fetcher interfaces.PriceFetcher
	store   interfaces.RecordStore
	ledger  interfaces.Ledger
	sink    interfaces.EventSink
	gate    UpdateGate
	guard   *PairGuard
}

// NewOracleService creates an engine for the fetcher's variant.
// sink may be nil when nobody consumes audit events outside the store.
func NewOracleService(fetcher interfaces.PriceFetcher, store interfaces.RecordStore, ledger interfaces.Ledger, sink interfaces.EventSink, interval time.Duration) interfaces.OracleService {
	return &oracleService{
		variant: fetcher.Variant(),
		fetcher: fetcher,
		store:   store,
		ledger:  ledger,
		sink:    sink,
		gate:    NewUpdateGate(interval),
		guard:   NewPairGuard(),
	}
}

func (s *oracleService) Variant() entities.Variant {
	return s.variant
}

// Update runs one full update. On any error nothing has been written.
func (s *oracleService) Update(ctx context.Context, pair entities.PairKey, sourceHint common.Address) (*entities.AuditEvent, error) {
	start := time.Now()

	event, err := s.update(ctx, pair, sourceHint)

	result := "ok"
	if err != nil {
		kind := entities.KindOf(err)
		result = string(kind)
		if kind == "" {
			result = "error"
		}
		logging.Oracle().UpdateRejected(ctx, string(s.variant), string(pair), string(kind), err)
	}
	metrics.RecordUpdate(string(s.variant), result, time.Since(start).Seconds())

	return event, err
}

func (s *oracleService) update(ctx context.Context, pair entities.PairKey, sourceHint common.Address) (*entities.AuditEvent, error) {
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	release, ok := s.guard.TryAcquire(pair)
	if !ok {
		return nil, entities.NewOracleError(entities.KindUpdateInProgress, pair, "another update for this pair is in progress", nil)
	}
	defer release()

	bound, hasBinding, err := s.store.Binding(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to load binding: %w", err)
	}

	source, newBinding, err := ResolveOrBind(pair, bound, hasBinding, sourceHint)
	if err != nil {
		return nil, err
	}

	record, found, err := s.store.Record(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	if !found {
		record = entities.NewEmptyRecord()
	}

	head, err := s.ledger.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger head: %w", err)
	}

	if err := s.gate.Check(pair, record, head.Timestamp); err != nil {
		return nil, err
	}

	logging.Debug(ctx, "Fetching observation", logging.Fields{
		logging.FieldVariant: string(s.variant),
		logging.FieldPair:    string(pair),
		logging.FieldSource:  source.Hex(),
	})

	obs, err := s.fetcher.Fetch(ctx, pair, source, s.gate.Interval)
	if err != nil {
		return nil, err
	}

	observedAt := head.Timestamp
	if obs.NativeTimestamp {
		observedAt = obs.FeedTimestamp
	}

	chainHash, err := hashchain.Next(s.variant, record.ChainHash, obs.Price, observedAt, obs.Auxiliary, head.Height)
	if err != nil {
		return nil, entities.NewOracleError(entities.KindInvalidPriceData, pair, "observation cannot be encoded", err)
	}

	next := &entities.PriceRecord{
		ChainHash:         chainHash,
		LastUpdateTime:    head.Timestamp,
		LastPrice:         obs.Price,
		Auxiliary:         obs.Auxiliary,
		LastFeedTimestamp: observedAt,
		LastBlockHeight:   head.Height,
		Updates:           record.Updates + 1,
	}
	event := &entities.AuditEvent{
		Variant:       s.variant,
		Pair:          pair,
		Source:        source,
		Sequence:      next.Updates,
		Price:         obs.Price,
		Auxiliary:     obs.Auxiliary,
		Timestamp:     observedAt,
		UpdateTime:    head.Timestamp,
		BlockHeight:   head.Height,
		PrevChainHash: record.ChainHash,
		ChainHash:     chainHash,
	}

	commit := &entities.Commit{
		Pair:       pair,
		Source:     source,
		NewBinding: newBinding,
		PrevHash:   record.ChainHash,
		Record:     next.Clone(),
		Event:      event.Clone(),
	}
	if err := s.store.Commit(ctx, commit); err != nil {
		var oe *entities.OracleError
		if errors.As(err, &oe) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to commit record: %w", err)
	}

	if newBinding {
		metrics.RecordPairBound(string(s.variant))
		logging.Oracle().PairBound(ctx, string(s.variant), string(pair), source.Hex())
	}
	metrics.UpdatePairState(string(s.variant), string(pair), next.LastPrice, next.LastUpdateTime, next.Updates)
	logging.Oracle().UpdateAccepted(ctx, string(s.variant), string(pair), next.LastPrice.String(), next.Updates, chainHash.Hex())

	if s.sink != nil {
		if err := s.sink.Publish(ctx, event.Clone()); err != nil {
			logging.WarnWithError(ctx, "Audit event publish failed after commit", err, logging.Fields{
				logging.FieldVariant:  string(s.variant),
				logging.FieldPair:     string(pair),
				logging.FieldSequence: event.Sequence,
			})
		}
	}

	return event, nil
}

// Get returns a snapshot of a bound pair's record.
func (s *oracleService) Get(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, error) {
	if _, err := s.requireBinding(ctx, pair); err != nil {
		return nil, err
	}

	record, found, err := s.store.Record(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	if !found {
		return entities.NewEmptyRecord(), nil
	}
	return record.Clone(), nil
}

func (s *oracleService) Source(ctx context.Context, pair entities.PairKey) (common.Address, error) {
	return s.requireBinding(ctx, pair)
}

func (s *oracleService) Pairs(ctx context.Context) ([]entities.PairKey, error) {
	pairs, err := s.store.Pairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}
	return pairs, nil
}

func (s *oracleService) Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error) {
	if _, err := s.requireBinding(ctx, pair); err != nil {
		return nil, err
	}

	events, err := s.store.Events(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit events: %w", err)
	}
	return events, nil
}

// Verify replays the stored audit log from the zero hash and compares the
// result with the record's chain hash.
//
// The record is read before the log. The log is append-only, so events past
// record.Updates belong to commits that landed between the two reads and are
// left out of the replay.
func (s *oracleService) Verify(ctx context.Context, pair entities.PairKey) (*entities.VerificationReport, error) {
	record, err := s.Get(ctx, pair)
	if err != nil {
		return nil, err
	}
	events, err := s.Events(ctx, pair)
	if err != nil {
		return nil, err
	}
	if uint64(len(events)) > record.Updates {
		events = events[:record.Updates]
	}

	report := &entities.VerificationReport{
		Variant:    s.variant,
		Pair:       pair,
		Events:     len(events),
		StoredHash: record.ChainHash,
	}

	computed, err := hashchain.Replay(s.variant, events)
	report.ComputedHash = computed

	var replayErr *hashchain.ReplayError
	switch {
	case errors.As(err, &replayErr):
		seq := replayErr.Sequence
		report.FirstMismatch = &seq
		report.Reason = replayErr.Reason
	case err != nil:
		report.Reason = err.Error()
	case computed != record.ChainHash:
		report.Reason = "replayed hash does not match stored chain hash"
	case uint64(len(events)) != record.Updates:
		report.Reason = fmt.Sprintf("record counts %d updates but the audit log holds %d events", record.Updates, len(events))
	default:
		report.Valid = true
	}

	metrics.RecordVerification(string(s.variant), report.Valid)
	if !report.Valid {
		logging.Oracle().VerificationFailed(ctx, string(s.variant), string(pair), report.Reason)
	}

	return report, nil
}

func (s *oracleService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *oracleService) requireBinding(ctx context.Context, pair entities.PairKey) (common.Address, error) {
	if err := pair.Validate(); err != nil {
		return common.Address{}, err
	}

	bound, ok, err := s.store.Binding(ctx, pair)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to load binding: %w", err)
	}
	if !ok {
		return common.Address{}, entities.NewOracleError(entities.KindUntrackedPair, pair, "pair has no source binding", nil)
	}
	return bound, nil
}
