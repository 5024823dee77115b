package events

import (
	"context"
	"errors"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
)

// MultiSink fans an event out to several sinks. Every sink is attempted; the
// errors are joined.
type MultiSink []interfaces.EventSink

func (m MultiSink) Publish(ctx context.Context, ev *entities.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes each audit event as a structured log line, giving a
// line-oriented audit trail next to the store's.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, ev *entities.AuditEvent) error {
	fields := logging.Fields{
		logging.FieldVariant:   string(ev.Variant),
		logging.FieldPair:      string(ev.Pair),
		logging.FieldSource:    ev.Source.Hex(),
		logging.FieldSequence:  ev.Sequence,
		logging.FieldPrice:     ev.Price.String(),
		"timestamp_observed":   ev.Timestamp,
		"block_height":         ev.BlockHeight,
		"prev_chain_hash":      ev.PrevChainHash.Hex(),
		logging.FieldChainHash: ev.ChainHash.Hex(),
	}
	if ev.Auxiliary != nil {
		fields["auxiliary"] = ev.Auxiliary.String()
	}
	logging.Info(ctx, "Audit event", fields)
	return nil
}
