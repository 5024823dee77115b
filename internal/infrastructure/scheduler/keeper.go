package scheduler

import (
	"context"
	"errors"
	"fmt"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Summary counts the outcomes of one keeper run.
type Summary struct {
	Updated int
	Skipped int
	Failed  int
}

// Keeper periodically submits updates for a fixed set of targets. A pair
// whose window has not elapsed yet is skipped, not counted as a failure.
type Keeper struct {
	services    map[entities.Variant]interfaces.OracleService
	targets     []Target
	schedule    string
	callTimeout time.Duration

	cron    *cron.Cron
	running sync.Mutex
}

func NewKeeper(services map[entities.Variant]interfaces.OracleService, targets []Target, schedule string, callTimeout time.Duration) (*Keeper, error) {
	for i, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
		v, _ := entities.ParseVariant(t.Variant)
		if _, ok := services[v]; !ok {
			return nil, fmt.Errorf("target %d: no oracle service for variant %s", i, v)
		}
	}

	k := &Keeper{
		services:    services,
		targets:     targets,
		schedule:    schedule,
		callTimeout: callTimeout,
		cron:        cron.New(),
	}
	if _, err := k.cron.AddFunc(schedule, k.tick); err != nil {
		return nil, fmt.Errorf("invalid keeper schedule %q: %w", schedule, err)
	}
	return k, nil
}

// Start begins running on the schedule.
func (k *Keeper) Start() {
	logging.Info(context.Background(), "Keeper started", logging.Fields{
		"schedule": k.schedule,
		"targets":  len(k.targets),
	})
	k.cron.Start()
}

// Stop halts the schedule and waits for a running pass until ctx is done.
func (k *Keeper) Stop(ctx context.Context) error {
	done := k.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick skips a pass when the previous one is still running.
func (k *Keeper) tick() {
	if !k.running.TryLock() {
		logging.Warn(context.Background(), "Keeper pass still running, skipping tick", nil)
		return
	}
	defer k.running.Unlock()

	ctx := logging.WithRequestID(context.Background(), logging.GenerateRequestID())
	k.RunOnce(ctx)
}

// RunOnce submits one update per target, sequentially.
func (k *Keeper) RunOnce(ctx context.Context) Summary {
	var summary Summary

	for _, t := range k.targets {
		if ctx.Err() != nil {
			break
		}
		variant, _ := entities.ParseVariant(t.Variant)
		outcome := k.runTarget(ctx, variant, t)
		metrics.RecordKeeperRun(string(variant), outcome)

		switch outcome {
		case "updated":
			summary.Updated++
		case "skipped":
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	logging.Info(ctx, "Keeper pass finished", logging.Fields{
		"updated": summary.Updated,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})
	return summary
}

func (k *Keeper) runTarget(ctx context.Context, variant entities.Variant, t Target) string {
	callCtx := ctx
	if k.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, k.callTimeout)
		defer cancel()
	}

	_, err := k.services[variant].Update(callCtx, entities.PairKey(t.Pair), t.sourceAddress())
	switch {
	case err == nil:
		return "updated"
	case errors.Is(err, entities.ErrUpdateTooSoon), errors.Is(err, entities.ErrUpdateInProgress):
		return "skipped"
	default:
		logging.WarnWithError(ctx, "Keeper update failed", err, logging.Fields{
			logging.FieldVariant: string(variant),
			logging.FieldPair:    t.Pair,
		})
		return "failed"
	}
}
