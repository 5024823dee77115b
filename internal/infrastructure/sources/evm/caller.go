package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractCaller executes read-only contract calls. *ethclient.Client
// satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// call packs a method call, executes it against the latest block and unpacks
// the outputs. Decoding failures wrap interfaces.ErrMalformedResponse.
func call(ctx context.Context, caller ContractCaller, kind string, contract abi.ABI, address common.Address, method string, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, ErrClientNotAttached
	}

	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	logging.Source().CallStarted(ctx, kind, address.Hex(), method)
	start := time.Now()

	result, err := caller.CallContract(ctx, ethereum.CallMsg{
		To:   &address,
		Data: data,
	}, nil)
	duration := time.Since(start)
	metrics.RecordSourceCall(kind, method, err, duration.Seconds())
	if err != nil {
		logging.Source().CallFailed(ctx, kind, address.Hex(), method, err, duration)
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	logging.Source().CallCompleted(ctx, kind, address.Hex(), method, duration)

	out, err := contract.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unpack %s result: %v", interfaces.ErrMalformedResponse, method, err)
	}
	return out, nil
}

// FallbackCaller sends calls to a primary RPC endpoint and retries them once
// on a secondary endpoint when the primary fails or exceeds its timeout.
type FallbackCaller struct {
	primary        ContractCaller
	secondary      ContractCaller
	primaryTimeout time.Duration
}

// NewFallbackCaller creates a caller. A nil secondary disables the fallback.
func NewFallbackCaller(primary, secondary ContractCaller, primaryTimeout time.Duration) *FallbackCaller {
	return &FallbackCaller{
		primary:        primary,
		secondary:      secondary,
		primaryTimeout: primaryTimeout,
	}
}

func (f *FallbackCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	primaryCtx := ctx
	if f.primaryTimeout > 0 {
		var cancel context.CancelFunc
		primaryCtx, cancel = context.WithTimeout(ctx, f.primaryTimeout)
		defer cancel()
	}

	result, err := f.primary.CallContract(primaryCtx, msg, blockNumber)
	if err == nil || f.secondary == nil {
		return result, err
	}
	// The caller gave up; the secondary would see the same dead context.
	if ctx.Err() != nil {
		return nil, err
	}

	reason := determineFallbackReason(err)
	logging.Info(ctx, "Primary RPC failed, falling back to secondary endpoint", logging.Fields{
		"primary_error":   err.Error(),
		"fallback_reason": reason,
	})

	result, secondaryErr := f.secondary.CallContract(ctx, msg, blockNumber)
	metrics.RecordRPCFallback(reason, secondaryErr)
	if secondaryErr != nil {
		logging.Error(ctx, "Both RPC endpoints failed", logging.Fields{
			"primary_error":   err.Error(),
			"secondary_error": secondaryErr.Error(),
		})
		return nil, fmt.Errorf("both RPC endpoints failed - primary: %v, secondary: %w", err, secondaryErr)
	}
	return result, nil
}

func determineFallbackReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return "connection_error"
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return "rate_limited"
	default:
		return "unknown_error"
	}
}
