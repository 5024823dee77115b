package evm

import (
	"context"
	"fmt"
	"math/big"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Config describes the RPC endpoints sources and the chain ledger talk to.
type Config struct {
	RPCURL         string
	FallbackRPCURL string
	PrimaryTimeout time.Duration
	DialAttempts   uint
	DialDelay      time.Duration
	DialMaxDelay   time.Duration
}

// Client bundles the dialed endpoints.
type Client struct {
	primary   *ethclient.Client
	secondary *ethclient.Client
	caller    ContractCaller
}

// Dial connects to the primary endpoint and, when configured, the fallback.
// Each endpoint is checked with eth_chainId and retried with backoff.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, ErrRPCURLRequired
	}

	primary, err := dialWithRetry(ctx, cfg, cfg.RPCURL)
	if err != nil {
		return nil, err
	}

	c := &Client{primary: primary, caller: primary}
	if cfg.FallbackRPCURL != "" {
		secondary, err := dialWithRetry(ctx, cfg, cfg.FallbackRPCURL)
		if err != nil {
			logging.WarnWithError(ctx, "Fallback RPC endpoint unavailable, continuing without it", err, nil)
		} else {
			c.secondary = secondary
			c.caller = NewFallbackCaller(primary, secondary, cfg.PrimaryTimeout)
		}
	}
	return c, nil
}

func dialWithRetry(ctx context.Context, cfg Config, url string) (*ethclient.Client, error) {
	attempts := cfg.DialAttempts
	if attempts == 0 {
		attempts = 3
	}
	delay := cfg.DialDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := cfg.DialMaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}

	var client *ethclient.Client
	err := retry.Do(
		func() error {
			c, err := ethclient.DialContext(ctx, url)
			if err != nil {
				return err
			}
			probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			chainID, err := c.ChainID(probeCtx)
			if err != nil {
				c.Close()
				return err
			}
			client = c
			logging.Info(ctx, "Connected to RPC endpoint", logging.Fields{
				"chain_id": chainID.String(),
			})
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordConnectRetry("rpc", n+1)
			logging.Warn(ctx, "RPC dial failed, retrying", logging.Fields{
				"attempt": n + 1,
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return client, nil
}

// Caller returns the contract caller, with fallback when configured.
func (c *Client) Caller() ContractCaller {
	return c.caller
}

// HeaderByNumber reads a header from the primary endpoint; nil means latest.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.primary.HeaderByNumber(ctx, number)
}

func (c *Client) Close() {
	c.primary.Close()
	if c.secondary != nil {
		c.secondary.Close()
	}
}
