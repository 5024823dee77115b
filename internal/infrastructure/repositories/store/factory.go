package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
)

// Type represents the type of store implementation
type Type string

const (
	TypeMemory   Type = "memory"
	TypeRedis    Type = "redis"
	TypePostgres Type = "postgres"
)

// Config holds store configuration options
type Config struct {
	Type Type

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	PostgresDSN  string
	MaxOpenConns int
	MaxIdleConns int

	ConnectAttempts uint
	ConnectDelay    time.Duration
	ConnectMaxDelay time.Duration
}

// Backend owns the connection of one storage technology and hands out a
// RecordStore per namespace. Each oracle variant gets its own namespace.
type Backend struct {
	kind   Type
	redis  redis.UniversalClient
	db     *sql.DB
	prefix string

	mu     sync.Mutex
	memory map[string]*MemoryStore
}

// Open connects to the configured backend. Connection attempts are retried
// with exponential backoff.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Type {
	case TypeMemory, "":
		logging.Info(ctx, "Creating memory store", logging.Fields{
			logging.FieldStoreBackend: "memory",
		})
		return &Backend{kind: TypeMemory, memory: make(map[string]*MemoryStore)}, nil

	case TypeRedis:
		logging.Info(ctx, "Creating Redis store", logging.Fields{
			logging.FieldStoreBackend: "redis",
			"addr":                    cfg.RedisAddr,
			"database":                cfg.RedisDB,
		})
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := connect(ctx, cfg, "redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisBackend(client, cfg.RedisPrefix), nil

	case TypePostgres:
		logging.Info(ctx, "Creating PostgreSQL store", logging.Fields{
			logging.FieldStoreBackend: "postgres",
		})
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if err := connect(ctx, cfg, "postgres", db.PingContext); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := InitSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewPostgresBackend(db), nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client redis.UniversalClient, prefix string) *Backend {
	if prefix == "" {
		prefix = "price-chain"
	}
	return &Backend{kind: TypeRedis, redis: client, prefix: prefix}
}

// NewPostgresBackend wraps an open database whose schema already exists.
func NewPostgresBackend(db *sql.DB) *Backend {
	return &Backend{kind: TypePostgres, db: db}
}

// Type returns the backend technology.
func (b *Backend) Type() Type {
	return b.kind
}

// Store returns the record store for a namespace. Calling it twice with the
// same namespace yields stores over the same data.
func (b *Backend) Store(namespace string, variant entities.Variant) interfaces.RecordStore {
	switch b.kind {
	case TypeRedis:
		return NewRedisStore(b.redis, b.prefix, namespace)
	case TypePostgres:
		return NewPostgresStore(b.db, namespace, variant)
	default:
		b.mu.Lock()
		defer b.mu.Unlock()
		s, ok := b.memory[namespace]
		if !ok {
			s = NewMemoryStore()
			b.memory[namespace] = s
		}
		return s
	}
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	switch b.kind {
	case TypeRedis:
		return b.redis.Close()
	case TypePostgres:
		return b.db.Close()
	default:
		return nil
	}
}

func connect(ctx context.Context, cfg Config, backend string, ping func(context.Context) error) error {
	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 5
	}
	delay := cfg.ConnectDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := cfg.ConnectMaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}

	return retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return ping(pingCtx)
		},
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordConnectRetry(backend, n+1)
			logging.Warn(ctx, "Store connection attempt failed, retrying", logging.Fields{
				logging.FieldStoreBackend: backend,
				"attempt":                 n + 1,
				"error":                   err.Error(),
			})
		}),
	)
}
