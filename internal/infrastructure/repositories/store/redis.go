package store

import (
	"context"
	"errors"
	"fmt"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps one namespace in Redis.
//
// Layout, with pairs hex-encoded:
//
//	<prefix>:<ns>:binding:<pair>  source address (hex string)
//	<prefix>:<ns>:record:<pair>   JSON record
//	<prefix>:<ns>:events:<pair>   list of JSON audit events
//	<prefix>:<ns>:pairs           list of bound pairs in binding order
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	namespace string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client redis.UniversalClient, prefix, namespace string) *RedisStore {
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		namespace: namespace,
	}
}

func (r *RedisStore) key(kind string, pair entities.PairKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", r.prefix, r.namespace, kind, encodePair(pair))
}

func (r *RedisStore) pairsKey() string {
	return fmt.Sprintf("%s:%s:pairs", r.prefix, r.namespace)
}

func (r *RedisStore) Binding(ctx context.Context, pair entities.PairKey) (common.Address, bool, error) {
	return r.binding(ctx, r.client, pair)
}

func (r *RedisStore) binding(ctx context.Context, c getter, pair entities.PairKey) (common.Address, bool, error) {
	val, err := c.Get(ctx, r.key("binding", pair)).Result()
	if err == redis.Nil {
		return common.Address{}, false, nil
	}
	if err != nil {
		r.fail(ctx, "binding", pair, err)
		return common.Address{}, false, err
	}
	if !common.IsHexAddress(val) {
		return common.Address{}, false, fmt.Errorf("stored binding %q is not an address", val)
	}
	return common.HexToAddress(val), true, nil
}

func (r *RedisStore) Record(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, bool, error) {
	return r.record(ctx, r.client, pair)
}

func (r *RedisStore) record(ctx context.Context, c getter, pair entities.PairKey) (*entities.PriceRecord, bool, error) {
	data, err := c.Get(ctx, r.key("record", pair)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		r.fail(ctx, "record", pair, err)
		return nil, false, err
	}
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Commit watches the binding and record keys and applies all writes in one
// MULTI/EXEC. A concurrent modification aborts the transaction.
func (r *RedisStore) Commit(ctx context.Context, c *entities.Commit) error {
	if c == nil || c.Record == nil || c.Event == nil {
		return ErrIncompleteCommit
	}

	recordData, err := encodeRecord(c.Record)
	if err != nil {
		return err
	}
	eventData, err := encodeEvent(c.Event)
	if err != nil {
		return err
	}

	bindingKey := r.key("binding", c.Pair)
	recordKey := r.key("record", c.Pair)

	txf := func(tx *redis.Tx) error {
		bound, hasBinding, err := r.binding(ctx, tx, c.Pair)
		if err != nil {
			return err
		}
		current, _, err := r.record(ctx, tx, c.Pair)
		if err != nil {
			return err
		}
		if err := checkCommit(c, bound, hasBinding, current); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !hasBinding {
				pipe.Set(ctx, bindingKey, c.Source.Hex(), 0)
				pipe.RPush(ctx, r.pairsKey(), encodePair(c.Pair))
			}
			pipe.Set(ctx, recordKey, recordData, 0)
			pipe.RPush(ctx, r.key("events", c.Pair), eventData)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, bindingKey, recordKey)
	switch {
	case err == nil:
		metrics.RecordStoreOperation("redis", "commit", "success")
		logging.Store().Committed(ctx, "redis", r.namespace, string(c.Pair), c.Event.Sequence)
		return nil
	case errors.Is(err, redis.TxFailedErr):
		metrics.RecordStoreOperation("redis", "commit", "conflict")
		logging.Store().CommitRejected(ctx, "redis", r.namespace, string(c.Pair), err)
		return entities.NewOracleError(entities.KindUpdateInProgress, c.Pair, "record changed during commit", err)
	case entities.KindOf(err) != "":
		metrics.RecordStoreOperation("redis", "commit", "conflict")
		logging.Store().CommitRejected(ctx, "redis", r.namespace, string(c.Pair), err)
		return err
	default:
		metrics.RecordStoreOperation("redis", "commit", "error")
		r.fail(ctx, "commit", c.Pair, err)
		return fmt.Errorf("redis commit failed: %w", err)
	}
}

func (r *RedisStore) Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error) {
	raw, err := r.client.LRange(ctx, r.key("events", pair), 0, -1).Result()
	if err != nil {
		r.fail(ctx, "events", pair, err)
		return nil, err
	}

	events := make([]*entities.AuditEvent, 0, len(raw))
	for _, item := range raw {
		ev, err := decodeEvent(pair, []byte(item))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (r *RedisStore) Pairs(ctx context.Context) ([]entities.PairKey, error) {
	raw, err := r.client.LRange(ctx, r.pairsKey(), 0, -1).Result()
	if err != nil {
		r.fail(ctx, "pairs", "", err)
		return nil, err
	}

	pairs := make([]entities.PairKey, 0, len(raw))
	for _, item := range raw {
		pair, err := decodePair(item)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Ping checks if the Redis connection is alive
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) fail(ctx context.Context, operation string, pair entities.PairKey, err error) {
	metrics.RecordStoreOperation("redis", operation, "error")
	logging.Store().StoreError(ctx, "redis", operation, string(pair), err)
}
