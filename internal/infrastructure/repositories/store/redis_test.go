package store

import (
	"context"
	"os"
	"price-chain-service/internal/domain/entities"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_KeyLayout(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	s := NewRedisStore(client, "price-chain", "twap")
	assert.Equal(t, "price-chain:twap:record:4554482f555344", s.key("record", "ETH/USD"))
	assert.Equal(t, "price-chain:twap:pairs", s.pairsKey())
}

// newLiveRedisStore connects to REDIS_ADDR and isolates the test under a
// random prefix.
func newLiveRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())

	prefix := "test-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return NewRedisStore(client, prefix, "feed")
}

func TestRedisStore_Integration(t *testing.T) {
	s := newLiveRedisStore(t)
	ctx := context.Background()

	first := testCommit("ETH/USD", sourceA, true, common.Hash{}, 1, 1000)
	require.NoError(t, s.Commit(ctx, first))

	addr, ok, err := s.Binding(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sourceA, addr)

	err = s.Commit(ctx, testCommit("ETH/USD", sourceA, false, common.Hash{}, 2, 2000))
	assert.Equal(t, entities.KindUpdateInProgress, entities.KindOf(err))

	err = s.Commit(ctx, testCommit("ETH/USD", sourceB, true, first.Record.ChainHash, 2, 2000))
	assert.Equal(t, entities.KindSourceMismatch, entities.KindOf(err))

	require.NoError(t, s.Commit(ctx, testCommit("ETH/USD", sourceA, false, first.Record.ChainHash, 2, 2000)))

	rec, ok, err := s.Record(ctx, "ETH/USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), rec.Updates)

	events, err := s.Events(ctx, "ETH/USD")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.Record.ChainHash, events[1].PrevChainHash)
	assert.Equal(t, entities.PairKey("ETH/USD"), events[0].Pair)

	pairs, err := s.Pairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.PairKey{"ETH/USD"}, pairs)
}
