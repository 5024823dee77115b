package services

import (
	"price-chain-service/internal/domain/entities"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateGate(t *testing.T) {
	assert.Equal(t, uint64(86400), NewUpdateGate(DefaultUpdateInterval).Interval)
	assert.Equal(t, uint64(1), NewUpdateGate(1500*time.Millisecond).Interval)
	assert.Equal(t, uint64(0), NewUpdateGate(0).Interval)
}

func TestUpdateGate_Check(t *testing.T) {
	gate := UpdateGate{Interval: 100}
	last := &entities.PriceRecord{LastUpdateTime: 1000, Updates: 1}

	tests := []struct {
		name    string
		record  *entities.PriceRecord
		now     uint64
		wantErr bool
	}{
		{"nil record", nil, 1, false},
		{"never updated", entities.NewEmptyRecord(), 1, false},
		{"one second early", last, 1099, true},
		{"same second", last, 1000, true},
		{"exact boundary", last, 1100, false},
		{"after boundary", last, 5000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check("ETH/USD", tt.record, tt.now)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, entities.ErrUpdateTooSoon)

			var oe *entities.OracleError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, uint64(1100), oe.RetryAt)
			assert.Equal(t, entities.PairKey("ETH/USD"), oe.Pair)
		})
	}
}

func TestPairGuard(t *testing.T) {
	guard := NewPairGuard()

	release, ok := guard.TryAcquire("ETH/USD")
	require.True(t, ok)
	assert.True(t, guard.Held("ETH/USD"))

	_, ok = guard.TryAcquire("ETH/USD")
	assert.False(t, ok, "second acquisition of a held pair must fail")

	other, ok := guard.TryAcquire("BTC/USD")
	require.True(t, ok, "pairs are guarded independently")
	other()

	release()
	release()
	assert.False(t, guard.Held("ETH/USD"))

	again, ok := guard.TryAcquire("ETH/USD")
	require.True(t, ok)
	again()
}

func TestResolveOrBind(t *testing.T) {
	a := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	b := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	zero := common.Address{}

	tests := []struct {
		name        string
		bound       common.Address
		hasBinding  bool
		candidate   common.Address
		want        common.Address
		wantCreated bool
		wantKind    entities.ErrorKind
	}{
		{"first binding", zero, false, a, a, true, ""},
		{"first call without source", zero, false, zero, zero, false, entities.KindMissingSourceAddress},
		{"bound, hint omitted", a, true, zero, a, false, ""},
		{"bound, same hint", a, true, a, a, false, ""},
		{"bound, other hint", a, true, b, zero, false, entities.KindSourceMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, created, err := ResolveOrBind("ETH/USD", tt.bound, tt.hasBinding, tt.candidate)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, entities.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCreated, created)
		})
	}
}

func TestNewFetcher(t *testing.T) {
	f, ok := NewFetcher(entities.VariantCumulativeTick, nil)
	require.True(t, ok)
	assert.Equal(t, entities.VariantCumulativeTick, f.Variant())

	f, ok = NewFetcher(entities.VariantDiscreteFeed, nil)
	require.True(t, ok)
	assert.Equal(t, entities.VariantDiscreteFeed, f.Variant())

	_, ok = NewFetcher("spot", nil)
	assert.False(t, ok)
}
