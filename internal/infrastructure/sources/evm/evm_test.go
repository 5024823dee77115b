package evm

import (
	"context"
	"errors"
	"math/big"
	"price-chain-service/internal/domain/interfaces"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCaller struct {
	mock.Mock
}

func (m *mockCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, msg, blockNumber)
	var out []byte
	if b, ok := args.Get(0).([]byte); ok {
		out = b
	}
	return out, args.Error(1)
}

var poolAddress = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")

func callTo(address common.Address, data []byte) interface{} {
	return mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == address && string(msg.Data) == string(data)
	})
}

func TestPoolObserver_Observe(t *testing.T) {
	input, err := poolABI.Pack("observe", []uint32{86400, 0})
	require.NoError(t, err)
	output, err := poolABI.Methods["observe"].Outputs.Pack(
		[]*big.Int{big.NewInt(-1000), big.NewInt(863000)},
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
	)
	require.NoError(t, err)

	caller := new(mockCaller)
	caller.On("CallContract", mock.Anything, callTo(poolAddress, input), mock.Anything).Return(output, nil)

	ticks, err := NewPoolObserver(caller, poolAddress).Observe(context.Background(), []uint32{86400, 0})
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, int64(-1000), ticks[0].Int64())
	assert.Equal(t, int64(863000), ticks[1].Int64())
	caller.AssertExpectations(t)
}

func TestPoolObserver_Errors(t *testing.T) {
	tests := []struct {
		name          string
		result        []byte
		err           error
		wantMalformed bool
	}{
		{name: "transport failure", err: errors.New("connection refused")},
		{name: "empty answer", result: []byte{}, wantMalformed: true},
		{name: "truncated answer", result: make([]byte, 31), wantMalformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := new(mockCaller)
			caller.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(tt.result, tt.err)

			_, err := NewPoolObserver(caller, poolAddress).Observe(context.Background(), []uint32{60, 0})
			require.Error(t, err)
			assert.Equal(t, tt.wantMalformed, errors.Is(err, interfaces.ErrMalformedResponse))
		})
	}
}

func TestAggregatorFeed_LatestRoundData(t *testing.T) {
	feedAddress := common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419")
	input, err := aggregatorABI.Pack("latestRoundData")
	require.NoError(t, err)

	tests := []struct {
		name   string
		answer *big.Int
	}{
		{name: "positive answer", answer: big.NewInt(350012345678)},
		{name: "negative answer is passed through", answer: big.NewInt(-5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := aggregatorABI.Methods["latestRoundData"].Outputs.Pack(
				big.NewInt(42), tt.answer, big.NewInt(1700000000), big.NewInt(1700000100), big.NewInt(42),
			)
			require.NoError(t, err)

			caller := new(mockCaller)
			caller.On("CallContract", mock.Anything, callTo(feedAddress, input), mock.Anything).Return(output, nil)

			round, err := NewAggregatorFeed(caller, feedAddress).LatestRoundData(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(42), round.RoundID.Int64())
			assert.Equal(t, 0, tt.answer.Cmp(round.Answer))
			assert.Equal(t, int64(1700000000), round.StartedAt.Int64())
			assert.Equal(t, int64(1700000100), round.UpdatedAt.Int64())
			assert.Equal(t, int64(42), round.AnsweredInRound.Int64())
		})
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver(new(mockCaller))

	_, err := r.TickSource(common.Address{})
	assert.ErrorIs(t, err, ErrZeroAddress)
	_, err = r.RoundFeed(common.Address{})
	assert.ErrorIs(t, err, ErrZeroAddress)

	src, err := r.TickSource(poolAddress)
	require.NoError(t, err)
	assert.IsType(t, &PoolObserver{}, src)

	feed, err := r.RoundFeed(poolAddress)
	require.NoError(t, err)
	assert.IsType(t, &AggregatorFeed{}, feed)
}

func TestCall_WithoutCaller(t *testing.T) {
	_, err := NewPoolObserver(nil, poolAddress).Observe(context.Background(), []uint32{60, 0})
	assert.ErrorIs(t, err, ErrClientNotAttached)
}

func TestFallbackCaller(t *testing.T) {
	msg := ethereum.CallMsg{To: &poolAddress}

	t.Run("primary succeeds", func(t *testing.T) {
		primary, secondary := new(mockCaller), new(mockCaller)
		primary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return([]byte{1}, nil)

		out, err := NewFallbackCaller(primary, secondary, 0).CallContract(context.Background(), msg, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, out)
		secondary.AssertNotCalled(t, "CallContract", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back on primary failure", func(t *testing.T) {
		primary, secondary := new(mockCaller), new(mockCaller)
		primary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
		secondary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return([]byte{2}, nil)

		out, err := NewFallbackCaller(primary, secondary, 0).CallContract(context.Background(), msg, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, out)
	})

	t.Run("both fail", func(t *testing.T) {
		primary, secondary := new(mockCaller), new(mockCaller)
		primary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("primary down"))
		secondary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("secondary down"))

		_, err := NewFallbackCaller(primary, secondary, 0).CallContract(context.Background(), msg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "primary down")
		assert.Contains(t, err.Error(), "secondary down")
	})

	t.Run("no secondary", func(t *testing.T) {
		primary := new(mockCaller)
		primary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("primary down"))

		_, err := NewFallbackCaller(primary, nil, 0).CallContract(context.Background(), msg, nil)
		assert.EqualError(t, err, "primary down")
	})

	t.Run("cancelled caller context skips fallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		primary, secondary := new(mockCaller), new(mockCaller)
		primary.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)

		_, err := NewFallbackCaller(primary, secondary, 0).CallContract(ctx, msg, nil)
		assert.ErrorIs(t, err, context.Canceled)
		secondary.AssertNotCalled(t, "CallContract", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDetermineFallbackReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: context.DeadlineExceeded, want: "timeout"},
		{err: errors.New("i/o timeout"), want: "timeout"},
		{err: errors.New("dial tcp: connection refused"), want: "connection_error"},
		{err: errors.New("429 Too Many Requests"), want: "rate_limited"},
		{err: errors.New("execution reverted"), want: "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, determineFallbackReason(tt.err))
		})
	}
}

func TestDial_RequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrRPCURLRequired)
}
