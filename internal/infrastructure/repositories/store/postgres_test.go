package store

import (
	"context"
	"database/sql"
	"errors"
	"price-chain-service/internal/domain/entities"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db, "feed", entities.VariantDiscreteFeed), mock
}

func recordColumns() []string {
	return []string{"chain_hash", "last_update_time", "last_price", "auxiliary", "last_feed_timestamp", "last_block_height", "updates"}
}

func TestPostgresStore_Binding(t *testing.T) {
	s, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectQuery(queryBinding).
		WithArgs("feed", []byte("ETH/USD")).
		WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow(sourceA.Hex()))
	mock.ExpectQuery(queryBinding).
		WithArgs("feed", []byte("BTC/USD")).
		WillReturnError(sql.ErrNoRows)

	addr, ok, err := s.Binding(ctx, "ETH/USD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sourceA, addr)

	_, ok, err = s.Binding(ctx, "BTC/USD")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Record(t *testing.T) {
	s, mock := newMockPostgres(t)
	hash := common.HexToHash("0x01")

	mock.ExpectQuery(queryRecord).
		WithArgs("feed", []byte("ETH/USD")).
		WillReturnRows(sqlmock.NewRows(recordColumns()).
			AddRow(hash.Bytes(), int64(1000), "-57896044618658097711785492504343953926634992332820282019728792003956564819968", nil, int64(990), int64(7), int64(3)))

	rec, ok, err := s.Record(context.Background(), "ETH/USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hash, rec.ChainHash)
	assert.Equal(t, uint64(1000), rec.LastUpdateTime)
	assert.Equal(t, "-57896044618658097711785492504343953926634992332820282019728792003956564819968", rec.LastPrice.String())
	assert.Nil(t, rec.Auxiliary)
	assert.Equal(t, uint64(990), rec.LastFeedTimestamp)
	assert.Equal(t, uint64(3), rec.Updates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CommitFirstUpdate(t *testing.T) {
	s, mock := newMockPostgres(t)
	c := testCommit("ETH/USD", sourceA, true, common.Hash{}, 1, 1000)
	pair := []byte("ETH/USD")

	mock.ExpectBegin()
	mock.ExpectQuery(queryBindingForUpdate).WithArgs("feed", pair).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(queryRecordForUpdate).WithArgs("feed", pair).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(insertBinding).WithArgs("feed", pair, sourceA.Hex()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRecord).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertEvent).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Commit(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CommitRejections(t *testing.T) {
	pair := []byte("ETH/USD")
	prev := common.HexToHash("0xaa")

	tests := []struct {
		name   string
		commit *entities.Commit
		setup  func(mock sqlmock.Sqlmock)
		kind   entities.ErrorKind
	}{
		{
			name:   "binding belongs to another source",
			commit: testCommit("ETH/USD", sourceB, true, common.Hash{}, 1, 1000),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(queryBindingForUpdate).WithArgs("feed", pair).
					WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow(sourceA.Hex()))
				mock.ExpectQuery(queryRecordForUpdate).WithArgs("feed", pair).WillReturnError(sql.ErrNoRows)
			},
			kind: entities.KindSourceMismatch,
		},
		{
			name:   "stored hash moved on",
			commit: testCommit("ETH/USD", sourceA, false, common.HexToHash("0xbb"), 2, 2000),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(queryBindingForUpdate).WithArgs("feed", pair).
					WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow(sourceA.Hex()))
				mock.ExpectQuery(queryRecordForUpdate).WithArgs("feed", pair).
					WillReturnRows(sqlmock.NewRows(recordColumns()).
						AddRow(prev.Bytes(), int64(1000), "100", nil, int64(1000), int64(1), int64(1)))
			},
			kind: entities.KindUpdateInProgress,
		},
		{
			name:   "update matched no row",
			commit: testCommit("ETH/USD", sourceA, false, prev, 2, 2000),
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(queryBindingForUpdate).WithArgs("feed", pair).
					WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow(sourceA.Hex()))
				mock.ExpectQuery(queryRecordForUpdate).WithArgs("feed", pair).
					WillReturnRows(sqlmock.NewRows(recordColumns()).
						AddRow(prev.Bytes(), int64(1000), "100", nil, int64(1000), int64(1), int64(1)))
				mock.ExpectExec(updateRecord).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			kind: entities.KindUpdateInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgres(t)
			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			err := s.Commit(context.Background(), tt.commit)
			require.Error(t, err)
			assert.Equal(t, tt.kind, entities.KindOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_CommitEventFailureRollsBack(t *testing.T) {
	s, mock := newMockPostgres(t)
	prev := common.HexToHash("0xaa")
	pair := []byte("ETH/USD")

	mock.ExpectBegin()
	mock.ExpectQuery(queryBindingForUpdate).WithArgs("feed", pair).
		WillReturnRows(sqlmock.NewRows([]string{"source"}).AddRow(sourceA.Hex()))
	mock.ExpectQuery(queryRecordForUpdate).WithArgs("feed", pair).
		WillReturnRows(sqlmock.NewRows(recordColumns()).
			AddRow(prev.Bytes(), int64(1000), "100", nil, int64(1000), int64(1), int64(1)))
	mock.ExpectExec(updateRecord).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertEvent).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := s.Commit(context.Background(), testCommit("ETH/USD", sourceA, false, prev, 2, 2000))
	require.Error(t, err)
	assert.Empty(t, entities.KindOf(err))
	assert.Contains(t, err.Error(), "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Events(t *testing.T) {
	s, mock := newMockPostgres(t)
	h1 := common.HexToHash("0x11")
	h2 := common.HexToHash("0x22")

	mock.ExpectQuery(queryEvents).
		WithArgs("feed", []byte("ETH/USD")).
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "source", "price", "auxiliary", "observed_at", "update_time", "block_height", "prev_chain_hash", "chain_hash"}).
			AddRow(int64(1), sourceA.Hex(), "100", "5", int64(990), int64(1000), int64(10), common.Hash{}.Bytes(), h1.Bytes()).
			AddRow(int64(2), sourceA.Hex(), "101", "6", int64(1990), int64(2000), int64(11), h1.Bytes(), h2.Bytes()))

	events, err := s.Events(context.Background(), "ETH/USD")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.VariantDiscreteFeed, events[0].Variant)
	assert.Equal(t, entities.PairKey("ETH/USD"), events[1].Pair)
	assert.Equal(t, h1, events[1].PrevChainHash)
	assert.Equal(t, "6", events[1].Auxiliary.String())
	assert.Equal(t, uint64(1990), events[1].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Pairs(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(queryPairs).
		WithArgs("feed").
		WillReturnRows(sqlmock.NewRows([]string{"pair"}).AddRow([]byte("ETH/USD")).AddRow([]byte("BTC/USD")))

	pairs, err := s.Pairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entities.PairKey{"ETH/USD", "BTC/USD"}, pairs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pair_bindings").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, InitSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
