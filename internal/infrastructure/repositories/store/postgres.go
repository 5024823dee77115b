package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
)

// Prices are NUMERIC(78,0) so every int256 and uint256 value fits.
const schema = `
CREATE TABLE IF NOT EXISTS pair_bindings (
	namespace  TEXT        NOT NULL,
	pair       BYTEA       NOT NULL,
	source     TEXT        NOT NULL,
	bound_seq  BIGSERIAL,
	bound_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, pair)
);

CREATE TABLE IF NOT EXISTS price_records (
	namespace           TEXT          NOT NULL,
	pair                BYTEA         NOT NULL,
	chain_hash          BYTEA         NOT NULL,
	last_update_time    BIGINT        NOT NULL,
	last_price          NUMERIC(78,0) NOT NULL,
	auxiliary           NUMERIC(78,0),
	last_feed_timestamp BIGINT        NOT NULL,
	last_block_height   BIGINT        NOT NULL,
	updates             BIGINT        NOT NULL,
	PRIMARY KEY (namespace, pair)
);

CREATE TABLE IF NOT EXISTS price_events (
	namespace       TEXT          NOT NULL,
	pair            BYTEA         NOT NULL,
	sequence        BIGINT        NOT NULL,
	source          TEXT          NOT NULL,
	price           NUMERIC(78,0) NOT NULL,
	auxiliary       NUMERIC(78,0),
	observed_at     BIGINT        NOT NULL,
	update_time     BIGINT        NOT NULL,
	block_height    BIGINT        NOT NULL,
	prev_chain_hash BYTEA         NOT NULL,
	chain_hash      BYTEA         NOT NULL,
	PRIMARY KEY (namespace, pair, sequence)
);
`

const (
	queryBinding = `SELECT source FROM pair_bindings WHERE namespace = $1 AND pair = $2`

	queryBindingForUpdate = queryBinding + ` FOR UPDATE`

	insertBinding = `INSERT INTO pair_bindings (namespace, pair, source) VALUES ($1, $2, $3) ON CONFLICT (namespace, pair) DO NOTHING`

	queryRecord = `SELECT chain_hash, last_update_time, last_price::text, auxiliary::text, last_feed_timestamp, last_block_height, updates FROM price_records WHERE namespace = $1 AND pair = $2`

	queryRecordForUpdate = queryRecord + ` FOR UPDATE`

	insertRecord = `INSERT INTO price_records (namespace, pair, chain_hash, last_update_time, last_price, auxiliary, last_feed_timestamp, last_block_height, updates) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateRecord = `UPDATE price_records SET chain_hash = $3, last_update_time = $4, last_price = $5, auxiliary = $6, last_feed_timestamp = $7, last_block_height = $8, updates = $9 WHERE namespace = $1 AND pair = $2 AND chain_hash = $10`

	insertEvent = `INSERT INTO price_events (namespace, pair, sequence, source, price, auxiliary, observed_at, update_time, block_height, prev_chain_hash, chain_hash) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	queryEvents = `SELECT sequence, source, price::text, auxiliary::text, observed_at, update_time, block_height, prev_chain_hash, chain_hash FROM price_events WHERE namespace = $1 AND pair = $2 ORDER BY sequence`

	queryPairs = `SELECT pair FROM pair_bindings WHERE namespace = $1 ORDER BY bound_seq`
)

// PostgresStore keeps one namespace in PostgreSQL tables shared by all
// namespaces.
type PostgresStore struct {
	db        *sql.DB
	namespace string
	variant   entities.Variant
}

// NewPostgresStore creates a store on an open database handle. The variant is
// stamped on decoded audit events.
func NewPostgresStore(db *sql.DB, namespace string, variant entities.Variant) *PostgresStore {
	return &PostgresStore{db: db, namespace: namespace, variant: variant}
}

// InitSchema creates the tables if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *PostgresStore) Binding(ctx context.Context, pair entities.PairKey) (common.Address, bool, error) {
	addr, ok, err := p.binding(ctx, p.db, queryBinding, pair)
	if err != nil {
		p.fail(ctx, "binding", pair, err)
	}
	return addr, ok, err
}

func (p *PostgresStore) binding(ctx context.Context, q rowQuerier, query string, pair entities.PairKey) (common.Address, bool, error) {
	var source string
	err := q.QueryRowContext(ctx, query, p.namespace, []byte(pair)).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	if !common.IsHexAddress(source) {
		return common.Address{}, false, fmt.Errorf("stored binding %q is not an address", source)
	}
	return common.HexToAddress(source), true, nil
}

func (p *PostgresStore) Record(ctx context.Context, pair entities.PairKey) (*entities.PriceRecord, bool, error) {
	rec, ok, err := p.record(ctx, p.db, queryRecord, pair)
	if err != nil {
		p.fail(ctx, "record", pair, err)
	}
	return rec, ok, err
}

func (p *PostgresStore) record(ctx context.Context, q rowQuerier, query string, pair entities.PairKey) (*entities.PriceRecord, bool, error) {
	var (
		chainHash []byte
		price     string
		aux       sql.NullString
		rec       entities.PriceRecord
	)
	err := q.QueryRowContext(ctx, query, p.namespace, []byte(pair)).Scan(
		&chainHash, &rec.LastUpdateTime, &price, &aux,
		&rec.LastFeedTimestamp, &rec.LastBlockHeight, &rec.Updates,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rec.ChainHash = common.BytesToHash(chainHash)
	if rec.LastPrice, err = parseNumeric(price); err != nil {
		return nil, false, err
	}
	if rec.Auxiliary, err = parseNullNumeric(aux); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// Commit locks the binding and record rows, re-checks them and writes
// binding, record and event in one transaction.
func (p *PostgresStore) Commit(ctx context.Context, c *entities.Commit) (err error) {
	if c == nil || c.Record == nil || c.Event == nil {
		return ErrIncompleteCommit
	}

	defer func() {
		metrics.RecordStoreOperation("postgres", "commit", resultOf(err))
		switch {
		case err == nil:
			logging.Store().Committed(ctx, "postgres", p.namespace, string(c.Pair), c.Event.Sequence)
		case entities.KindOf(err) != "":
			logging.Store().CommitRejected(ctx, "postgres", p.namespace, string(c.Pair), err)
		default:
			logging.Store().StoreError(ctx, "postgres", "commit", string(c.Pair), err)
		}
	}()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	pair := []byte(c.Pair)

	bound, hasBinding, err := p.binding(ctx, tx, queryBindingForUpdate, c.Pair)
	if err != nil {
		return fmt.Errorf("failed to lock binding: %w", err)
	}
	current, _, err := p.record(ctx, tx, queryRecordForUpdate, c.Pair)
	if err != nil {
		return fmt.Errorf("failed to lock record: %w", err)
	}
	if err = checkCommit(c, bound, hasBinding, current); err != nil {
		return err
	}

	if !hasBinding {
		res, execErr := tx.ExecContext(ctx, insertBinding, p.namespace, pair, c.Source.Hex())
		if err = rowsChanged(res, execErr, "bind pair"); err != nil {
			if errors.Is(err, errNoRowsChanged) {
				err = entities.NewOracleError(entities.KindUpdateInProgress, c.Pair, "pair was bound concurrently", nil)
			}
			return err
		}
	}

	r := c.Record
	var res sql.Result
	var execErr error
	if current == nil {
		res, execErr = tx.ExecContext(ctx, insertRecord, p.namespace, pair, r.ChainHash.Bytes(),
			r.LastUpdateTime, numeric(r.LastPrice), nullNumeric(r.Auxiliary),
			r.LastFeedTimestamp, r.LastBlockHeight, r.Updates)
	} else {
		res, execErr = tx.ExecContext(ctx, updateRecord, p.namespace, pair, r.ChainHash.Bytes(),
			r.LastUpdateTime, numeric(r.LastPrice), nullNumeric(r.Auxiliary),
			r.LastFeedTimestamp, r.LastBlockHeight, r.Updates, c.PrevHash.Bytes())
	}
	if err = rowsChanged(res, execErr, "write record"); err != nil {
		if errors.Is(err, errNoRowsChanged) {
			err = entities.NewOracleError(entities.KindUpdateInProgress, c.Pair, "record changed during commit", nil)
		}
		return err
	}

	ev := c.Event
	if _, err = tx.ExecContext(ctx, insertEvent, p.namespace, pair, ev.Sequence, ev.Source.Hex(),
		numeric(ev.Price), nullNumeric(ev.Auxiliary), ev.Timestamp, ev.UpdateTime, ev.BlockHeight,
		ev.PrevChainHash.Bytes(), ev.ChainHash.Bytes()); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresStore) Events(ctx context.Context, pair entities.PairKey) ([]*entities.AuditEvent, error) {
	rows, err := p.db.QueryContext(ctx, queryEvents, p.namespace, []byte(pair))
	if err != nil {
		p.fail(ctx, "events", pair, err)
		return nil, err
	}
	defer rows.Close()

	var events []*entities.AuditEvent
	for rows.Next() {
		var (
			source     string
			price      string
			aux        sql.NullString
			prev, hash []byte
		)
		ev := &entities.AuditEvent{Variant: p.variant, Pair: pair}
		if err := rows.Scan(&ev.Sequence, &source, &price, &aux, &ev.Timestamp, &ev.UpdateTime,
			&ev.BlockHeight, &prev, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.Source = common.HexToAddress(source)
		ev.PrevChainHash = common.BytesToHash(prev)
		ev.ChainHash = common.BytesToHash(hash)
		if ev.Price, err = parseNumeric(price); err != nil {
			return nil, err
		}
		if ev.Auxiliary, err = parseNullNumeric(aux); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (p *PostgresStore) Pairs(ctx context.Context) ([]entities.PairKey, error) {
	rows, err := p.db.QueryContext(ctx, queryPairs, p.namespace)
	if err != nil {
		p.fail(ctx, "pairs", "", err)
		return nil, err
	}
	defer rows.Close()

	var pairs []entities.PairKey
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		pairs = append(pairs, entities.PairKey(raw))
	}
	return pairs, rows.Err()
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) fail(ctx context.Context, operation string, pair entities.PairKey, err error) {
	metrics.RecordStoreOperation("postgres", operation, "error")
	logging.Store().StoreError(ctx, "postgres", operation, string(pair), err)
}

var errNoRowsChanged = errors.New("no rows changed")

func rowsChanged(res sql.Result, execErr error, op string) error {
	if execErr != nil {
		return fmt.Errorf("failed to %s: %w", op, execErr)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n != 1 {
		return fmt.Errorf("failed to %s: %w", op, errNoRowsChanged)
	}
	return nil
}

func numeric(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func nullNumeric(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func parseNumeric(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric value %q", s)
	}
	return v, nil
}

func parseNullNumeric(s sql.NullString) (*big.Int, error) {
	if !s.Valid {
		return nil, nil
	}
	return parseNumeric(s.String)
}
