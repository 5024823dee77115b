package dto

import (
	"encoding/hex"
	"math/big"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RecordMapper converts domain values to response DTOs
type RecordMapper struct {
	decimals map[entities.Variant]int32
}

// NewRecordMapper creates a mapper. decimals sets how many decimal places the
// display price of each variant has; missing variants display raw integers.
func NewRecordMapper(decimals map[entities.Variant]int32) *RecordMapper {
	d := make(map[entities.Variant]int32, len(decimals))
	for k, v := range decimals {
		d[k] = v
	}
	return &RecordMapper{decimals: d}
}

func (m *RecordMapper) ToRecordResponse(variant entities.Variant, pair entities.PairKey, source common.Address, rec *entities.PriceRecord) *PriceRecordResponse {
	resp := &PriceRecordResponse{
		Variant:           string(variant),
		Pair:              string(pair),
		PairHex:           PairHex(pair),
		Source:            source.Hex(),
		ChainHash:         rec.ChainHash.Hex(),
		LastPrice:         bigString(rec.LastPrice),
		DisplayPrice:      m.DisplayPrice(variant, rec.LastPrice),
		Auxiliary:         optionalBig(rec.Auxiliary),
		LastUpdateTime:    rec.LastUpdateTime,
		LastFeedTimestamp: rec.LastFeedTimestamp,
		LastBlockHeight:   rec.LastBlockHeight,
		Updates:           rec.Updates,
	}
	if !rec.IsEmpty() {
		resp.LastUpdateAt = utils.UnixToRFC3339(rec.LastUpdateTime)
	}
	return resp
}

func (m *RecordMapper) ToAuditEventResponse(ev *entities.AuditEvent) AuditEventResponse {
	return AuditEventResponse{
		Variant:       string(ev.Variant),
		Pair:          string(ev.Pair),
		PairHex:       PairHex(ev.Pair),
		Source:        ev.Source.Hex(),
		Sequence:      ev.Sequence,
		Price:         bigString(ev.Price),
		DisplayPrice:  m.DisplayPrice(ev.Variant, ev.Price),
		Auxiliary:     optionalBig(ev.Auxiliary),
		Timestamp:     ev.Timestamp,
		ObservedAt:    utils.UnixToRFC3339(ev.Timestamp),
		UpdateTime:    ev.UpdateTime,
		BlockHeight:   ev.BlockHeight,
		PrevChainHash: ev.PrevChainHash.Hex(),
		ChainHash:     ev.ChainHash.Hex(),
	}
}

func (m *RecordMapper) ToEventsResponse(variant entities.Variant, pair entities.PairKey, events []*entities.AuditEvent) *EventsResponse {
	out := make([]AuditEventResponse, len(events))
	for i, ev := range events {
		out[i] = m.ToAuditEventResponse(ev)
	}
	return &EventsResponse{
		Variant: string(variant),
		Pair:    string(pair),
		Count:   len(out),
		Events:  out,
	}
}

// ToPairsResponse keeps the store's binding order. sources may be shorter
// than pairs when a lookup failed.
func (m *RecordMapper) ToPairsResponse(variant entities.Variant, pairs []entities.PairKey, sources map[entities.PairKey]common.Address) *PairsResponse {
	entries := make([]PairEntry, len(pairs))
	for i, p := range pairs {
		entries[i] = PairEntry{Pair: string(p), PairHex: PairHex(p)}
		if src, ok := sources[p]; ok {
			entries[i].Source = src.Hex()
		}
	}
	return &PairsResponse{
		Variant: string(variant),
		Count:   len(entries),
		Pairs:   entries,
	}
}

func (m *RecordMapper) ToVerificationResponse(report *entities.VerificationReport) *VerificationResponse {
	return &VerificationResponse{
		Variant:       string(report.Variant),
		Pair:          string(report.Pair),
		Valid:         report.Valid,
		Events:        report.Events,
		StoredHash:    report.StoredHash.Hex(),
		ComputedHash:  report.ComputedHash.Hex(),
		FirstMismatch: report.FirstMismatch,
		Reason:        report.Reason,
	}
}

// DisplayPrice renders an integer price with the variant's decimals.
func (m *RecordMapper) DisplayPrice(variant entities.Variant, price *big.Int) string {
	if price == nil {
		return "0"
	}
	return decimal.NewFromBigInt(price, -m.decimals[variant]).String()
}

// PairHex renders raw pair bytes as 0x-prefixed hex.
func PairHex(pair entities.PairKey) string {
	return "0x" + hex.EncodeToString([]byte(pair))
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func optionalBig(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
