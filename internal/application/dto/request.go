package dto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"price-chain-service/internal/domain/entities"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// UpdateRequest is the body of POST /api/v1/{variant}/update
// @Description Update request for one pair. Source is required for the first update of a pair only.
type UpdateRequest struct {
	Pair    string `json:"pair,omitempty" example:"ETH/USD"`                                   // Pair key as UTF-8 text
	PairHex string `json:"pair_hex,omitempty" example:"0x4554482f555344"`                      // Pair key as hex bytes, alternative to pair
	Source  string `json:"source,omitempty" example:"0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"` // Source contract address
}

// PairKey resolves the pair from either field.
func (r *UpdateRequest) PairKey() (entities.PairKey, error) {
	return resolvePair(r.Pair, r.PairHex)
}

// SourceAddress returns the source hint; an empty source is the zero address.
func (r *UpdateRequest) SourceAddress() (common.Address, error) {
	src := strings.TrimSpace(r.Source)
	if src == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(src) {
		return common.Address{}, fmt.Errorf("invalid source address: %s", src)
	}
	return common.HexToAddress(src), nil
}

// PairFromQuery reads pair or pair_hex from query parameters.
func PairFromQuery(values url.Values) (entities.PairKey, error) {
	return resolvePair(values.Get("pair"), values.Get("pair_hex"))
}

// ParseVariant maps a path segment to a variant.
func ParseVariant(s string) (entities.Variant, error) {
	v, ok := entities.ParseVariant(s)
	if !ok {
		return "", fmt.Errorf("unknown variant: %s (expected %s or %s)", s, entities.VariantCumulativeTick, entities.VariantDiscreteFeed)
	}
	return v, nil
}

// resolvePair leaves an empty pair to the oracle, which rejects it with
// INVALID_IDENTIFIER.
func resolvePair(text, hexText string) (entities.PairKey, error) {
	if text != "" && hexText != "" {
		return "", errors.New("pair and pair_hex are mutually exclusive")
	}
	if hexText == "" {
		return entities.PairKey(text), nil
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(hexText, "0x"), "0X"))
	if err != nil {
		return "", fmt.Errorf("invalid pair_hex: %w", err)
	}
	return entities.PairKey(raw), nil
}
