// Package hashchain implements the audit hash chain that every accepted price
// update is folded into.
//
// Encoding version 1 is a fixed 114-byte positional layout, hashed with Keccak-256:
//
//	offset  width  field
//	0       1      encoding version (0x01)
//	1       1      variant code (0x01 cumulative tick, 0x02 discrete feed)
//	2       32     previous chain hash
//	34      32     price, int256 two's complement, big-endian
//	66      8      observation timestamp, uint64 big-endian
//	74      32     auxiliary value, uint256 big-endian, zero when absent
//	106     8      block height, uint64 big-endian
//
// The layout is frozen: any change requires a new version byte.
package hashchain

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// EncodingVersion is the version byte written at offset 0.
	EncodingVersion byte = 0x01
	// EncodedLength is the size of a version 1 preimage.
	EncodedLength = 114

	offsetVariant   = 1
	offsetPrevHash  = 2
	offsetPrice     = 34
	offsetTimestamp = 66
	offsetAuxiliary = 74
	offsetHeight    = 106
)

var (
	twoTo256   = new(big.Int).Lsh(big.NewInt(1), 256)
	maxInt256  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	minInt256  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	maxUint256 = new(big.Int).Sub(twoTo256, big.NewInt(1))
)

// Encode returns the version 1 preimage for one chain step.
func Encode(variant entities.Variant, prev common.Hash, price *big.Int, timestamp uint64, auxiliary *big.Int, height uint64) ([]byte, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
	if price == nil {
		return nil, fmt.Errorf("price is required")
	}
	if price.Cmp(maxInt256) > 0 || price.Cmp(minInt256) < 0 {
		return nil, fmt.Errorf("price %s does not fit in int256", price.String())
	}
	if auxiliary != nil && (auxiliary.Sign() < 0 || auxiliary.Cmp(maxUint256) > 0) {
		return nil, fmt.Errorf("auxiliary %s does not fit in uint256", auxiliary.String())
	}

	buf := make([]byte, EncodedLength)
	buf[0] = EncodingVersion
	buf[offsetVariant] = variant.Code()
	copy(buf[offsetPrevHash:offsetPrice], prev[:])

	p := new(big.Int).Set(price)
	if p.Sign() < 0 {
		p.Add(p, twoTo256)
	}
	p.FillBytes(buf[offsetPrice:offsetTimestamp])

	binary.BigEndian.PutUint64(buf[offsetTimestamp:offsetAuxiliary], timestamp)
	if auxiliary != nil {
		auxiliary.FillBytes(buf[offsetAuxiliary:offsetHeight])
	}
	binary.BigEndian.PutUint64(buf[offsetHeight:], height)

	return buf, nil
}

// FitsInt256 reports whether v can be encoded as a chain price.
func FitsInt256(v *big.Int) bool {
	return v != nil && v.Cmp(maxInt256) <= 0 && v.Cmp(minInt256) >= 0
}
