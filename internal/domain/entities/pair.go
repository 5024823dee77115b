package entities

// PairKey identifies a tracked price series, e.g. "ETH/USD".
// Keys are compared byte for byte; they are never trimmed, upper-cased or otherwise normalized.
type PairKey string

// Validate rejects the empty key.
func (p PairKey) Validate() error {
	if len(p) == 0 {
		return NewOracleError(KindInvalidIdentifier, p, "pair identifier must not be empty", nil)
	}
	return nil
}

func (p PairKey) String() string {
	return string(p)
}

// Variant names the kind of source an engine reads from.
type Variant string

const (
	// VariantCumulativeTick derives a time-weighted price from two cumulative tick readings.
	VariantCumulativeTick Variant = "twap"
	// VariantDiscreteFeed reads the latest answer of a round-based feed.
	VariantDiscreteFeed Variant = "feed"
)

// Code is the byte that identifies the variant inside the chain hash encoding.
func (v Variant) Code() byte {
	switch v {
	case VariantCumulativeTick:
		return 0x01
	case VariantDiscreteFeed:
		return 0x02
	default:
		return 0x00
	}
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	return v.Code() != 0x00
}

// ParseVariant converts a route or config value into a Variant.
func ParseVariant(s string) (Variant, bool) {
	v := Variant(s)
	return v, v.Valid()
}
