package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"price-chain-service/internal/domain/entities"
)

// Records and events are stored as JSON. The pair itself is never read back
// from JSON: keys carry it hex-encoded so arbitrary bytes survive.

func encodeRecord(rec *entities.PriceRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*entities.PriceRecord, error) {
	var rec entities.PriceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

func encodeEvent(ev *entities.AuditEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit event: %w", err)
	}
	return data, nil
}

func decodeEvent(pair entities.PairKey, data []byte) (*entities.AuditEvent, error) {
	var ev entities.AuditEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode audit event: %w", err)
	}
	ev.Pair = pair
	return &ev, nil
}

func encodePair(pair entities.PairKey) string {
	return hex.EncodeToString([]byte(pair))
}

func decodePair(s string) (entities.PairKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid stored pair key %q: %w", s, err)
	}
	return entities.PairKey(b), nil
}
