package logging

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDGenerator generates request IDs of the form {prefix}_{uuid}
type RequestIDGenerator struct {
	prefix string
}

func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{
		prefix: prefix,
	}
}

// Generate returns a random (v4) request ID
func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + uuid.NewString()
}

// GenerateShort returns the first block of a UUID, for space-constrained contexts
func (g *RequestIDGenerator) GenerateShort() string {
	id := uuid.NewString()
	return g.prefix + "_" + id[:strings.Index(id, "-")]
}

var defaultGenerator = NewRequestIDGenerator("req")

func GenerateRequestID() string {
	return defaultGenerator.Generate()
}

// IsValidRequestID accepts IDs produced by GenerateRequestID, used to honor inbound X-Request-ID headers
func IsValidRequestID(id string) bool {
	idx := strings.Index(id, "_")
	if idx <= 0 || idx > 16 {
		return false
	}
	_, err := uuid.Parse(id[idx+1:])
	return err == nil
}
