package logging

import (
	"context"
	"time"
)

// Logger is the structured logging interface used across the service
type Logger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger tags every entry with a domain
type DomainLogger interface {
	Logger

	Domain() string
}

// HTTPLogger logs inbound HTTP traffic
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64)
	RequestFailed(ctx context.Context, method, path string, statusCode int, err error, duration float64)
}

// SourceLogger logs calls to external price sources
type SourceLogger interface {
	DomainLogger

	CallStarted(ctx context.Context, source, address, method string)
	CallCompleted(ctx context.Context, source, address, method string, duration time.Duration)
	CallFailed(ctx context.Context, source, address, method string, err error, duration time.Duration)
}

// StoreLogger logs record store operations
type StoreLogger interface {
	DomainLogger

	Committed(ctx context.Context, backend, namespace, pair string, sequence uint64)
	CommitRejected(ctx context.Context, backend, namespace, pair string, err error)
	StoreError(ctx context.Context, backend, operation, pair string, err error)
}

// OracleLogger logs the update protocol
type OracleLogger interface {
	DomainLogger

	PairBound(ctx context.Context, variant, pair, source string)
	UpdateAccepted(ctx context.Context, variant, pair, price string, sequence uint64, chainHash string)
	UpdateRejected(ctx context.Context, variant, pair string, kind string, err error)
	VerificationFailed(ctx context.Context, variant, pair, reason string)
}

// SecurityLogger logs security relevant events
type SecurityLogger interface {
	DomainLogger

	RateLimitExceeded(ctx context.Context, clientIP string, endpoint string)
	InvalidRequest(ctx context.Context, clientIP string, reason string)
	SuspiciousActivity(ctx context.Context, clientIP string, activity string)
}
