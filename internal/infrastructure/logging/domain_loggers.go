package logging

import (
	"context"
	"time"
)

// BaseDomainLogger adds the domain field to every entry
type BaseDomainLogger struct {
	Logger
	domain string
}

func (dl *BaseDomainLogger) Domain() string {
	return dl.domain
}

func (dl *BaseDomainLogger) withDomain(fields Fields) Fields {
	tagged := make(Fields, len(fields)+1)
	for k, v := range fields {
		tagged[k] = v
	}
	tagged[FieldDomain] = dl.domain
	return tagged
}

func (dl *BaseDomainLogger) logWithDomain(ctx context.Context, level LogLevel, message string, fields Fields) {
	fields = dl.withDomain(fields)

	switch level {
	case LevelDebug:
		dl.Logger.Debug(ctx, message, fields)
	case LevelInfo:
		dl.Logger.Info(ctx, message, fields)
	case LevelWarn:
		dl.Logger.Warn(ctx, message, fields)
	case LevelError:
		dl.Logger.Error(ctx, message, fields)
	}
}

func (dl *BaseDomainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelDebug, message, fields)
}

func (dl *BaseDomainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelInfo, message, fields)
}

func (dl *BaseDomainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelWarn, message, fields)
}

func (dl *BaseDomainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelError, message, fields)
}

func (dl *BaseDomainLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.InfoWithError(ctx, message, err, dl.withDomain(fields))
}

func (dl *BaseDomainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.WarnWithError(ctx, message, err, dl.withDomain(fields))
}

func (dl *BaseDomainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.ErrorWithError(ctx, message, err, dl.withDomain(fields))
}

// HTTPDomainLogger logs inbound HTTP traffic
type HTTPDomainLogger struct {
	*BaseDomainLogger
}

func NewHTTPLogger(baseLogger Logger) HTTPLogger {
	return &HTTPDomainLogger{
		BaseDomainLogger: &BaseDomainLogger{
			Logger: baseLogger,
			domain: "http",
		},
	}
}

func (hl *HTTPDomainLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, 0).
		WithUserAgent(userAgent).
		WithRemoteIP(remoteIP).
		Build()

	hl.Debug(ctx, "HTTP request received", fields)
}

func (hl *HTTPDomainLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	level := LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = LevelWarn
	} else if statusCode >= 500 {
		level = LevelError
	}

	hl.logWithDomain(ctx, level, "HTTP request completed", fields)
}

func (hl *HTTPDomainLogger) RequestFailed(ctx context.Context, method, path string, statusCode int, err error, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	hl.ErrorWithError(ctx, "HTTP request failed", err, fields)
}

// SourceDomainLogger logs calls to price sources
type SourceDomainLogger struct {
	*BaseDomainLogger
}

func NewSourceLogger(baseLogger Logger) SourceLogger {
	return &SourceDomainLogger{
		BaseDomainLogger: &BaseDomainLogger{
			Logger: baseLogger,
			domain: "source",
		},
	}
}

func (sl *SourceDomainLogger) CallStarted(ctx context.Context, source, address, method string) {
	fields := NewFieldBuilder().
		WithSourceCall(source, address, method).
		Build()

	sl.Debug(ctx, "Source call started", fields)
}

func (sl *SourceDomainLogger) CallCompleted(ctx context.Context, source, address, method string, duration time.Duration) {
	fields := NewFieldBuilder().
		WithSourceCall(source, address, method).
		WithDuration(duration).
		Build()

	sl.Debug(ctx, "Source call completed", fields)
}

func (sl *SourceDomainLogger) CallFailed(ctx context.Context, source, address, method string, err error, duration time.Duration) {
	fields := NewFieldBuilder().
		WithSourceCall(source, address, method).
		WithDuration(duration).
		Build()

	sl.WarnWithError(ctx, "Source call failed", err, fields)
}

// StoreDomainLogger logs record store operations
type StoreDomainLogger struct {
	*BaseDomainLogger
}

func NewStoreLogger(baseLogger Logger) StoreLogger {
	return &StoreDomainLogger{
		BaseDomainLogger: &BaseDomainLogger{
			Logger: baseLogger,
			domain: "store",
		},
	}
}

func (sl *StoreDomainLogger) Committed(ctx context.Context, backend, namespace, pair string, sequence uint64) {
	fields := NewFieldBuilder().
		WithStore(backend, namespace).
		WithPair("", pair).
		WithCustomField(FieldSequence, sequence).
		Build()

	sl.Debug(ctx, "Record committed", fields)
}

func (sl *StoreDomainLogger) CommitRejected(ctx context.Context, backend, namespace, pair string, err error) {
	fields := NewFieldBuilder().
		WithStore(backend, namespace).
		WithPair("", pair).
		Build()

	sl.WarnWithError(ctx, "Record commit rejected", err, fields)
}

func (sl *StoreDomainLogger) StoreError(ctx context.Context, backend, operation, pair string, err error) {
	fields := NewFieldBuilder().
		WithStore(backend, "").
		WithCustomField(FieldStoreOperation, operation).
		WithPair("", pair).
		Build()

	sl.ErrorWithError(ctx, "Store operation failed", err, fields)
}

// OracleDomainLogger logs the update protocol
type OracleDomainLogger struct {
	*BaseDomainLogger
}

func NewOracleLogger(baseLogger Logger) OracleLogger {
	return &OracleDomainLogger{
		BaseDomainLogger: &BaseDomainLogger{
			Logger: baseLogger,
			domain: "oracle",
		},
	}
}

func (ol *OracleDomainLogger) PairBound(ctx context.Context, variant, pair, source string) {
	fields := NewFieldBuilder().
		WithPair(variant, pair).
		WithCustomField(FieldSource, source).
		Build()

	ol.Info(ctx, "Pair bound to source", fields)
}

func (ol *OracleDomainLogger) UpdateAccepted(ctx context.Context, variant, pair, price string, sequence uint64, chainHash string) {
	fields := NewFieldBuilder().
		WithPair(variant, pair).
		WithCustomField(FieldPrice, price).
		WithCustomField(FieldSequence, sequence).
		WithCustomField(FieldChainHash, chainHash).
		Build()

	ol.Info(ctx, "Price update accepted", fields)
}

// UpdateRejected logs caller mistakes at WARN and infrastructure failures at ERROR
func (ol *OracleDomainLogger) UpdateRejected(ctx context.Context, variant, pair string, kind string, err error) {
	fields := NewFieldBuilder().
		WithPair(variant, pair).
		WithCustomField(FieldErrorKind, kind).
		Build()

	if kind == "" {
		ol.ErrorWithError(ctx, "Price update failed", err, fields)
		return
	}
	ol.WarnWithError(ctx, "Price update rejected", err, fields)
}

func (ol *OracleDomainLogger) VerificationFailed(ctx context.Context, variant, pair, reason string) {
	fields := NewFieldBuilder().
		WithPair(variant, pair).
		WithCustomField("reason", reason).
		Build()

	ol.Error(ctx, "Audit chain verification failed", fields)
}

// SecurityDomainLogger logs security events
type SecurityDomainLogger struct {
	*BaseDomainLogger
}

func NewSecurityLogger(baseLogger Logger) SecurityLogger {
	return &SecurityDomainLogger{
		BaseDomainLogger: &BaseDomainLogger{
			Logger: baseLogger,
			domain: "security",
		},
	}
}

func (sl *SecurityDomainLogger) RateLimitExceeded(ctx context.Context, clientIP string, endpoint string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("endpoint", endpoint).
		WithCustomField(FieldRateLimit, "exceeded").
		Build()

	sl.Warn(ctx, "Rate limit exceeded", fields)
}

func (sl *SecurityDomainLogger) InvalidRequest(ctx context.Context, clientIP string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("reason", reason).
		Build()

	sl.Warn(ctx, "Invalid request received", fields)
}

func (sl *SecurityDomainLogger) SuspiciousActivity(ctx context.Context, clientIP string, activity string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField(FieldSuspiciousReason, activity).
		Build()

	sl.Warn(ctx, "Suspicious activity detected", fields)
}
