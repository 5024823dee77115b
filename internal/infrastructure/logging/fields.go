package logging

import (
	"context"
	"fmt"
	"time"
)

// Fields are the structured fields attached to a log entry
type Fields map[string]interface{}

// LogLevel is a log severity
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Standard fields
const (
	FieldTimestamp  = "timestamp"
	FieldLevel      = "level"
	FieldMessage    = "message"
	FieldRequestID  = "request_id"
	FieldService    = "service"
	FieldVersion    = "version"
	FieldEnv        = "environment"
	FieldDomain     = "domain"
	FieldSourceCode = "caller"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldDuration   = "duration_ms"
)

// HTTP fields
const (
	FieldHTTPMethod     = "http_method"
	FieldHTTPPath       = "http_path"
	FieldHTTPStatusCode = "http_status_code"
	FieldHTTPUserAgent  = "http_user_agent"
	FieldHTTPRemoteIP   = "http_remote_ip"
)

// Price source fields
const (
	FieldSourceKind    = "source_kind"
	FieldSourceAddress = "source_address"
	FieldSourceMethod  = "source_method"
)

// Store fields
const (
	FieldStoreBackend   = "store_backend"
	FieldStoreNamespace = "store_namespace"
	FieldStoreOperation = "store_operation"
)

// Oracle fields
const (
	FieldVariant   = "variant"
	FieldPair      = "pair"
	FieldPrice     = "price"
	FieldSource    = "source"
	FieldSequence  = "sequence"
	FieldChainHash = "chain_hash"
	FieldErrorKind = "error_kind"
)

// Security fields
const (
	FieldClientIP         = "client_ip"
	FieldSuspiciousReason = "suspicious_reason"
	FieldRateLimit        = "rate_limit"
)

// FieldBuilder builds Fields fluently
type FieldBuilder struct {
	fields Fields
}

func NewFieldBuilder() *FieldBuilder {
	return &FieldBuilder{
		fields: make(Fields),
	}
}

func (fb *FieldBuilder) WithError(err error) *FieldBuilder {
	if err != nil {
		fb.fields[FieldError] = err.Error()
		fb.fields[FieldErrorType] = getErrorType(err)
	}
	return fb
}

// WithDuration adds a duration in milliseconds
func (fb *FieldBuilder) WithDuration(duration time.Duration) *FieldBuilder {
	fb.fields[FieldDuration] = float64(duration.Nanoseconds()) / 1e6
	return fb
}

func (fb *FieldBuilder) WithHTTPInfo(method, path string, statusCode int) *FieldBuilder {
	fb.fields[FieldHTTPMethod] = method
	fb.fields[FieldHTTPPath] = path
	if statusCode != 0 {
		fb.fields[FieldHTTPStatusCode] = statusCode
	}
	return fb
}

func (fb *FieldBuilder) WithUserAgent(userAgent string) *FieldBuilder {
	if userAgent != "" {
		fb.fields[FieldHTTPUserAgent] = userAgent
	}
	return fb
}

func (fb *FieldBuilder) WithRemoteIP(ip string) *FieldBuilder {
	if ip != "" {
		fb.fields[FieldHTTPRemoteIP] = ip
	}
	return fb
}

func (fb *FieldBuilder) WithSourceCall(kind, address, method string) *FieldBuilder {
	fb.fields[FieldSourceKind] = kind
	fb.fields[FieldSourceAddress] = address
	fb.fields[FieldSourceMethod] = method
	return fb
}

func (fb *FieldBuilder) WithStore(backend, namespace string) *FieldBuilder {
	fb.fields[FieldStoreBackend] = backend
	if namespace != "" {
		fb.fields[FieldStoreNamespace] = namespace
	}
	return fb
}

// WithPair adds the engine variant and pair
func (fb *FieldBuilder) WithPair(variant, pair string) *FieldBuilder {
	if variant != "" {
		fb.fields[FieldVariant] = variant
	}
	fb.fields[FieldPair] = pair
	return fb
}

func (fb *FieldBuilder) WithCustomField(key string, value interface{}) *FieldBuilder {
	if key != "" && value != nil {
		fb.fields[key] = value
	}
	return fb
}

// Build returns the collected fields, or nil if there are none
func (fb *FieldBuilder) Build() Fields {
	if len(fb.fields) == 0 {
		return nil
	}
	return fb.fields
}

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	StartTimeKey contextKey = "start_time"
	UserAgentKey contextKey = "user_agent"
	RemoteIPKey  contextKey = "remote_ip"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, startTime)
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, UserAgentKey, userAgent)
}

func WithRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetStartTime(ctx context.Context) time.Time {
	if ctx == nil {
		return time.Time{}
	}
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

func GetUserAgent(ctx context.Context) string {
	if userAgent, ok := ctx.Value(UserAgentKey).(string); ok {
		return userAgent
	}
	return ""
}

func GetRemoteIP(ctx context.Context) string {
	if remoteIP, ok := ctx.Value(RemoteIPKey).(string); ok {
		return remoteIP
	}
	return ""
}

// getErrorType returns the dynamic type of err, e.g. "*entities.OracleError"
func getErrorType(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%T", err)
}
