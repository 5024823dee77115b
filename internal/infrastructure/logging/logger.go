package logging

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// StructuredLogger implements Logger on top of logrus
type StructuredLogger struct {
	mu     sync.RWMutex
	config *LoggerConfig
	logger *logrus.Logger
}

// NewStructuredLogger builds a logger from config
func NewStructuredLogger(config *LoggerConfig) (*StructuredLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	base := logrus.New()
	base.SetOutput(outputFor(config))
	base.SetLevel(toLogrusLevel(config.Level))

	switch config.Format {
	case FormatText:
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  FieldTimestamp,
				logrus.FieldKeyLevel: FieldLevel,
				logrus.FieldKeyMsg:   FieldMessage,
			},
		})
	}

	return &StructuredLogger{
		config: config,
		logger: base,
	}, nil
}

// outputFor returns the rotating file writer when configured, else config.Output
func outputFor(config *LoggerConfig) io.Writer {
	if config.File != nil && config.File.Path != "" {
		return &lumberjack.Logger{
			Filename:   config.File.Path,
			MaxSize:    config.File.MaxSizeMB,
			MaxBackups: config.File.MaxBackups,
			MaxAge:     config.File.MaxAgeDays,
			Compress:   config.File.Compress,
		}
	}
	return config.Output
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (sl *StructuredLogger) log(ctx context.Context, level LogLevel, message string, fields Fields) {
	entry := sl.entry(ctx, fields)

	switch level {
	case LevelDebug:
		entry.Debug(message)
	case LevelWarn:
		entry.Warn(message)
	case LevelError:
		entry.Error(message)
	default:
		entry.Info(message)
	}
}

// entry builds a logrus entry with the service identity, request ID and fields
func (sl *StructuredLogger) entry(ctx context.Context, fields Fields) *logrus.Entry {
	sl.mu.RLock()
	cfg := sl.config
	sl.mu.RUnlock()

	data := logrus.Fields{
		FieldService: cfg.Service,
	}
	if cfg.Version != "" {
		data[FieldVersion] = cfg.Version
	}
	if cfg.Environment != "" {
		data[FieldEnv] = cfg.Environment
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		data[FieldRequestID] = requestID
	}
	if remoteIP := GetRemoteIP(ctx); remoteIP != "" {
		data[FieldHTTPRemoteIP] = remoteIP
	}
	if userAgent := GetUserAgent(ctx); userAgent != "" {
		data[FieldHTTPUserAgent] = userAgent
	}
	if startTime := GetStartTime(ctx); !startTime.IsZero() {
		if _, ok := fields[FieldDuration]; !ok {
			data[FieldDuration] = float64(time.Since(startTime).Nanoseconds()) / 1e6
		}
	}
	if cfg.AddSource {
		if source := callerName(); source != "" {
			data[FieldSourceCode] = source
		}
	}
	for k, v := range fields {
		data[k] = v
	}

	return sl.logger.WithFields(data)
}

// callerName returns the first caller outside this package
func callerName() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "/infrastructure/logging.") {
			name := frame.Function
			if idx := strings.LastIndex(name, "/"); idx != -1 {
				name = name[idx+1:]
			}
			return name
		}
		if !more {
			return ""
		}
	}
}

func (sl *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelDebug, message, fields)
}

func (sl *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelInfo, message, fields)
}

func (sl *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelWarn, message, fields)
}

func (sl *StructuredLogger) Error(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelError, message, fields)
}

func (sl *StructuredLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelInfo, message, enrichWithError(fields, err))
}

func (sl *StructuredLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelWarn, message, enrichWithError(fields, err))
}

func (sl *StructuredLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelError, message, enrichWithError(fields, err))
}

// enrichWithError copies fields and adds the error details
func enrichWithError(fields Fields, err error) Fields {
	if err == nil {
		return fields
	}

	enriched := make(Fields, len(fields)+2)
	for k, v := range fields {
		enriched[k] = v
	}
	enriched[FieldError] = err.Error()
	enriched[FieldErrorType] = getErrorType(err)
	return enriched
}

func (sl *StructuredLogger) SetLevel(level LogLevel) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.config.Level = level
	sl.logger.SetLevel(toLogrusLevel(level))
}

func (sl *StructuredLogger) GetLevel() LogLevel {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.config.Level
}

// GetConfig returns the active configuration
func (sl *StructuredLogger) GetConfig() *LoggerConfig {
	return sl.config
}
