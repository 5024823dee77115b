package logging

import (
	"context"
)

// Package-level helpers over the global logger

func Debug(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Debug(ctx, message, fields)
}

func Info(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Info(ctx, message, fields)
}

func Warn(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Warn(ctx, message, fields)
}

func Error(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Error(ctx, message, fields)
}

func InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().InfoWithError(ctx, message, err, fields)
}

func WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().WarnWithError(ctx, message, err, fields)
}

func ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().ErrorWithError(ctx, message, err, fields)
}

// HTTPRequest logs a completed request, reading the duration from fields when present
func HTTPRequest(ctx context.Context, method, path string, statusCode int, fields Fields) {
	duration := float64(0)
	if d, ok := fields[FieldDuration].(float64); ok {
		duration = d
	}
	HTTP().RequestCompleted(ctx, method, path, statusCode, duration)
}

func SetLogLevel(level LogLevel) {
	SetGlobalLogLevel(level)
}

func HTTP() HTTPLogger {
	return GetGlobalLoggers().HTTP
}

func Source() SourceLogger {
	return GetGlobalLoggers().Source
}

func Store() StoreLogger {
	return GetGlobalLoggers().Store
}

func Oracle() OracleLogger {
	return GetGlobalLoggers().Oracle
}

func Security() SecurityLogger {
	return GetGlobalLoggers().Security
}

func Base() Logger {
	return GetGlobalLoggers().Base
}
