package logging

import (
	"fmt"
	"sync"
)

// LoggerFactory builds the domain loggers over one base logger
type LoggerFactory struct {
	baseLogger Logger
}

func NewLoggerFactory(config *LoggerConfig) (*LoggerFactory, error) {
	if config == nil {
		config = DefaultConfig()
	}

	baseLogger, err := NewStructuredLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create base logger: %w", err)
	}

	return &LoggerFactory{
		baseLogger: baseLogger,
	}, nil
}

func (f *LoggerFactory) GetBaseLogger() Logger {
	return f.baseLogger
}

func (f *LoggerFactory) UpdateLogLevel(level LogLevel) {
	f.baseLogger.SetLevel(level)
}

// LoggerSet holds one logger per domain
type LoggerSet struct {
	Base     Logger
	HTTP     HTTPLogger
	Source   SourceLogger
	Store    StoreLogger
	Oracle   OracleLogger
	Security SecurityLogger
}

func (f *LoggerFactory) GetLoggerSet() *LoggerSet {
	return &LoggerSet{
		Base:     f.baseLogger,
		HTTP:     NewHTTPLogger(f.baseLogger),
		Source:   NewSourceLogger(f.baseLogger),
		Store:    NewStoreLogger(f.baseLogger),
		Oracle:   NewOracleLogger(f.baseLogger),
		Security: NewSecurityLogger(f.baseLogger),
	}
}

var (
	globalMu      sync.RWMutex
	globalFactory *LoggerFactory
	globalLoggers *LoggerSet
)

// InitializeGlobalLoggers replaces the process-wide loggers
func InitializeGlobalLoggers(config *LoggerConfig) error {
	factory, err := NewLoggerFactory(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global loggers: %w", err)
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalFactory = factory
	globalLoggers = factory.GetLoggerSet()
	return nil
}

// GetGlobalLoggers returns the process-wide loggers, initializing defaults on first use
func GetGlobalLoggers() *LoggerSet {
	globalMu.RLock()
	loggers := globalLoggers
	globalMu.RUnlock()
	if loggers != nil {
		return loggers
	}

	_ = InitializeGlobalLoggers(DefaultConfig())

	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLoggers
}

func GetGlobalLogger() Logger {
	return GetGlobalLoggers().Base
}

func SetGlobalLogLevel(level LogLevel) {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory != nil {
		globalFactory.UpdateLogLevel(level)
	}
}

// NewDevelopmentConfig is a verbose text configuration for local runs
func NewDevelopmentConfig(service, version string) *LoggerConfig {
	return NewConfig(service, version, "development").
		WithLevel(LevelDebug).
		WithFormat(FormatText).
		WithSource(true)
}

// NewProductionConfig is a JSON configuration at INFO
func NewProductionConfig(service, version string) *LoggerConfig {
	return NewConfig(service, version, "production").
		WithLevel(LevelInfo).
		WithFormat(FormatJSON).
		WithSource(false)
}
