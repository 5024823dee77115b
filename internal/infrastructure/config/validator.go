package config

import (
	"fmt"
	"net/url"
	"price-chain-service/internal/domain/entities"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
)

// Validator checks a loaded configuration before anything is wired from it
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the whole configuration
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateStore(config.Store); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}

	if err := v.validateSources(config.Sources, config.Development.MockSources); err != nil {
		return fmt.Errorf("sources config validation failed: %w", err)
	}

	if err := v.validateLedger(config.Ledger, config.Sources); err != nil {
		return fmt.Errorf("ledger config validation failed: %w", err)
	}

	if err := v.validateOracle(config.Oracle); err != nil {
		return fmt.Errorf("oracle config validation failed: %w", err)
	}

	if err := v.validateKeeper(config.Keeper); err != nil {
		return fmt.Errorf("keeper config validation failed: %w", err)
	}

	if err := v.validateRateLimit(config.RateLimit); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := v.validateAuth(config.Auth); err != nil {
		return fmt.Errorf("auth config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	return nil
}

func (v *Validator) validateStore(config StoreConfig) error {
	validBackends := []string{"memory", "redis", "postgres"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid store backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	switch strings.ToLower(config.Backend) {
	case "redis":
		if err := v.validateRedis(config.Redis); err != nil {
			return err
		}
	case "postgres":
		if config.Postgres.DSN == "" {
			return fmt.Errorf("postgres dsn cannot be empty")
		}
		if config.Postgres.MaxOpenConns < 0 || config.Postgres.MaxIdleConns < 0 {
			return fmt.Errorf("postgres connection limits cannot be negative")
		}
	}

	if config.ConnectAttempts > 20 {
		return fmt.Errorf("connect_attempts too high: %d, max 20", config.ConnectAttempts)
	}

	return nil
}

func (v *Validator) validateRedis(config RedisConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	return nil
}

func (v *Validator) validateSources(config SourcesConfig, mockSources bool) error {
	if config.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive, got: %v", config.CallTimeout)
	}

	if mockSources {
		return nil
	}

	if err := v.validateRPCURL(config.RPCURL, "rpc_url"); err != nil {
		return err
	}

	if config.FallbackRPCURL != "" {
		if err := v.validateRPCURL(config.FallbackRPCURL, "fallback_rpc_url"); err != nil {
			return err
		}
		if config.PrimaryTimeout <= 0 {
			return fmt.Errorf("primary_timeout must be positive with a fallback endpoint, got: %v", config.PrimaryTimeout)
		}
		if config.PrimaryTimeout >= config.CallTimeout {
			return fmt.Errorf("primary_timeout (%v) should be less than call_timeout (%v)", config.PrimaryTimeout, config.CallTimeout)
		}
	}

	return nil
}

func (v *Validator) validateLedger(config LedgerConfig, sources SourcesConfig) error {
	switch strings.ToLower(config.Mode) {
	case "system":
		return nil
	case "evm":
		if sources.RPCURL == "" {
			return fmt.Errorf("ledger mode evm requires sources.rpc_url")
		}
		return nil
	default:
		return fmt.Errorf("invalid ledger mode: %s, must be one of: [system evm]", config.Mode)
	}
}

func (v *Validator) validateOracle(config OracleConfig) error {
	if config.UpdateInterval < time.Second {
		return fmt.Errorf("update_interval must be at least 1s, got: %v", config.UpdateInterval)
	}

	// The tick variant observes over the interval, in uint32 seconds
	if config.UpdateInterval/time.Second > 1<<32-1 {
		return fmt.Errorf("update_interval too long: %v", config.UpdateInterval)
	}

	if len(config.Variants) == 0 {
		return fmt.Errorf("variants cannot be empty")
	}

	for _, name := range config.Variants {
		if _, ok := entities.ParseVariant(name); !ok {
			return fmt.Errorf("unknown variant: %s", name)
		}
	}

	for name, decimals := range config.DisplayDecimals {
		if _, ok := entities.ParseVariant(name); !ok {
			return fmt.Errorf("display_decimals names unknown variant: %s", name)
		}
		if decimals < 0 || decimals > 36 {
			return fmt.Errorf("display_decimals for %s must be between 0-36, got: %d", name, decimals)
		}
	}

	return nil
}

func (v *Validator) validateKeeper(config KeeperConfig) error {
	if !config.Enabled {
		return nil
	}

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return fmt.Errorf("invalid keeper schedule %q: %w", config.Schedule, err)
	}

	if len(config.Targets) == 0 && config.TargetsFile == "" {
		return fmt.Errorf("keeper needs targets or a targets_file when enabled")
	}

	for i, target := range config.Targets {
		if _, ok := entities.ParseVariant(target.Variant); !ok {
			return fmt.Errorf("keeper target %d: unknown variant: %s", i, target.Variant)
		}
		if target.Pair == "" {
			return fmt.Errorf("keeper target %d: pair cannot be empty", i)
		}
		if target.Source != "" && !common.IsHexAddress(target.Source) {
			return fmt.Errorf("keeper target %d: invalid source address: %s", i, target.Source)
		}
	}

	return nil
}

func (v *Validator) validateRateLimit(config RateLimitConfig) error {
	if config.Enabled {
		if config.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit requests_per_second must be positive when enabled, got: %v", config.RequestsPerSecond)
		}

		if config.Burst <= 0 {
			return fmt.Errorf("rate_limit burst must be positive when enabled, got: %d", config.Burst)
		}

		if config.Burst > 10000 {
			return fmt.Errorf("rate_limit burst too high: %d, max 10000", config.Burst)
		}

		if config.RequestsPerSecond > 1000 {
			return fmt.Errorf("rate_limit requests_per_second too high: %v, max 1000", config.RequestsPerSecond)
		}
	}

	return nil
}

func (v *Validator) validateAuth(config AuthConfig) error {
	if !config.Enabled {
		return nil
	}
	if config.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty when auth is enabled")
	}
	if config.HeaderName == "" {
		return fmt.Errorf("header_name cannot be empty when auth is enabled")
	}
	return nil
}

func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateRPCURL accepts http(s) and ws(s) endpoints
func (v *Validator) validateRPCURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	validSchemes := []string{"http", "https", "ws", "wss"}
	if !contains(validSchemes, parsedURL.Scheme) {
		return fmt.Errorf("invalid %s scheme: %s, must be one of: %v", fieldName, parsedURL.Scheme, validSchemes)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
