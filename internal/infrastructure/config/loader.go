package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper
type Loader struct {
	v       *viper.Viper
	envFile string
}

// NewLoader creates a new configuration loader instance
func NewLoader() *Loader {
	return &Loader{
		v:       viper.New(),
		envFile: ".env",
	}
}

// Load loads configuration from .env, config files and environment variables,
// in increasing order of precedence.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	l.setupViper()

	if err := l.v.ReadInConfig(); err != nil {
		// Without config.yaml only env vars and defaults apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.overrideWithEnvVars(config)

	return config, nil
}

// loadEnvFile exports variables from .env without overriding the real environment.
func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", l.envFile, err)
	}
	return nil
}

func (l *Loader) setupViper() {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("./configs")
	l.v.AddConfigPath("../configs") // when running from cmd/
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/price-chain")

	// PRICE_CHAIN_SERVER_PORT -> server.port
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("PRICE_CHAIN")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()
}

// bindEnvVars maps conventional unprefixed variables to configuration keys.
// AutomaticEnv only resolves keys viper already knows, so every key that
// should be settable from the environment is bound here too.
func (l *Loader) bindEnvVars() {
	envMappings := map[string][]string{
		"server.port":                    {"PRICE_CHAIN_SERVER_PORT", "PORT"},
		"store.backend":                  {"PRICE_CHAIN_STORE_BACKEND", "STORE_BACKEND"},
		"store.redis.addr":               {"PRICE_CHAIN_STORE_REDIS_ADDR", "REDIS_ADDR"},
		"store.redis.password":           {"PRICE_CHAIN_STORE_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"store.redis.db":                 {"PRICE_CHAIN_STORE_REDIS_DB", "REDIS_DB"},
		"store.postgres.dsn":             {"PRICE_CHAIN_STORE_POSTGRES_DSN", "DATABASE_URL"},
		"sources.rpc_url":                {"PRICE_CHAIN_SOURCES_RPC_URL", "RPC_URL"},
		"sources.fallback_rpc_url":       {"PRICE_CHAIN_SOURCES_FALLBACK_RPC_URL", "FALLBACK_RPC_URL"},
		"sources.call_timeout":           {"PRICE_CHAIN_SOURCES_CALL_TIMEOUT"},
		"ledger.mode":                    {"PRICE_CHAIN_LEDGER_MODE", "LEDGER_MODE"},
		"oracle.update_interval":         {"PRICE_CHAIN_ORACLE_UPDATE_INTERVAL", "UPDATE_INTERVAL"},
		"keeper.enabled":                 {"PRICE_CHAIN_KEEPER_ENABLED", "KEEPER_ENABLED"},
		"keeper.schedule":                {"PRICE_CHAIN_KEEPER_SCHEDULE", "KEEPER_SCHEDULE"},
		"keeper.targets_file":            {"PRICE_CHAIN_KEEPER_TARGETS_FILE", "KEEPER_TARGETS_FILE"},
		"rate_limit.enabled":             {"PRICE_CHAIN_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED"},
		"rate_limit.requests_per_second": {"PRICE_CHAIN_RATE_LIMIT_REQUESTS_PER_SECOND", "RATE_LIMIT_RPS"},
		"rate_limit.burst":               {"PRICE_CHAIN_RATE_LIMIT_BURST", "RATE_LIMIT_BURST"},
		"auth.enabled":                   {"PRICE_CHAIN_AUTH_ENABLED", "AUTH_ENABLED"},
		"auth.api_key":                   {"PRICE_CHAIN_AUTH_API_KEY", "API_KEY"},
		"logging.level":                  {"PRICE_CHAIN_LOGGING_LEVEL", "LOG_LEVEL"},
		"logging.format":                 {"PRICE_CHAIN_LOGGING_FORMAT", "LOG_FORMAT"},
		"logging.file":                   {"PRICE_CHAIN_LOGGING_FILE", "LOG_FILE"},
		"development.mock_sources":       {"PRICE_CHAIN_DEVELOPMENT_MOCK_SOURCES", "MOCK_SOURCES"},
	}

	for configKey, envVars := range envMappings {
		_ = l.v.BindEnv(append([]string{configKey}, envVars...)...)
	}
}

// overrideWithEnvVars handles env vars that need parsing beyond viper's
func (l *Loader) overrideWithEnvVars(config *Config) {
	if variants := os.Getenv("ORACLE_VARIANTS"); variants != "" {
		var clean []string
		for _, v := range strings.Split(variants, ",") {
			v = strings.TrimSpace(strings.ToLower(v))
			if v != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			config.Oracle.Variants = clean
		}
	}

	if devMode := os.Getenv("DEV_MODE"); devMode == "true" || devMode == "1" {
		config.Development.DevMode = true
	}
	if debugMode := os.Getenv("DEBUG_MODE"); debugMode == "true" || debugMode == "1" {
		config.Development.DebugMode = true
	}
}

// LoadForEnvironment loads the base configuration and merges
// config.<environment>.yaml over it when present.
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if environment != "" {
		l.v.SetConfigName(fmt.Sprintf("config.%s", environment))

		if err := l.v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge environment config: %w", err)
			}
		}

		if err := l.v.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal merged config: %w", err)
		}

		l.overrideWithEnvVars(config)
	}

	return config, nil
}

// GetEnvironment determines the current environment from ENV vars
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development"
	}
	return env
}
