package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Sources     SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Ledger      LedgerConfig      `yaml:"ledger" mapstructure:"ledger"`
	Oracle      OracleConfig      `yaml:"oracle" mapstructure:"oracle"`
	Keeper      KeeperConfig      `yaml:"keeper" mapstructure:"keeper"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Events      EventsConfig      `yaml:"events" mapstructure:"events"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	Backend         string         `yaml:"backend" mapstructure:"backend"`
	Redis           RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Postgres        PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	ConnectAttempts uint           `yaml:"connect_attempts" mapstructure:"connect_attempts"`
	ConnectDelay    time.Duration  `yaml:"connect_delay" mapstructure:"connect_delay"`
}

// RedisConfig contains Redis-specific configuration
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

// PostgresConfig contains PostgreSQL-specific configuration
type PostgresConfig struct {
	DSN          string `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// SourcesConfig configures the RPC endpoints price sources are read through
type SourcesConfig struct {
	RPCURL         string        `yaml:"rpc_url" mapstructure:"rpc_url"`
	FallbackRPCURL string        `yaml:"fallback_rpc_url" mapstructure:"fallback_rpc_url"`
	PrimaryTimeout time.Duration `yaml:"primary_timeout" mapstructure:"primary_timeout"`
	// CallTimeout bounds a whole update when it is started by the API or the keeper.
	CallTimeout  time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	DialAttempts uint          `yaml:"dial_attempts" mapstructure:"dial_attempts"`
}

// LedgerConfig selects where update time and block height come from
type LedgerConfig struct {
	Mode          string `yaml:"mode" mapstructure:"mode"`
	InitialHeight uint64 `yaml:"initial_height" mapstructure:"initial_height"`
}

// OracleConfig contains the update protocol settings
type OracleConfig struct {
	UpdateInterval  time.Duration    `yaml:"update_interval" mapstructure:"update_interval"`
	Variants        []string         `yaml:"variants" mapstructure:"variants"`
	DisplayDecimals map[string]int32 `yaml:"display_decimals" mapstructure:"display_decimals"`
}

// KeeperConfig configures the scheduled refresh
type KeeperConfig struct {
	Enabled     bool           `yaml:"enabled" mapstructure:"enabled"`
	Schedule    string         `yaml:"schedule" mapstructure:"schedule"`
	Targets     []KeeperTarget `yaml:"targets" mapstructure:"targets"`
	TargetsFile string         `yaml:"targets_file" mapstructure:"targets_file"`
}

// KeeperTarget is one pair the keeper refreshes
type KeeperTarget struct {
	Variant string `yaml:"variant" mapstructure:"variant"`
	Pair    string `yaml:"pair" mapstructure:"pair"`
	Source  string `yaml:"source" mapstructure:"source"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	IdleTTL           time.Duration `yaml:"idle_ttl" mapstructure:"idle_ttl"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	HeaderName  string   `yaml:"header_name" mapstructure:"header_name"`
	UnauthPaths []string `yaml:"unauth_paths" mapstructure:"unauth_paths"`
}

// LoggingConfig contains logging system configuration
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// EventsConfig configures audit event publishing
type EventsConfig struct {
	StreamEnabled  bool     `yaml:"stream_enabled" mapstructure:"stream_enabled"`
	SendBuffer     int      `yaml:"send_buffer" mapstructure:"send_buffer"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	LogEvents      bool     `yaml:"log_events" mapstructure:"log_events"`
}

// DevelopmentConfig contains development and testing switches
type DevelopmentConfig struct {
	MockSources bool `yaml:"mock_sources" mapstructure:"mock_sources"`
	DebugMode   bool `yaml:"debug_mode" mapstructure:"debug_mode"`
	DevMode     bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				DB:     0,
				Prefix: "price-chain",
			},
			Postgres: PostgresConfig{
				MaxOpenConns: 10,
				MaxIdleConns: 5,
			},
			ConnectAttempts: 5,
			ConnectDelay:    500 * time.Millisecond,
		},
		Sources: SourcesConfig{
			PrimaryTimeout: 5 * time.Second,
			CallTimeout:    20 * time.Second,
			DialAttempts:   3,
		},
		Ledger: LedgerConfig{
			Mode: "system",
		},
		Oracle: OracleConfig{
			UpdateInterval: 24 * time.Hour,
			Variants:       []string{"twap", "feed"},
			DisplayDecimals: map[string]int32{
				"feed": 8,
			},
		},
		Keeper: KeeperConfig{
			Enabled:  false,
			Schedule: "@every 1h",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             100,
			IdleTTL:           10 * time.Minute,
		},
		Auth: AuthConfig{
			Enabled:     false,
			HeaderName:  "X-API-Key",
			UnauthPaths: []string{"/health", "/ready", "/metrics", "/swagger/"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Events: EventsConfig{
			StreamEnabled: true,
			SendBuffer:    256,
			LogEvents:     true,
		},
		Development: DevelopmentConfig{
			MockSources: false,
			DebugMode:   false,
			DevMode:     false,
		},
	}
}
