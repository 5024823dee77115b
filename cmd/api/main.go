package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/application/services"
	"price-chain-service/internal/domain/entities"
	"price-chain-service/internal/domain/interfaces"
	"price-chain-service/internal/infrastructure/config"
	"price-chain-service/internal/infrastructure/events"
	"price-chain-service/internal/infrastructure/ledger"
	"price-chain-service/internal/infrastructure/logging"
	"price-chain-service/internal/infrastructure/metrics"
	"price-chain-service/internal/infrastructure/ratelimit"
	"price-chain-service/internal/infrastructure/repositories/store"
	"price-chain-service/internal/infrastructure/scheduler"
	"price-chain-service/internal/infrastructure/sources/evm"
	"price-chain-service/internal/infrastructure/sources/mock"
	"price-chain-service/internal/infrastructure/web/handlers"
	"price-chain-service/internal/infrastructure/web/server"
	"syscall"
	"time"
)

const (
	serviceName    = "price-chain-service"
	serviceVersion = "1.0.0"

	rateLimitCleanupInterval = time.Minute
)

// @title Price Chain Service API
// @version 1.0.0
// @description Auditable price oracle. Every accepted update extends a per-pair keccak256 hash chain that can be replayed from the audit log.
// @host localhost:8080
// @BasePath /
func main() {
	environment := config.GetEnvironment()

	cfg, err := config.NewLoader().LoadForEnvironment(environment)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := initLogging(cfg, environment); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	// Background work stops when ctx is cancelled during shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.SetApplicationInfo(serviceVersion, environment)

	logging.Info(ctx, "Initializing service components", logging.Fields{
		"environment":   environment,
		"store_backend": cfg.Store.Backend,
		"ledger_mode":   cfg.Ledger.Mode,
		"mock_sources":  cfg.Development.MockSources,
		"variants":      cfg.Oracle.Variants,
	})

	backend, err := store.Open(ctx, store.Config{
		Type:            store.Type(cfg.Store.Backend),
		RedisAddr:       cfg.Store.Redis.Addr,
		RedisPassword:   cfg.Store.Redis.Password,
		RedisDB:         cfg.Store.Redis.DB,
		RedisPrefix:     cfg.Store.Redis.Prefix,
		PostgresDSN:     cfg.Store.Postgres.DSN,
		MaxOpenConns:    cfg.Store.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Store.Postgres.MaxIdleConns,
		ConnectAttempts: cfg.Store.ConnectAttempts,
		ConnectDelay:    cfg.Store.ConnectDelay,
	})
	if err != nil {
		fatal(ctx, "Failed to open record store", err)
	}
	defer backend.Close()

	var chain *evm.Client
	if !cfg.Development.MockSources || cfg.Ledger.Mode == "evm" {
		chain, err = evm.Dial(ctx, evm.Config{
			RPCURL:         cfg.Sources.RPCURL,
			FallbackRPCURL: cfg.Sources.FallbackRPCURL,
			PrimaryTimeout: cfg.Sources.PrimaryTimeout,
			DialAttempts:   cfg.Sources.DialAttempts,
		})
		if err != nil {
			fatal(ctx, "Failed to connect to RPC endpoint", err)
		}
		defer chain.Close()
	}

	var resolver interfaces.SourceResolver
	if cfg.Development.MockSources {
		logging.Warn(ctx, "Using synthetic price sources", nil)
		resolver = mock.NewDevelopmentSources()
	} else {
		resolver = evm.NewResolver(chain.Caller())
	}

	var clock interfaces.Ledger
	if cfg.Ledger.Mode == "evm" {
		clock = ledger.NewEVMLedger(chain)
	} else {
		clock = ledger.NewSystemLedger(cfg.Ledger.InitialHeight)
	}

	mapper := dto.NewRecordMapper(displayDecimals(cfg.Oracle.DisplayDecimals))

	hub := events.NewHub(mapper, events.HubConfig{
		SendBuffer:     cfg.Events.SendBuffer,
		AllowedOrigins: cfg.Events.AllowedOrigins,
	})
	var sink events.MultiSink
	if cfg.Events.StreamEnabled {
		sink = append(sink, hub)
	}
	if cfg.Events.LogEvents {
		sink = append(sink, events.LogSink{})
	}

	oracles := make(map[entities.Variant]interfaces.OracleService, len(cfg.Oracle.Variants))
	for _, name := range cfg.Oracle.Variants {
		variant, _ := entities.ParseVariant(name)
		fetcher, ok := services.NewFetcher(variant, resolver)
		if !ok {
			fatal(ctx, "No fetcher for variant", fmt.Errorf("variant %s", name))
		}
		oracles[variant] = services.NewOracleService(fetcher, backend.Store(string(variant), variant), clock, sink, cfg.Oracle.UpdateInterval)
	}

	var keeper *scheduler.Keeper
	if cfg.Keeper.Enabled {
		keeper, err = newKeeper(cfg, oracles)
		if err != nil {
			fatal(ctx, "Failed to configure keeper", err)
		}
		keeper.Start()
	}

	rateLimiter := ratelimit.NewRateLimitMiddleware(cfg.RateLimit)
	if limiters := rateLimiter.Limiters(); limiters != nil {
		limiters.StartCleanup(ctx, rateLimitCleanupInterval, metrics.SetRateLimitClients)
	}

	deps := server.RouterDeps{
		Oracle:    handlers.NewOracleHandler(oracles, mapper, cfg.Sources.CallTimeout),
		Health:    handlers.NewHealthHandler(oracles),
		RateLimit: rateLimiter,
		Auth:      cfg.Auth,
	}
	if cfg.Events.StreamEnabled {
		deps.EventStream = hub
	}

	srv := server.NewServer(server.NewRouter(deps), cfg.Server)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(ctx, "HTTP server failed", err)
		}
	}()

	logging.Info(ctx, "Price chain service is running", logging.Fields{
		"port":           cfg.Server.Port,
		"keeper_enabled": cfg.Keeper.Enabled,
		"event_stream":   cfg.Events.StreamEnabled,
		"auth_enabled":   cfg.Auth.Enabled,
		"rate_limited":   cfg.RateLimit.Enabled,
	})

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info(ctx, "Shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logging.ErrorWithError(shutdownCtx, "Server forced to shutdown", err, nil)
	}
	if keeper != nil {
		if err := keeper.Stop(shutdownCtx); err != nil {
			logging.WarnWithError(shutdownCtx, "Keeper did not finish in time", err, nil)
		}
	}
	hub.Close()
	cancel()

	logging.Info(shutdownCtx, "Server shutdown completed", nil)
}

func initLogging(cfg *config.Config, environment string) error {
	var loggerConfig *logging.LoggerConfig
	switch environment {
	case "production":
		loggerConfig = logging.NewProductionConfig(serviceName, serviceVersion)
	case "development":
		loggerConfig = logging.NewDevelopmentConfig(serviceName, serviceVersion)
	default:
		loggerConfig = logging.NewConfig(serviceName, serviceVersion, environment)
	}

	// Configured level and format win over the environment presets
	loggerConfig = loggerConfig.
		WithLevel(logging.LogLevelFromString(cfg.Logging.Level)).
		WithFormat(logging.LogFormatFromString(cfg.Logging.Format))

	if cfg.Development.DebugMode {
		loggerConfig = loggerConfig.WithLevel(logging.LevelDebug).WithSource(true)
	}

	if cfg.Logging.File != "" {
		loggerConfig = loggerConfig.WithFile(&logging.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		})
	}

	if err := loggerConfig.Validate(); err != nil {
		return err
	}
	return logging.InitializeGlobalLoggers(loggerConfig)
}

func newKeeper(cfg *config.Config, oracles map[entities.Variant]interfaces.OracleService) (*scheduler.Keeper, error) {
	targets := make([]scheduler.Target, 0, len(cfg.Keeper.Targets))
	for _, t := range cfg.Keeper.Targets {
		targets = append(targets, scheduler.Target{Variant: t.Variant, Pair: t.Pair, Source: t.Source})
	}

	if cfg.Keeper.TargetsFile != "" {
		fromFile, err := scheduler.LoadTargets(cfg.Keeper.TargetsFile)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}

	return scheduler.NewKeeper(oracles, targets, cfg.Keeper.Schedule, cfg.Sources.CallTimeout)
}

func displayDecimals(byName map[string]int32) map[entities.Variant]int32 {
	out := make(map[entities.Variant]int32, len(byName))
	for name, decimals := range byName {
		if variant, ok := entities.ParseVariant(name); ok {
			out[variant] = decimals
		}
	}
	return out
}

func fatal(ctx context.Context, message string, err error) {
	logging.ErrorWithError(ctx, message, err, nil)
	os.Exit(1)
}
