package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"guardian-audit/internal/api"
	"guardian-audit/internal/api/handlers"
	apimiddleware "guardian-audit/internal/api/middleware"
	"guardian-audit/internal/config"
	"guardian-audit/internal/domain/models"
	"guardian-audit/internal/domain/services"
	"guardian-audit/internal/grpc/health"
	"guardian-audit/internal/infrastructure/cache"
	"guardian-audit/internal/infrastructure/database"
	"guardian-audit/internal/infrastructure/database/repository"
	"guardian-audit/internal/infrastructure/refdb"
	"guardian-audit/internal/metrics"
	"guardian-audit/internal/streaming"
	"guardian-audit/internal/watcher"
	"guardian-audit/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting guardian audit daemon")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Report storage and rate limiting
	reports, rateLimit, err := initStores(ctx, cfg, db, redisCache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize report storage")
	}

	// Reference database
	var remote refdb.DatasetLoader
	if db != nil {
		refRepo := repository.NewReferenceRepository(db.Pool())
		if err := refRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare reference schema")
		}
		remote = refRepo
	}
	reference, err := refdb.Load(ctx, cfg.Reference, remote, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load reference database")
	}

	promMetrics := metrics.NewPrometheusMetrics()
	promMetrics.SetReferenceStats(reference.Stats())

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event publishing")
			natsPublisher = nil
		} else {
			defer natsPublisher.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)

	// Audit engine
	observer := services.MultiObserver{
		services.NewLogObserver(log),
		promMetrics,
		streaming.NewEventBusPublisher(eventBus, wsHub, models.RiskHigh, log),
	}
	scanner, err := buildScanner(cfg.Audit, reference, observer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scanner")
	}
	mode, _ := models.ParseAuditMode(cfg.Audit.Mode)

	log.Info().
		Str("policy", scanner.Policy().Name()).
		Str("mode", string(mode)).
		Msg("audit engine ready")

	// Snapshot inbox
	if cfg.Watcher.Enabled {
		processor := watcher.NewInboxProcessor(scanner, mode, cfg.Watcher.OutboxDir, reports, log)
		inbox, err := watcher.NewInbox(cfg.Watcher.InboxDir, processor, cfg.Watcher.Debounce, log)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.Watcher.InboxDir).Msg("failed to watch snapshot inbox")
		}
		inbox.Start(ctx)
		defer inbox.Stop()
	}

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Version:     cfg.App.Version,
		DefaultMode: mode,
		Locale:      models.Locale(cfg.Audit.Locale),
		Scanner:     scanner,
		System:      services.NewSystemAuditor(log),
		Reference:   reference,
		Reports:     reports,
		Cache:       redisCache,
		Postgres:    db,
		WSHub:       wsHub,
		EventBus:    eventBus,
		Logger:      log,
	})

	// Create router
	router := api.NewRouter(*cfg, h, rateLimit, promMetrics, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC health server
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	deps := make(map[string]health.Pinger)
	if db != nil {
		deps["postgres"] = db
	}
	if redisCache != nil {
		deps["redis"] = redisCache
	}
	checker := health.NewChecker(deps, health.DefaultInterval, log)
	checker.Register(grpcServer)
	go checker.Run(ctx)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects the optional Postgres and Redis backends. A
// backend that cannot be reached is logged and left nil.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	var db *database.PostgresDB
	if cfg.Database.Enabled || cfg.Reference.Postgres {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, using in-memory stores")
			redisCache = nil
		}
	}

	return db, redisCache
}

// initStores picks report storage and the rate limit backend from whichever
// infrastructure is available
func initStores(ctx context.Context, cfg *config.Config, db *database.PostgresDB, redisCache *cache.RedisCache, log *logger.Logger) (cache.ReportStore, apimiddleware.RateLimitStore, error) {
	var stores cache.MultiReportStore
	var rateLimit apimiddleware.RateLimitStore

	if redisCache != nil {
		stores = append(stores, cache.NewRedisReportStore(redisCache, cfg.Redis.ReportTTL))
		rateLimit = redisCache
	} else {
		stores = append(stores, cache.NewMemoryReportStore(0))
		rateLimit = cache.NewMemoryRateLimiter()
	}

	if db != nil {
		reportRepo := repository.NewScanReportRepository(db.Pool())
		if err := reportRepo.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		stores = append(stores, reportRepo)
	}

	log.Info().
		Bool("redis", redisCache != nil).
		Bool("postgres", db != nil).
		Msg("report storage initialized")

	if len(stores) == 1 {
		return stores[0], rateLimit, nil
	}
	return stores, rateLimit, nil
}

// buildScanner wires the configured risk policy into a scanner. Snapshots
// arrive from remote clients, so archive inspection stays inside the
// configured roots.
func buildScanner(cfg config.AuditConfig, reference *refdb.Database, observer services.ScanObserver, log *logger.Logger) (*services.Scanner, error) {
	aggregation, err := services.ParseScoreAggregation(cfg.Aggregation)
	if err != nil {
		return nil, err
	}
	auditor := services.NewAppAuditor(reference, aggregation, log).WithArchiveRoots(cfg.ArchiveRoots...)
	policy, err := services.NewRiskPolicy(cfg.Policy, auditor)
	if err != nil {
		return nil, err
	}
	return services.NewScanner(policy, services.NewSystemAuditor(log), services.ScannerConfig{
		Workers:  cfg.Workers,
		Observer: observer,
	}, log), nil
}
