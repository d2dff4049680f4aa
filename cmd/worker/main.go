// Package main is the entry point for the certification hub background worker.
//
// The worker owns the periodic tasks:
//   - Retrying PDF rendering for certificates issued without a rendered PDF
//   - Dispatching domain events to their audit handlers
//
// Issuance itself lives in the application layer and is driven by the
// embedding service; the worker keeps the stored state converging (every
// certificate eventually gets its PDF) without blocking any request path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joho/godotenv"

	"github.com/cour-hub/cour-certification-hub/config"
	"github.com/cour-hub/cour-certification-hub/internal/application/eventhandler"
	"github.com/cour-hub/cour-certification-hub/internal/domain/certificate"
	"github.com/cour-hub/cour-certification-hub/internal/domain/shared"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/external/pdfrender"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/messaging"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/postgres"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/persistence/redis"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/scheduler"
	"github.com/cour-hub/cour-certification-hub/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting certification hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	catalogRepo := postgres.NewCatalogRepository(dbConn)

	var certRepo certificate.Repository = postgres.NewCertificateRepository(dbConn)
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureVerificationCache, nil) {
		certRepo = redis.NewCachedCertificateRepository(certRepo, redisCache)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. PDF RENDERER CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	var renderer certificate.Renderer
	pdfEnabled := cfg.Features.IsEnabled(config.FeatureCertificatePDF, nil)
	if pdfEnabled && !cfg.Renderer.Disabled && cfg.Renderer.BaseURL != "" {
		rendererCfg := pdfrender.DefaultClientConfig(cfg.Renderer.BaseURL)
		rendererCfg.APIKey = cfg.Renderer.APIKey
		rendererCfg.Timeout = cfg.Renderer.RequestTimeout
		rendererCfg.MaxRetries = cfg.Renderer.MaxRetries
		rendererCfg.RetryBaseDelay = cfg.Renderer.RetryBaseDelay
		rendererCfg.RetryMaxDelay = cfg.Renderer.RetryMaxDelay
		rendererCfg.BreakerThreshold = cfg.Renderer.CircuitBreakerThreshold
		rendererCfg.BreakerTimeout = cfg.Renderer.CircuitBreakerTimeout
		rendererCfg.Logger = log
		renderer = pdfrender.NewClient(rendererCfg)
		log.Info("renderer client initialized", "base_url", cfg.Renderer.BaseURL)
	} else {
		log.Warn("renderer disabled, certificates will stay unrendered")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EVENT BUS AND DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log

	var eventBus interface {
		shared.EventBus
		Close() error
	}
	if redisCache != nil {
		// Redis present: fan events out to other worker instances too.
		eventBus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			LocalBusConfig: localBusConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis event bus: %w", err)
		}
	} else {
		eventBus = messaging.NewInMemoryEventBus(localBusConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherConfig)

	auditHandler := eventhandler.NewOnCertificateIssuedHandler(log)
	if err := auditHandler.Register(dispatcher); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 9. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sweepEnabled := cfg.Features.IsEnabled(config.FeatureCertificateRetrySweep, nil)
	if cfg.Scheduler.Enabled && sweepEnabled && renderer != nil {
		log.Info("initializing scheduler...")
		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		schedCfg.Timezone = cfg.App.Location
		sched := scheduler.NewScheduler(schedCfg)

		renderJobCfg := jobs.DefaultRenderPendingConfig()
		renderJobCfg.BatchSize = cfg.Scheduler.RenderPendingBatchSize
		renderJobCfg.Timeout = cfg.Scheduler.JobTimeout
		renderJob := jobs.NewRenderPendingCertificatesJob(
			certRepo, catalogRepo, renderer, eventBus, log, renderJobCfg,
		)

		if err := sched.Register(renderJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RenderPendingInterval)); err != nil {
			return fmt.Errorf("failed to register render job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	} else {
		log.Info("scheduler disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("certification hub worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging for the worker.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
