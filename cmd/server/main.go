package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcustomer "github.com/fincore/customer/internal/application/customer"
	appevent "github.com/fincore/customer/internal/application/event"
	"github.com/fincore/customer/internal/domain/customer"
	"github.com/fincore/customer/internal/domain/shared"
	"github.com/fincore/customer/internal/infrastructure/cache"
	"github.com/fincore/customer/internal/infrastructure/config"
	"github.com/fincore/customer/internal/infrastructure/event"
	"github.com/fincore/customer/internal/infrastructure/logger"
	"github.com/fincore/customer/internal/infrastructure/migration"
	"github.com/fincore/customer/internal/infrastructure/persistence"
	"github.com/fincore/customer/internal/infrastructure/telemetry"
	"github.com/fincore/customer/internal/interfaces/http/handler"
	"github.com/fincore/customer/internal/interfaces/http/middleware"
	"github.com/fincore/customer/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags
var version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := runMigrations(cfg, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis client", zap.Error(err))
		}
	}()

	// Event plumbing: serializer, transactional outbox, in-process bus.
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}

	// Notification delivery is at-least-once from the outbox, so the
	// handler is wrapped with idempotent dedup. Redis backs the dedup
	// store when reachable; otherwise it degrades to per-process memory.
	var idempotencyStore shared.IdempotencyStore
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, using in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = cache.NewRedisIdempotencyStoreWithClient(redisClient, "customer:events")
	}

	notifier := appcustomer.NewNotificationHandler(appcustomer.NewLogNotificationSink(log), log)
	bus.Subscribe(event.NewIdempotentHandler(notifier, idempotencyStore, shared.DefaultIdempotencyConfig(), log))

	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processor = event.NewOutboxProcessor(outboxRepo, serializer, bus, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
		}, log)
		processor.Start(ctx)
	}

	// Repositories and application services.
	gormCustomerRepo := persistence.NewGormCustomerRepository(db.DB)
	gormCustomerRepo.SetOutboxEventSaver(outboxPublisher)
	var customerRepo customer.Repository = cache.NewCachedCustomerRepository(
		gormCustomerRepo, redisClient, cache.DefaultProjectionTTL, log)
	commandRepo := persistence.NewGormCommandRepository(db.DB)

	lifecycleService := appcustomer.NewLifecycleService(customerRepo, commandRepo, log)
	reconciler := appcustomer.NewReconciler(customerRepo, commandRepo, log)
	bootstrap := appcustomer.NewBootstrap(bus, log)
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	engine, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	healthHandler := handler.NewHealthHandler(cfg.App.Name, version, map[string]handler.Pinger{
		"postgres": handler.PingerFunc(func(context.Context) error { return db.Ping() }),
		"redis":    handler.PingerFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
	})
	healthHandler.RegisterRoutes(engine)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewCustomerHandler(lifecycleService, reconciler, bootstrap)).
		Register(handler.NewOutboxHandler(outboxService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if processor != nil {
		processor.Stop()
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// runMigrations applies pending schema migrations on a dedicated connection
// so the migrator's lifecycle never touches the service's pool.
func runMigrations(cfg *config.Config, log *zap.Logger) error {
	migrator, err := migration.NewFromURL(cfg.Database.DSN(), migrationsPath, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			log.Error("failed to close migrator", zap.Error(err))
		}
	}()

	return migrator.Up()
}

func buildEngine(cfg *config.Config, log *zap.Logger) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantCfg))

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	return engine, nil
}
