package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientapp "github.com/agency/backend/internal/application/client"
	identityapp "github.com/agency/backend/internal/application/identity"
	ledgerapp "github.com/agency/backend/internal/application/ledger"
	reportapp "github.com/agency/backend/internal/application/report"
	"github.com/agency/backend/internal/infrastructure/auth"
	"github.com/agency/backend/internal/infrastructure/cache"
	"github.com/agency/backend/internal/infrastructure/config"
	"github.com/agency/backend/internal/infrastructure/event"
	"github.com/agency/backend/internal/infrastructure/logger"
	"github.com/agency/backend/internal/infrastructure/migration"
	"github.com/agency/backend/internal/infrastructure/persistence"
	"github.com/agency/backend/internal/infrastructure/scheduler"
	"github.com/agency/backend/internal/infrastructure/telemetry"
	"github.com/agency/backend/internal/interfaces/http/handler"
	"github.com/agency/backend/internal/interfaces/http/middleware"
	"github.com/agency/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting agency backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFromSettings(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFromSettings(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "meter provider", meterProvider.Shutdown)

	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithRedactedSQL(!cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFromSettings(cfg.Telemetry), log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfigFromSettings(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	defer dbMetrics.Stop()

	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	if err := cacheFactory.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}()

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           meterProvider.Meter("agency.business"),
		Logger:          log,
		CollectInterval: cfg.Telemetry.MetricsInterval,
		StatsProvider:   telemetry.NewGormClientStatsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		businessMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
	}
	defer businessMetrics.Stop()

	// Repositories
	b2cRepo := persistence.NewGormB2CClientRepository(db.DB)
	b2bRepo := persistence.NewGormB2BClientRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	eventBus := event.NewInMemoryEventBus(log)
	activityLog := event.NewActivityLogHandler(eventSerializer, log)
	eventBus.Subscribe(activityLog)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered", zap.Strings("activity_log_events", activityLog.EventTypes()))

	// Application services
	passportPolicy, err := clientapp.ParsePassportUniqueness(cfg.Ledger.PassportUniqueness)
	if err != nil {
		log.Fatal("Invalid ledger configuration", zap.Error(err))
	}
	b2cService := clientapp.NewB2CClientService(b2cRepo, transactionRepo, passportPolicy, log)
	b2cService.SetEventPublisher(eventBus)
	b2cService.SetStatusCache(cacheFactory.StatusCache(cfg.Cache.StatusCheckTTL))

	b2bService := clientapp.NewB2BClientService(b2bRepo, b2cRepo, log)
	b2bService.SetEventPublisher(eventBus)

	ledgerService := ledgerapp.NewLedgerService(txScope, b2cRepo, b2bRepo, transactionRepo, log)
	ledgerService.SetIdempotencyStore(cacheFactory.IdempotencyStore(), cfg.Ledger.IdempotencyTTL)
	ledgerService.SetMetrics(businessMetrics)
	ledgerService.SetEventPublisher(eventBus)

	companyService := identityapp.NewCompanyService(companyRepo, b2cRepo, b2bRepo, log)
	companyService.SetEventPublisher(eventBus)
	companyService.SetTrialDays(cfg.Company.TrialDays)

	reportService := reportapp.NewReportService(b2cRepo, b2bRepo)

	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(log)
		if err := jobs.Register(scheduler.NewSubscriptionSweepJob(companyService, log), scheduler.JobConfig{
			Interval:   cfg.Scheduler.SubscriptionSweepInterval,
			Timeout:    cfg.Scheduler.JobTimeout,
			RunOnStart: true,
		}); err != nil {
			log.Fatal("Failed to register subscription sweep", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.Duration("subscription_sweep_interval", cfg.Scheduler.SubscriptionSweepInterval),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("agency.http"), log))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromSettings(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	authChain := []gin.HandlerFunc{
		middleware.PrincipalMiddleware(middleware.PrincipalConfig{
			JWTService:     auth.NewJWTService(cfg.JWT),
			Revocations:    revocationStore(cacheFactory),
			Logger:         log,
		}),
		middleware.TraceAttributes(),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		authChain = append(authChain, middleware.RateLimit(limiter))
	}

	r := router.NewRouter(engine, "v1", authChain...)
	router.RegisterAgencyRoutes(engine, r, router.Handlers{
		B2CClients:   handler.NewB2CClientHandler(b2cService),
		B2BClients:   handler.NewB2BClientHandler(b2bService),
		Transactions: handler.NewTransactionHandler(ledgerService),
		Companies:    handler.NewCompanyHandler(companyService),
		Reports:      handler.NewReportHandler(reportService),
		StatusCheck:  handler.NewStatusCheckHandler(b2cService, businessMetrics),
		Health: handler.NewHealthHandler(version, map[string]handler.Pinger{
			"database": db,
			"cache":    handler.PingerFunc(cacheFactory.Ping),
		}, log),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runMigrations applies pending migrations over a dedicated connection, which
// the migrator closes when done
func runMigrations(cfg config.DatabaseConfig, log *zap.Logger) error {
	path, err := migration.ResolvePath(cfg.MigrationsPath)
	if err != nil {
		return err
	}
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	return migration.RunUp(conn, path, log)
}

func revocationStore(factory *cache.Factory) auth.RevocationStore {
	if client := factory.Client(); client != nil {
		return auth.NewRedisRevocationStore(client)
	}
	return auth.NewInMemoryRevocationStore()
}

func shutdownWithTimeout(log *zap.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
