package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/circulationledger/docs/swagger"
	"github.com/ghuser/circulationledger/pkg/app"
	"github.com/ghuser/circulationledger/pkg/cache"
	"github.com/ghuser/circulationledger/pkg/config"
	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/pkg/events"
	"github.com/ghuser/circulationledger/pkg/httpx"
	"github.com/ghuser/circulationledger/pkg/idempotency"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/pkg/telemetry"
	circulationApi "github.com/ghuser/circulationledger/services/circulation/application/api"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
	circevents "github.com/ghuser/circulationledger/services/circulation/domain/events"
)

// @title					Circulation Ledger API
// @version				1.0
// @description			Catalog items, lend and return copies, and query availability.
// @termsOfService			http://swagger.io/terms/
// @contact.name			API Support
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	// Telemetry: OTel tracing + metrics
	ctx := context.Background()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg, telemetry.WithComponent("api"))
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg, telemetry.WithComponent("api")); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	a := &app.Application{Config: cfg, Logger: log}
	health := httpx.HealthChecks{}

	if cfg.UsesPostgres() {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, log,
			database.WithMaxOpenConns(cfg.DBMaxOpenConns),
			database.WithLockTimeout(cfg.DBLockTimeout),
		)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
		}
		defer pool.Close() //nolint:errcheck
		log.Info("database pool connected")

		eventBus, err := events.NewEventBusWithForwarder(cfg, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer eventBus.Close() //nolint:errcheck

		// The outbox tables must exist before the first ledger transaction
		// writes into them.
		if err := eventBus.InitializeTopics(circevents.Topics()...); err != nil {
			log.Error("failed to initialize event topics", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		if err := eventBus.StartForwarder(ctx); err != nil {
			log.Error("failed to start event forwarder", "error", err)
			os.Exit(1) //nolint:gocritic
		}

		a.Db = pool
		a.EventBus = eventBus
		health["database"] = pool
		health["events"] = eventBus
	} else {
		log.Warn("using in-memory storage; loans are lost on restart")
	}

	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, idempotency keys are node-local and stats are disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			a.Redis = redisClient
			health["redis"] = redisClient
			log.Info("redis connected")
		}
	}

	svcs := appsvcs.New(a)

	if cfg.SeedSampleItems {
		n, err := svcs.Catalog.Seed(ctx)
		if err != nil {
			log.Error("failed to seed sample items", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		log.Info("sample catalog seeded", "items", n)
	}

	var idemStore idempotency.Store = idempotency.NewMemoryStore()
	if a.Redis != nil {
		idemStore = cache.NewIdempotencyStore(a.Redis)
	}
	idempotent := idempotency.Middleware(idemStore, idempotency.Options{
		TTL:    cfg.IdempotencyTTL,
		Logger: log,
	})

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		},
		httpx.Middlewares{
			Logger:   logger.Middleware(log),
			Recovery: logger.Recovery(log),
			Sentry:   telemetry.SentryMiddleware(),
			Otel:     otelhttp.NewMiddleware(cfg.ServiceName),
		},
	)

	r.Get("/health", httpx.HealthHandler(health))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, svcs, log, idempotent)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// registerRoutes mounts all service routes under /api.
func registerRoutes(r chi.Router, svcs *appsvcs.Services, log logger.Logger, idempotent func(http.Handler) http.Handler) {
	circulationApi.CirculationRoutes(r, svcs, log, idempotent)
}
