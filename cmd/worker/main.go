package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/circulationledger/pkg/cache"
	"github.com/ghuser/circulationledger/pkg/config"
	"github.com/ghuser/circulationledger/pkg/events"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/pkg/telemetry"
	"github.com/ghuser/circulationledger/services/circulation/application/subscribers"
	circevents "github.com/ghuser/circulationledger/services/circulation/domain/events"
)

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

	log := logger.New(cfg).With("component", "worker")

	if !cfg.UsesPostgres() {
		log.Error("the worker consumes the PostgreSQL outbox; set STORAGE_DRIVER=postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg, telemetry.WithComponent("worker"))
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg, telemetry.WithComponent("worker")); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	if err := eventBus.InitializeTopics(circevents.Topics()...); err != nil {
		log.Error("failed to initialize event topics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	var stats subscribers.StatsRecorder
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		stats = cache.NewLoanStats(redisClient)
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_URL empty, loan stats projection disabled; events are only audited")
	}

	topics, err := subscribers.Register(ctx, eventBus, subscribers.New(stats, log))
	if err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("event subscribers registered", "topics", topics)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}
