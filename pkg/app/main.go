package app

import (
	"github.com/ghuser/circulationledger/pkg/cache"
	"github.com/ghuser/circulationledger/pkg/config"
	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/pkg/events"
	"github.com/ghuser/circulationledger/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to the circulation service container and route registration during
// server initialization.
//
// Db, EventBus and Redis are nil when their backends are not configured:
// Db is nil under STORAGE_DRIVER=memory, EventBus is nil whenever Db is, and
// Redis is nil when REDIS_URL is empty or unreachable at startup.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context
// methods and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "loan opened", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to close loan", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config   *config.Config
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient
}
