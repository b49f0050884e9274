package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/circulationledger/pkg/config"
)

// SetupSentry initializes the Sentry SDK. No-ops if DSN is empty.
func SetupSentry(cfg *config.Config, opts ...Option) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	if err := sentry.Init(sentryOptions(cfg, newOptions(opts))); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

func sentryOptions(cfg *config.Config, o options) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		TracesSampleRate: cfg.SentryTracesSampleRate,
		Tags: map[string]string{
			"service.namespace":       ServiceNamespace,
			string(AttrComponent):     o.component,
			string(AttrStorageDriver): cfg.StorageDriver,
		},
	}
}

// SentryFlush flushes buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware returns a net/http middleware that captures panics.
// Repanic: true so the outer Recovery middleware still writes the 500.
func SentryMiddleware() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{Repanic: true})
	return h.Handle
}

// ReportError sends a storage failure to Sentry, tagged with the route that
// hit it, using the request hub when ctx carries one. No-ops when Sentry is
// not initialized.
func ReportError(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if rctx := chi.RouteContext(ctx); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				scope.SetTag("http.route", pattern)
			}
		}
		hub.CaptureException(err)
	})
}
