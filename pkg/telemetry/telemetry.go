package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ghuser/circulationledger/pkg/config"
)

// ServiceNamespace groups the api and worker processes in telemetry backends.
const ServiceNamespace = "library"

// Resource attribute keys specific to the ledger.
const (
	AttrComponent     = attribute.Key("circulation.component")
	AttrStorageDriver = attribute.Key("circulation.storage.driver")
)

// Shutdown flushes and stops all OTel providers
type Shutdown func(context.Context) error

// Option customizes Setup and SetupSentry.
type Option func(*options)

type options struct {
	component string
}

// WithComponent names the process ("api", "worker") on every span, metric and
// Sentry event.
func WithComponent(name string) Option {
	return func(o *options) { o.component = name }
}

func newOptions(opts []Option) options {
	o := options{component: "api"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Setup initializes OTel trace and metric providers and installs the W3C
// trace-context propagator used by HTTP handlers and outbox messages.
// Traces are sampled at cfg.TraceSampleRatio unless the caller's span was
// already sampled. A Prometheus reader is always registered; OTLP exporters
// are added only when cfg.OtelEndpoint is non-empty.
func Setup(ctx context.Context, cfg *config.Config, opts ...Option) (Shutdown, http.Handler, error) {
	res, err := newResource(ctx, cfg, newOptions(opts))
	if err != nil {
		return nil, nil, err
	}

	// --- Traces ---
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSampleRatio))),
	}
	if cfg.OtelEndpoint != "" {
		traceExp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OtelEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("otel trace exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(traceExp))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// --- Metrics ---
	promExp, err := promexporter.New()
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mpOpts := []sdkmetric.Option{
		sdkmetric.WithReader(promExp),
		sdkmetric.WithResource(res),
	}
	if cfg.OtelEndpoint != "" {
		metricExp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.OtelEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("otel metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			wrap("trace provider shutdown", tp.Shutdown(ctx)),
			wrap("meter provider shutdown", mp.Shutdown(ctx)),
		)
	}
	return shutdown, promhttp.Handler(), nil
}

// newResource describes this process. OTEL_RESOURCE_ATTRIBUTES may add to it;
// a detector that fails only partially does not stop startup.
func newResource(ctx context.Context, cfg *config.Config, o options) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", ServiceNamespace),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment.name", cfg.Environment),
			AttrComponent.String(o.component),
			AttrStorageDriver.String(cfg.StorageDriver),
		),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, fmt.Errorf("otel resource: %w", err)
	}
	return res, nil
}

func wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
