package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ghuser/circulationledger/pkg/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		ServiceName:            "circulation-ledger",
		ServiceVersion:         "test",
		Environment:            "testing",
		StorageDriver:          config.StorageMemory,
		TraceSampleRatio:       1,
		SentryTracesSampleRate: 0.2,
		OtelEndpoint:           "", // disabled
	}
}

func TestSetup_NoOtelEndpoint(t *testing.T) {
	shutdown, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected non-nil shutdown")
	}
	if handler == nil {
		t.Fatal("expected non-nil metrics handler")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_MetricsHandlerServesPrometheusFormat(t *testing.T) {
	_, handler, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text/plain content-type, got %q", ct)
	}
}

func TestSetup_InstallsTraceContextPropagator(t *testing.T) {
	shutdown, _, err := Setup(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background()) //nolint:errcheck

	fields := otel.GetTextMapPropagator().Fields()
	found := false
	for _, f := range fields {
		if f == "traceparent" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected traceparent in propagator fields, got %v", fields)
	}
}

func TestSetupSentry_EmptyDSNIsNoop(t *testing.T) {
	if err := SetupSentry(baseConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Must not panic without an initialized client.
	ReportError(context.Background(), errors.New("boom"))
}

func TestNewResource_CarriesServiceIdentity(t *testing.T) {
	res, err := newResource(context.Background(), baseConfig(), newOptions([]Option{WithComponent("worker")}))
	if err != nil {
		t.Fatalf("resource: %v", err)
	}

	want := map[attribute.Key]string{
		"service.name":      "circulation-ledger",
		"service.namespace": ServiceNamespace,
		AttrComponent:       "worker",
		AttrStorageDriver:   config.StorageMemory,
	}
	for key, value := range want {
		got, ok := res.Set().Value(key)
		if !ok || got.AsString() != value {
			t.Errorf("resource %s = %q, want %q", key, got.AsString(), value)
		}
	}
}

func TestSentryOptions(t *testing.T) {
	cfg := baseConfig()
	cfg.SentryDSN = "https://key@example.invalid/1"

	opts := sentryOptions(cfg, newOptions(nil))
	if opts.Release != "circulation-ledger@test" {
		t.Errorf("unexpected release %q", opts.Release)
	}
	if opts.TracesSampleRate != 0.2 {
		t.Errorf("unexpected traces sample rate %v", opts.TracesSampleRate)
	}
	if opts.Tags[string(AttrComponent)] != "api" || opts.Tags[string(AttrStorageDriver)] != config.StorageMemory {
		t.Errorf("unexpected tags %v", opts.Tags)
	}
}
