package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func setupTracer() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp
}

func parseLastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = lines[i]
			break
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("failed to parse log line %q: %v", last, err)
	}
	return m
}

func TestInfoContext_WithSpan(t *testing.T) {
	tp := setupTracer()
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	ctx, span := otel.Tracer("test").Start(context.Background(), "borrow")
	defer span.End()

	log.InfoContext(ctx, "loan opened")

	entry := parseLastLine(t, &buf)
	if _, ok := entry["trace_id"]; !ok {
		t.Error("expected trace_id")
	}
	if _, ok := entry["span_id"]; !ok {
		t.Error("expected span_id")
	}
}

func TestInfoContext_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.InfoContext(context.Background(), "no span")

	entry := parseLastLine(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id should not be present without an active span")
	}
}

func TestErrorContext_BindsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug").With("component", "ledger")

	log.ErrorContext(context.Background(), "commit failed", "error", errors.New("boom"), "item_id", "123")

	entry := parseLastLine(t, &buf)
	if entry["component"] != "ledger" {
		t.Errorf("expected component=ledger, got %v", entry["component"])
	}
	if entry["item_id"] != "123" {
		t.Errorf("expected item_id=123, got %v", entry["item_id"])
	}
	if entry["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", entry["error"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("dropped")
	log.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info/debug to be filtered, got %q", buf.String())
	}

	log.Warn("kept")
	if entry := parseLastLine(t, &buf); entry["msg"] != "kept" {
		t.Errorf("expected warn record, got %v", entry)
	}
}

func TestMiddleware_RecordsRouteAndLevel(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success", http.StatusOK, "INFO"},
		{"client error", http.StatusConflict, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, "debug")

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(Middleware(log))
			r.Post("/items/{id}/borrow", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			})

			req := httptest.NewRequest(http.MethodPost, "/items/abc/borrow", http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			entry := parseLastLine(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("expected level %s, got %v", tt.wantLevel, entry["level"])
			}
			if entry["route"] != "/items/{id}/borrow" {
				t.Errorf("expected route pattern, got %v", entry["route"])
			}
			if _, ok := entry["request_id"]; !ok {
				t.Error("expected request_id in request log")
			}
			if entry["bytes"] != float64(2) {
				t.Errorf("expected bytes=2, got %v", entry["bytes"])
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	h := Recovery(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("ledger exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	entry := parseLastLine(t, &buf)
	if entry["msg"] != "panic recovered" {
		t.Errorf("expected panic log, got %v", entry["msg"])
	}
}

func TestNestedSpans(t *testing.T) {
	tp := setupTracer()
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")
	tracer := otel.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "parent")
	log.InfoContext(ctx, "parent log")
	parentEntry := parseLastLine(t, &buf)
	buf.Reset()

	ctx, child := tracer.Start(ctx, "child")
	log.InfoContext(ctx, "child log")
	childEntry := parseLastLine(t, &buf)

	child.End()
	parent.End()

	if parentEntry["trace_id"] != childEntry["trace_id"] {
		t.Errorf("expected same trace_id: %v vs %v", parentEntry["trace_id"], childEntry["trace_id"])
	}
	if parentEntry["span_id"] == childEntry["span_id"] {
		t.Error("expected different span_ids for parent and child")
	}
}
