package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/circulationledger/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func probe(t *testing.T, checks httpx.HealthChecks) (int, healthBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	httpx.HealthHandler(checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	var body healthBody
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, body
}

func TestHealthHandler(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name       string
		checks     httpx.HealthChecks
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name: "all healthy",
			checks: httpx.HealthChecks{
				"database":  &stubChecker{},
				"redis":     &stubChecker{},
				"event_bus": &stubChecker{},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"database": "ok", "redis": "ok", "event_bus": "ok"},
		},
		{
			name: "database down",
			checks: httpx.HealthChecks{
				"database": &stubChecker{err: down},
				"redis":    &stubChecker{},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "unreachable", "redis": "ok"},
		},
		{
			name: "redis down",
			checks: httpx.HealthChecks{
				"database": &stubChecker{},
				"redis":    &stubChecker{err: down},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "ok", "redis": "unreachable"},
		},
		{
			name:       "nil checkers are skipped",
			checks:     httpx.HealthChecks{"redis": nil},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := probe(t, tt.checks)
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, code)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", body.Status, tt.wantStatus)
			}
			if len(body.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks: got %v, want %v", body.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if body.Checks[name] != want {
					t.Errorf("%s: got %q, want %q", name, body.Checks[name], want)
				}
			}
		})
	}
}

func TestHealthHandler_ContentType(t *testing.T) {
	h := httpx.HealthHandler(httpx.HealthChecks{"database": &stubChecker{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	ct := rr.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json; charset=utf-8")
	}
}
