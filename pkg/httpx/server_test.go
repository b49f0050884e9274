package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghuser/circulationledger/pkg/httpx"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestNewRouter_SecurityHeaders(t *testing.T) {
	r := httpx.NewRouter(httpx.ServerConfig{CORSAllowedOrigins: "*"}, httpx.Middlewares{})
	r.Get("/", okHandler)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	checks := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'self'",
	}
	for header, expected := range checks {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("%s: got %q, want %q", header, got, expected)
		}
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected request to pass through, got %d", rr.Code)
	}
}

func TestNewRouter_AppliesMiddlewaresInOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := httpx.NewRouter(httpx.ServerConfig{}, httpx.Middlewares{
		Recovery: mark("recovery"),
		Otel:     mark("otel"),
		Logger:   mark("logger"),
	})
	r.Get("/", okHandler)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := []string{"recovery", "otel", "logger"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order: got %v, want %v", order, want)
	}
}

func TestCORSMiddleware_AllowsIdempotencyKey(t *testing.T) {
	h := httpx.CORSMiddleware("https://desk.library.test")(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/items/1/borrow", http.NoBody)
	req.Header.Set("Origin", "https://desk.library.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://desk.library.test" {
		t.Errorf("allow origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(strings.ToLower(got), "idempotency-key") {
		t.Errorf("allow headers: got %q", got)
	}
}

func TestRequestBodyLimit_WithinLimit(t *testing.T) {
	const limit = 100

	var gotBody []byte
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, limit+1)
		n, _ := r.Body.Read(buf)
		gotBody = buf[:n]
		w.WriteHeader(http.StatusOK)
	})

	h := httpx.RequestBodyLimit(limit)(inner)
	body := strings.NewReader(strings.Repeat("a", 50))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(gotBody) != 50 {
		t.Fatalf("expected 50 bytes read, got %d", len(gotBody))
	}
}

func TestRequestBodyLimit_ExceedsLimit(t *testing.T) {
	const limit int64 = 10

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, limit+5)
		if _, err := r.Body.Read(buf); err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	h := httpx.RequestBodyLimit(limit)(inner)
	body := strings.NewReader(strings.Repeat("x", int(limit)+1))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", body))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}
