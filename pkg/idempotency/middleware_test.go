package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghuser/circulationledger/pkg/httpx"
)

type failingStore struct{}

func (failingStore) Reserve(context.Context, string, string, time.Duration) (Reservation, error) {
	return Reservation{}, errors.New("connection refused")
}
func (failingStore) Complete(context.Context, string, string, Response, time.Duration) error {
	return nil
}
func (failingStore) Release(context.Context, string) error { return nil }

func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		httpx.JSON(w, status, map[string]int32{"call": n})
	})
}

func do(t *testing.T, h http.Handler, key, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(httpx.HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_NoKeyPassesThrough(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusCreated))

	do(t, h, "", "/items/1/borrow", `{}`)
	do(t, h, "", "/items/1/borrow", `{}`)

	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestMiddleware_ReplaysCompletedResponse(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusCreated))

	first := do(t, h, "k1", "/items/1/borrow", `{"borrower":"Ann"}`)
	second := do(t, h, "k1", "/items/1/borrow", `{"borrower":"Ann"}`)

	if calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed status 201, got %d", second.Code)
	}
	if second.Header().Get(httpx.HeaderIdempotentReplayed) != "true" {
		t.Error("expected replay header")
	}
	if first.Header().Get(httpx.HeaderIdempotentReplayed) != "" {
		t.Error("first response must not carry replay header")
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("body mismatch: %q vs %q", first.Body.String(), second.Body.String())
	}
	if !strings.HasPrefix(second.Header().Get("Content-Type"), "application/json") {
		t.Errorf("expected json content type, got %q", second.Header().Get("Content-Type"))
	}
}

func TestMiddleware_DifferentBodySameKey(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusCreated))

	do(t, h, "k1", "/items/1/borrow", `{"borrower":"Ann"}`)
	rec := do(t, h, "k1", "/items/1/borrow", `{"borrower":"Bob"}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body httpx.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != CodeKeyReused {
		t.Errorf("expected code %q, got %q", CodeKeyReused, body.Code)
	}
	if calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
}

func TestMiddleware_SameKeyDifferentPath(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusOK))

	do(t, h, "k1", "/items/1/return", `{}`)
	rec := do(t, h, "k1", "/items/2/return", `{}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestMiddleware_InFlight(t *testing.T) {
	store := NewMemoryStore()
	fp := Fingerprint(http.MethodPost, "/items/1/borrow", []byte(`{}`))
	if _, err := store.Reserve(context.Background(), "k1", fp, time.Minute); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var calls int32
	h := Middleware(store, Options{})(countingHandler(&calls, http.StatusCreated))
	rec := do(t, h, "k1", "/items/1/borrow", `{}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run, got %d calls", calls)
	}
}

func TestMiddleware_ServerErrorReleasesKey(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusInternalServerError))

	do(t, h, "k1", "/items/1/borrow", `{}`)
	do(t, h, "k1", "/items/1/borrow", `{}`)

	if calls != 2 {
		t.Fatalf("expected retry after 5xx to reach handler, got %d calls", calls)
	}
}

func TestMiddleware_ClientErrorIsReplayed(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusConflict))

	do(t, h, "k1", "/items/1/borrow", `{}`)
	rec := do(t, h, "k1", "/items/1/borrow", `{}`)

	if calls != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected replayed 409, got %d", rec.Code)
	}
}

func TestMiddleware_StoreUnavailable(t *testing.T) {
	var calls int32
	h := Middleware(failingStore{}, Options{})(countingHandler(&calls, http.StatusCreated))

	rec := do(t, h, "k1", "/items/1/borrow", `{}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run, got %d calls", calls)
	}
}

func TestMiddleware_KeyTooLong(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(countingHandler(&calls, http.StatusCreated))

	rec := do(t, h, strings.Repeat("k", MaxKeyLength+1), "/items/1/borrow", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMiddleware_HandlerSeesBody(t *testing.T) {
	var got string
	h := Middleware(NewMemoryStore(), Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Borrower string `json:"borrower"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body.Borrower
		w.WriteHeader(http.StatusCreated)
	}))

	do(t, h, "k1", "/items/1/borrow", `{"borrower":"Ann"}`)
	if got != "Ann" {
		t.Fatalf("expected handler to read body, got %q", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Complete(ctx, "k1", "fp", Response{Status: 201}, time.Hour); err != nil {
		t.Fatalf("complete: %v", err)
	}
	res, _ := store.Reserve(ctx, "k1", "fp", time.Minute)
	if res.Outcome != Completed {
		t.Fatalf("expected Completed, got %v", res.Outcome)
	}

	now = now.Add(2 * time.Hour)
	res, _ = store.Reserve(ctx, "k1", "fp", time.Minute)
	if res.Outcome != Reserved {
		t.Fatalf("expected Reserved after expiry, got %v", res.Outcome)
	}
}

func TestMiddleware_PanicReleasesKey(t *testing.T) {
	var calls int32
	h := Middleware(NewMemoryStore(), Options{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		httpx.JSON(w, http.StatusCreated, map[string]string{"ok": "yes"})
	}))

	func() {
		defer func() {
			if p := recover(); p != "boom" {
				t.Fatalf("expected the panic to propagate, got %v", p)
			}
		}()
		do(t, h, "k-panic", "/items/1/borrow", `{"borrower":"Ann"}`)
	}()

	retry := do(t, h, "k-panic", "/items/1/borrow", `{"borrower":"Ann"}`)
	if retry.Code != http.StatusCreated {
		t.Fatalf("expected retry to run, got %d: %s", retry.Code, retry.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}
