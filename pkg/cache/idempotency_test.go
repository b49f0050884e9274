package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/idempotency"
)

func TestIdempotencyStore(t *testing.T) {
	store := NewIdempotencyStore(setupRedis(t))
	ctx := context.Background()

	t.Run("reserve then replay", func(t *testing.T) {
		key := uuid.NewString()
		res, err := store.Reserve(ctx, key, "fp", time.Minute)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.Outcome != idempotency.Reserved {
			t.Fatalf("expected Reserved, got %v", res.Outcome)
		}

		res, err = store.Reserve(ctx, key, "fp", time.Minute)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.Outcome != idempotency.InFlight {
			t.Fatalf("expected InFlight, got %v", res.Outcome)
		}

		resp := idempotency.Response{Status: 201, ContentType: "application/json", Body: []byte(`{"ok":true}`)}
		if err := store.Complete(ctx, key, "fp", resp, time.Minute); err != nil {
			t.Fatalf("complete: %v", err)
		}

		res, err = store.Reserve(ctx, key, "fp", time.Minute)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.Outcome != idempotency.Completed {
			t.Fatalf("expected Completed, got %v", res.Outcome)
		}
		if res.Response.Status != 201 || string(res.Response.Body) != `{"ok":true}` {
			t.Fatalf("unexpected replay: %+v", res.Response)
		}
	})

	t.Run("fingerprint mismatch", func(t *testing.T) {
		key := uuid.NewString()
		if _, err := store.Reserve(ctx, key, "fp-a", time.Minute); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		res, err := store.Reserve(ctx, key, "fp-b", time.Minute)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.Outcome != idempotency.Mismatch {
			t.Fatalf("expected Mismatch, got %v", res.Outcome)
		}
	})

	t.Run("release frees the key", func(t *testing.T) {
		key := uuid.NewString()
		if _, err := store.Reserve(ctx, key, "fp", time.Minute); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if err := store.Release(ctx, key); err != nil {
			t.Fatalf("release: %v", err)
		}
		res, err := store.Reserve(ctx, key, "fp", time.Minute)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if res.Outcome != idempotency.Reserved {
			t.Fatalf("expected Reserved after release, got %v", res.Outcome)
		}
	})
}
