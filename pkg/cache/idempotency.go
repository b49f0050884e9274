package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/circulationledger/pkg/idempotency"
)

const idempotencyPrefix = "circulation:idem:"

// IdempotencyStore keeps idempotency records in Redis. It implements
// idempotency.Store.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore returns a store backed by r.
func NewIdempotencyStore(r *RedisClient) *IdempotencyStore {
	return &IdempotencyStore{client: r.Client()}
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

// Reserve claims key with SET NX. When the key already exists the stored
// record decides the outcome. A record that expires between the two calls is
// claimed on the second attempt.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, fingerprint string, pendingTTL time.Duration) (idempotency.Reservation, error) {
	pending, err := json.Marshal(idempotency.Record{Fingerprint: fingerprint, Pending: true})
	if err != nil {
		return idempotency.Reservation{}, fmt.Errorf("marshal pending record: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, pending, pendingTTL).Result()
		if err != nil {
			return idempotency.Reservation{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if ok {
			return idempotency.Reservation{Outcome: idempotency.Reserved}, nil
		}

		raw, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
		if IsMiss(err) {
			continue
		}
		if err != nil {
			return idempotency.Reservation{}, fmt.Errorf("read idempotency key: %w", err)
		}

		var rec idempotency.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return idempotency.Reservation{}, fmt.Errorf("decode idempotency record: %w", err)
		}
		return rec.Resolve(fingerprint), nil
	}

	return idempotency.Reservation{Outcome: idempotency.InFlight}, nil
}

// Complete overwrites the pending claim with the final response.
func (s *IdempotencyStore) Complete(ctx context.Context, key, fingerprint string, resp idempotency.Response, ttl time.Duration) error {
	raw, err := json.Marshal(idempotency.Record{Fingerprint: fingerprint, Response: &resp})
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, idempotencyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release deletes key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
