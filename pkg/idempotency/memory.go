package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Reserve(_ context.Context, key, fingerprint string, pendingTTL time.Duration) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return e.record.Resolve(fingerprint), nil
	}

	s.entries[key] = memoryEntry{
		record:    Record{Fingerprint: fingerprint, Pending: true},
		expiresAt: now.Add(pendingTTL),
	}
	s.evictLocked(now)
	return Reservation{Outcome: Reserved}, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, fingerprint string, resp Response, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		record:    Record{Fingerprint: fingerprint, Response: &resp},
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) evictLocked(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
