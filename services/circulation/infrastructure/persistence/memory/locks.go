package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// keyedLocks hands out one exclusive lock per item id. Entries are refcounted
// and dropped once nobody holds or waits for them.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uuid.UUID]*keyLock)}
}

// acquire blocks until the lock for id is free or ctx is done.
func (k *keyedLocks) acquire(ctx context.Context, id uuid.UUID) error {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.unrefLocked(id, l)
		k.mu.Unlock()
		return ctx.Err()
	}
}

// release frees a lock previously obtained with acquire.
func (k *keyedLocks) release(id uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[id]
	if !ok {
		return
	}
	<-l.sem
	k.unrefLocked(id, l)
}

func (k *keyedLocks) unrefLocked(id uuid.UUID, l *keyLock) {
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
}

// size reports how many ids currently have holders or waiters.
func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
