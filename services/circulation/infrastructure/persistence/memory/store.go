// Package memory keeps the catalog and the loan ledger in process memory.
//
// One Store implements repositories.TxManager, repositories.CatalogStore and
// repositories.LoanLedger, so a transaction spans both. Writes made inside
// RunInTx are staged on the transaction and become visible together at
// commit; LockItem serializes transactions per item. ReadSnapshot holds a
// shared lock over committed state for the duration of fn.
//
// A transaction belongs to the goroutine that started it.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

// DefaultLockTimeout bounds how long LockItem waits for another transaction.
const DefaultLockTimeout = 5 * time.Second

var (
	_ repositories.TxManager    = (*Store)(nil)
	_ repositories.CatalogStore = (*Store)(nil)
	_ repositories.LoanLedger   = (*Store)(nil)
)

// Store is the in-memory circulation storage.
type Store struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*models.Item
	loans  []*models.LoanRecord // insertion order
	byID   map[uuid.UUID]int
	byItem map[uuid.UUID][]int

	locks       *keyedLocks
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets how long LockItem waits. Zero waits until the
// context is done.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		items:       make(map[uuid.UUID]*models.Item),
		byID:        make(map[uuid.UUID]int),
		byItem:      make(map[uuid.UUID][]int),
		locks:       newKeyedLocks(),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ctxKey int

const (
	txKey ctxKey = iota
	snapshotKey
)

// tx holds the writes of one RunInTx call until commit.
type tx struct {
	held    map[uuid.UUID]struct{}
	items   map[uuid.UUID]*models.Item
	created map[uuid.UUID]bool
	removed map[uuid.UUID]bool
	opened  []*models.LoanRecord
	closed  map[uuid.UUID]time.Time
}

func newTx() *tx {
	return &tx{
		held:    make(map[uuid.UUID]struct{}),
		items:   make(map[uuid.UUID]*models.Item),
		created: make(map[uuid.UUID]bool),
		removed: make(map[uuid.UUID]bool),
		closed:  make(map[uuid.UUID]time.Time),
	}
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey).(*tx)
	return t
}

func inSnapshot(ctx context.Context) bool {
	_, ok := ctx.Value(snapshotKey).(bool)
	return ok
}

// RunInTx runs fn in a transaction. Calls made with a ctx already inside a
// transaction join it.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inSnapshot(ctx) {
		return fmt.Errorf("%w: write transaction inside read-only snapshot", domain.ErrStorage)
	}
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := newTx()
	defer s.releaseLocks(t)

	if err := fn(context.WithValue(ctx, txKey, t)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(t)
}

// ReadSnapshot runs fn while committed state cannot change.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil || inSnapshot(ctx) {
		return fn(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, snapshotKey, true))
}

// view runs fn with read access to committed state overlaid by the
// transaction in ctx, if any.
func (s *Store) view(ctx context.Context, fn func(t *tx) error) error {
	if !inSnapshot(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(txFrom(ctx))
}

// write runs fn inside a transaction, starting one when ctx has none.
func (s *Store) write(ctx context.Context, fn func(t *tx) error) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		return s.view(ctx, fn)
	})
}

func (s *Store) releaseLocks(t *tx) {
	for id := range t.held {
		s.locks.release(id)
	}
}

// commitLocked validates t against committed state and applies it. Nothing
// is applied when validation fails.
func (s *Store) commitLocked(t *tx) error {
	for id := range t.items {
		_, exists := s.items[id]
		switch {
		case t.created[id] && exists:
			return domain.ErrItemAlreadyExists
		case !t.created[id] && !exists:
			return domain.ErrItemNotFound
		}
	}
	for id := range t.removed {
		if _, exists := s.items[id]; !exists && !t.created[id] {
			return domain.ErrItemNotFound
		}
	}
	for _, l := range t.opened {
		if _, exists := s.byID[l.ID]; exists {
			return fmt.Errorf("%w: loan record %s already exists", domain.ErrConflict, l.ID)
		}
	}
	for id := range t.closed {
		if i, ok := s.byID[id]; ok && !s.loans[i].IsOpen() {
			return domain.ErrLoanAlreadyClosed
		}
	}

	for id, item := range t.items {
		s.items[id] = item
	}
	for id := range t.removed {
		delete(s.items, id)
	}
	for id, at := range t.closed {
		if i, ok := s.byID[id]; ok {
			l := cloneLoan(s.loans[i])
			l.ClosedAt = &at
			s.loans[i] = l
		}
	}
	for _, l := range t.opened {
		l = t.overlay(l)
		s.byID[l.ID] = len(s.loans)
		s.byItem[l.ItemID] = append(s.byItem[l.ItemID], len(s.loans))
		s.loans = append(s.loans, l)
	}
	return nil
}

// CreateItem stages item for insertion.
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	return s.write(ctx, func(t *tx) error {
		if _, exists := s.lookupItem(t, item.ID); exists || s.items[item.ID] != nil {
			return domain.ErrItemAlreadyExists
		}
		t.items[item.ID] = cloneItem(item)
		t.created[item.ID] = true
		return nil
	})
}

// GetItem returns a copy of the item.
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var out *models.Item
	err := s.view(ctx, func(t *tx) error {
		item, ok := s.lookupItem(t, id)
		if !ok {
			return domain.ErrItemNotFound
		}
		out = cloneItem(item)
		return nil
	})
	return out, err
}

// LockItem takes the item's exclusive lock for the rest of the transaction.
// The lock is taken even when the item does not exist.
func (s *Store) LockItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	t := txFrom(ctx)
	if t == nil {
		return nil, fmt.Errorf("%w: LockItem called outside a transaction", domain.ErrStorage)
	}
	if _, held := t.held[id]; !held {
		lockCtx := ctx
		if s.lockTimeout > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
			defer cancel()
		}
		if err := s.locks.acquire(lockCtx, id); err != nil {
			return nil, fmt.Errorf("%w: lock item %s: %v", domain.ErrStorage, id, err)
		}
		t.held[id] = struct{}{}
	}
	return s.GetItem(ctx, id)
}

// UpdateItem stages the new state of an existing item.
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	return s.write(ctx, func(t *tx) error {
		if _, ok := s.lookupItem(t, item.ID); !ok {
			return domain.ErrItemNotFound
		}
		t.items[item.ID] = cloneItem(item)
		return nil
	})
}

// RemoveItem stages deletion of the item. Its loan records are kept.
func (s *Store) RemoveItem(ctx context.Context, id uuid.UUID) error {
	return s.write(ctx, func(t *tx) error {
		if _, ok := s.lookupItem(t, id); !ok {
			return domain.ErrItemNotFound
		}
		if t.created[id] {
			delete(t.created, id)
			delete(t.items, id)
			return nil
		}
		delete(t.items, id)
		t.removed[id] = true
		return nil
	})
}

// ListItems returns items ordered by creation time, newest first, with ties
// broken by descending id.
func (s *Store) ListItems(ctx context.Context, filter repositories.ItemFilter) ([]*models.Item, int, error) {
	var (
		out   []*models.Item
		total int
	)
	err := s.view(ctx, func(t *tx) error {
		needle := strings.ToLower(filter.Search)
		var matches []*models.Item
		for _, item := range s.visibleItems(t) {
			if needle == "" ||
				strings.Contains(strings.ToLower(item.Title.String()), needle) ||
				strings.Contains(strings.ToLower(item.Author), needle) {
				matches = append(matches, item)
			}
		}
		slices.SortFunc(matches, func(a, b *models.Item) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return bytes.Compare(b.ID[:], a.ID[:])
		})

		total = len(matches)
		page := paginate(matches, filter.QueryOpts)
		out = make([]*models.Item, len(page))
		for i, item := range page {
			out[i] = cloneItem(item)
		}
		return nil
	})
	return out, total, err
}

// OpenLoan stages a new open record.
func (s *Store) OpenLoan(ctx context.Context, loan *models.LoanRecord) error {
	return s.write(ctx, func(t *tx) error {
		if s.lookupLoan(t, loan.ID) != nil {
			return fmt.Errorf("%w: loan record %s already exists", domain.ErrConflict, loan.ID)
		}
		t.opened = append(t.opened, cloneLoan(loan))
		return nil
	})
}

// GetLoan returns a copy of the record.
func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error) {
	var out *models.LoanRecord
	err := s.view(ctx, func(t *tx) error {
		l := s.lookupLoan(t, id)
		if l == nil {
			return domain.ErrLoanNotFound
		}
		out = cloneLoan(l)
		return nil
	})
	return out, err
}

// CloseLoan stages closing record id at closedAt.
func (s *Store) CloseLoan(ctx context.Context, id uuid.UUID, closedAt time.Time) (*models.LoanRecord, error) {
	var out *models.LoanRecord
	err := s.write(ctx, func(t *tx) error {
		l := s.lookupLoan(t, id)
		if l == nil {
			return domain.ErrLoanNotFound
		}
		closed, err := t.close(l, closedAt)
		if err != nil {
			return err
		}
		out = closed
		return nil
	})
	return out, err
}

// CloseMostRecentOpen stages closing the item's newest open record.
func (s *Store) CloseMostRecentOpen(ctx context.Context, itemID uuid.UUID, closedAt time.Time) (*models.LoanRecord, error) {
	var out *models.LoanRecord
	err := s.write(ctx, func(t *tx) error {
		loans := s.itemLoans(t, itemID)
		for i := len(loans) - 1; i >= 0; i-- {
			if loans[i].IsOpen() {
				closed, err := t.close(loans[i], closedAt)
				if err != nil {
					return err
				}
				out = closed
				return nil
			}
		}
		return domain.ErrNoOpenLoan
	})
	return out, err
}

// CountOpen counts the item's open records.
func (s *Store) CountOpen(ctx context.Context, itemID uuid.UUID) (int, error) {
	var n int
	err := s.view(ctx, func(t *tx) error {
		n = countOpen(s.itemLoans(t, itemID))
		return nil
	})
	return n, err
}

// CountOpenByItems counts open records for each of itemIDs.
func (s *Store) CountOpenByItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int)
	err := s.view(ctx, func(t *tx) error {
		for _, id := range itemIDs {
			if n := countOpen(s.itemLoans(t, id)); n > 0 {
				out[id] = n
			}
		}
		return nil
	})
	return out, err
}

// ListByItem returns the item's records newest first.
func (s *Store) ListByItem(ctx context.Context, itemID uuid.UUID, opts repositories.QueryOpts) ([]*models.LoanRecord, error) {
	var out []*models.LoanRecord
	err := s.view(ctx, func(t *tx) error {
		out = newestFirst(s.itemLoans(t, itemID), opts)
		return nil
	})
	return out, err
}

// ListAll returns every record newest first.
func (s *Store) ListAll(ctx context.Context, opts repositories.QueryOpts) ([]*models.LoanRecord, error) {
	var out []*models.LoanRecord
	err := s.view(ctx, func(t *tx) error {
		all := make([]*models.LoanRecord, 0, len(s.loans))
		for _, l := range s.loans {
			all = append(all, t.overlay(l))
		}
		if t != nil {
			for _, l := range t.opened {
				all = append(all, t.overlay(l))
			}
		}
		out = newestFirst(all, opts)
		return nil
	})
	return out, err
}

func (s *Store) lookupItem(t *tx, id uuid.UUID) (*models.Item, bool) {
	if t != nil {
		if t.removed[id] {
			return nil, false
		}
		if item, ok := t.items[id]; ok {
			return item, true
		}
	}
	item, ok := s.items[id]
	return item, ok
}

func (s *Store) visibleItems(t *tx) []*models.Item {
	out := make([]*models.Item, 0, len(s.items))
	for id, item := range s.items {
		if t != nil {
			if t.removed[id] {
				continue
			}
			if staged, ok := t.items[id]; ok {
				item = staged
			}
		}
		out = append(out, item)
	}
	if t != nil {
		for id := range t.created {
			out = append(out, t.items[id])
		}
	}
	return out
}

func (s *Store) lookupLoan(t *tx, id uuid.UUID) *models.LoanRecord {
	if i, ok := s.byID[id]; ok {
		return t.overlay(s.loans[i])
	}
	if t != nil {
		for _, l := range t.opened {
			if l.ID == id {
				return t.overlay(l)
			}
		}
	}
	return nil
}

// itemLoans returns the item's records oldest first as t sees them.
func (s *Store) itemLoans(t *tx, itemID uuid.UUID) []*models.LoanRecord {
	idx := s.byItem[itemID]
	out := make([]*models.LoanRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.overlay(s.loans[i]))
	}
	if t != nil {
		for _, l := range t.opened {
			if l.ItemID == itemID {
				out = append(out, t.overlay(l))
			}
		}
	}
	return out
}

// overlay applies a staged close to l. t may be nil.
func (t *tx) overlay(l *models.LoanRecord) *models.LoanRecord {
	if t == nil || !l.IsOpen() {
		return l
	}
	at, ok := t.closed[l.ID]
	if !ok {
		return l
	}
	c := cloneLoan(l)
	c.ClosedAt = &at
	return c
}

func (t *tx) close(l *models.LoanRecord, at time.Time) (*models.LoanRecord, error) {
	c := cloneLoan(l)
	if err := c.Close(at); err != nil {
		return nil, err
	}
	t.closed[c.ID] = *c.ClosedAt
	return c, nil
}

func countOpen(loans []*models.LoanRecord) int {
	n := 0
	for _, l := range loans {
		if l.IsOpen() {
			n++
		}
	}
	return n
}

func newestFirst(loans []*models.LoanRecord, opts repositories.QueryOpts) []*models.LoanRecord {
	reversed := make([]*models.LoanRecord, len(loans))
	for i, l := range loans {
		reversed[len(loans)-1-i] = l
	}
	page := paginate(reversed, opts)
	out := make([]*models.LoanRecord, len(page))
	for i, l := range page {
		out[i] = cloneLoan(l)
	}
	return out
}

func paginate[T any](xs []T, opts repositories.QueryOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(xs) {
			return nil
		}
		xs = xs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(xs) {
		xs = xs[:opts.Limit]
	}
	return xs
}

func cloneItem(item *models.Item) *models.Item {
	c := *item
	if item.Year != nil {
		y := *item.Year
		c.Year = &y
	}
	return &c
}

func cloneLoan(l *models.LoanRecord) *models.LoanRecord {
	c := *l
	if l.ClosedAt != nil {
		at := *l.ClosedAt
		c.ClosedAt = &at
	}
	return &c
}
