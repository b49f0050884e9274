package subscribers_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/events"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/services/circulation/application/subscribers"
	circevents "github.com/ghuser/circulationledger/services/circulation/domain/events"
)

type fakeStats struct {
	mu      sync.Mutex
	seen    map[uuid.UUID]bool
	borrows map[uuid.UUID]int
	returns map[uuid.UUID]int
	forgot  []uuid.UUID
	err     error
}

func newFakeStats() *fakeStats {
	return &fakeStats{
		seen:    map[uuid.UUID]bool{},
		borrows: map[uuid.UUID]int{},
		returns: map[uuid.UUID]int{},
	}
}

func (f *fakeStats) record(eventID, itemID uuid.UUID, counter map[uuid.UUID]int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	counter[itemID]++
	return true, nil
}

func (f *fakeStats) RecordBorrow(_ context.Context, eventID, itemID uuid.UUID, _ time.Time) (bool, error) {
	return f.record(eventID, itemID, f.borrows)
}

func (f *fakeStats) RecordReturn(_ context.Context, eventID, itemID uuid.UUID, _ time.Time) (bool, error) {
	return f.record(eventID, itemID, f.returns)
}

func (f *fakeStats) Forget(_ context.Context, itemID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgot = append(f.forgot, itemID)
	return f.err
}

func newMessage(t *testing.T, eventID uuid.UUID, payload any) *message.Message {
	t.Helper()
	msg, err := events.NewMessage(context.Background(), eventID, payload)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	return msg
}

func TestLoanEvents_CountOncePerEvent(t *testing.T) {
	ctx := context.Background()
	stats := newFakeStats()
	h := subscribers.New(stats, logger.Nop())
	itemID := uuid.New()
	now := time.Now().UTC()

	opened := circevents.LoanOpenedEvent{EventID: uuid.New(), Version: 1, LoanID: uuid.New(), ItemID: itemID, Borrower: "ada", OpenedAt: now, OccurredAt: now}
	closed := circevents.LoanClosedEvent{EventID: uuid.New(), Version: 1, LoanID: opened.LoanID, ItemID: itemID, OpenedAt: now, ClosedAt: now.Add(time.Hour), OccurredAt: now.Add(time.Hour)}

	for i := 0; i < 2; i++ {
		if err := h.LoanOpened(ctx, newMessage(t, opened.EventID, opened)); err != nil {
			t.Fatalf("loan opened: %v", err)
		}
		if err := h.LoanClosed(ctx, newMessage(t, closed.EventID, closed)); err != nil {
			t.Fatalf("loan closed: %v", err)
		}
	}

	if stats.borrows[itemID] != 1 || stats.returns[itemID] != 1 {
		t.Fatalf("expected 1 borrow and 1 return, got %d and %d", stats.borrows[itemID], stats.returns[itemID])
	}
}

func TestHandlers_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed payload", func(t *testing.T) {
		h := subscribers.New(newFakeStats(), logger.Nop())
		msg := message.NewMessage(uuid.NewString(), []byte("{not json"))
		if err := h.LoanOpened(ctx, msg); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("store failure is retried by the bus", func(t *testing.T) {
		stats := newFakeStats()
		stats.err = errors.New("redis down")
		h := subscribers.New(stats, logger.Nop())
		evt := circevents.LoanOpenedEvent{EventID: uuid.New(), ItemID: uuid.New()}
		if err := h.LoanOpened(ctx, newMessage(t, evt.EventID, evt)); err == nil {
			t.Fatal("expected error to propagate")
		}
	})

	t.Run("no stats store only audits", func(t *testing.T) {
		var buf bytes.Buffer
		h := subscribers.New(nil, logger.NewWithWriter(&buf, "info"))
		evt := circevents.LoanClosedEvent{EventID: uuid.New(), ItemID: uuid.New()}
		if err := h.LoanClosed(ctx, newMessage(t, evt.EventID, evt)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), evt.EventID.String()) {
			t.Fatalf("expected audit line with event id, got %s", buf.String())
		}
	})
}

func TestItemRemoved_ForgetsStats(t *testing.T) {
	stats := newFakeStats()
	h := subscribers.New(stats, logger.Nop())
	evt := circevents.ItemRemovedEvent{EventID: uuid.New(), Version: 1, ItemID: uuid.New(), OccurredAt: time.Now()}

	if err := h.ItemRemoved(context.Background(), newMessage(t, evt.EventID, evt)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats.forgot) != 1 || stats.forgot[0] != evt.ItemID {
		t.Fatalf("expected %s forgotten, got %v", evt.ItemID, stats.forgot)
	}
}

type fakeBus struct {
	topics []string
	fail   string
}

func (b *fakeBus) Subscribe(_ context.Context, topic string, _ func(context.Context, *message.Message) error) (<-chan error, error) {
	if topic == b.fail {
		return nil, errors.New("subscribe failed")
	}
	b.topics = append(b.topics, topic)
	ch := make(chan error)
	close(ch)
	return ch, nil
}

func TestRegister(t *testing.T) {
	h := subscribers.New(newFakeStats(), logger.Nop())

	t.Run("every topic", func(t *testing.T) {
		bus := &fakeBus{}
		topics, err := subscribers.Register(context.Background(), bus, h)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := circevents.Topics()
		sort.Strings(want)
		sort.Strings(topics)
		if strings.Join(topics, ",") != strings.Join(want, ",") {
			t.Fatalf("expected %v, got %v", want, topics)
		}
	})

	t.Run("subscribe failure", func(t *testing.T) {
		bus := &fakeBus{fail: circevents.TopicLoanOpened}
		if _, err := subscribers.Register(context.Background(), bus, h); err == nil {
			t.Fatal("expected error")
		}
	})
}
