// Package subscribers consumes circulation domain events. It keeps the
// per-item lending counters behind GET /items/{id}/stats and writes an audit
// line for every event.
//
// Delivery is at least once, so every handler must tolerate redelivery of
// the same event.
package subscribers

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/events"
	"github.com/ghuser/circulationledger/pkg/logger"
	circevents "github.com/ghuser/circulationledger/services/circulation/domain/events"
)

// StatsRecorder is the projection store. Record methods report whether the
// event was new; duplicates are counted once.
type StatsRecorder interface {
	RecordBorrow(ctx context.Context, eventID, itemID uuid.UUID, at time.Time) (bool, error)
	RecordReturn(ctx context.Context, eventID, itemID uuid.UUID, at time.Time) (bool, error)
	Forget(ctx context.Context, itemID uuid.UUID) error
}

// Bus is the subscribing half of events.EventBus.
type Bus interface {
	Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error)
}

// Handlers holds one handler per topic.
type Handlers struct {
	stats StatsRecorder
	log   logger.Logger
}

// New returns Handlers. A nil stats disables the projection; events are
// then only audited.
func New(stats StatsRecorder, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{stats: stats, log: log}
}

// Routes maps every circulation topic to its handler.
func (h *Handlers) Routes() map[string]func(context.Context, *message.Message) error {
	return map[string]func(context.Context, *message.Message) error{
		circevents.TopicItemCreated: h.ItemCreated,
		circevents.TopicItemUpdated: h.ItemUpdated,
		circevents.TopicItemRemoved: h.ItemRemoved,
		circevents.TopicLoanOpened:  h.LoanOpened,
		circevents.TopicLoanClosed:  h.LoanClosed,
	}
}

// Register subscribes every route on bus and drains subscriber errors in
// the background until ctx ends.
func Register(ctx context.Context, bus Bus, h *Handlers) ([]string, error) {
	var topics []string
	for topic, handler := range h.Routes() {
		errCh, err := bus.Subscribe(ctx, topic, handler)
		if err != nil {
			return nil, err
		}
		go func(topic string) {
			for err := range errCh {
				h.log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(topic)
		topics = append(topics, topic)
	}
	return topics, nil
}

// LoanOpened counts a borrow.
func (h *Handlers) LoanOpened(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[circevents.LoanOpenedEvent](msg)
	if err != nil {
		return err
	}
	h.log.InfoContext(ctx, "audit",
		"topic", circevents.TopicLoanOpened,
		"event_id", evt.EventID,
		"item_id", evt.ItemID,
		"loan_id", evt.LoanID,
		"borrower", evt.Borrower,
	)
	if h.stats == nil {
		return nil
	}
	fresh, err := h.stats.RecordBorrow(ctx, evt.EventID, evt.ItemID, evt.OccurredAt)
	if err != nil {
		return err
	}
	if !fresh {
		h.log.DebugContext(ctx, "duplicate event skipped", "event_id", evt.EventID)
	}
	return nil
}

// LoanClosed counts a return.
func (h *Handlers) LoanClosed(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[circevents.LoanClosedEvent](msg)
	if err != nil {
		return err
	}
	h.log.InfoContext(ctx, "audit",
		"topic", circevents.TopicLoanClosed,
		"event_id", evt.EventID,
		"item_id", evt.ItemID,
		"loan_id", evt.LoanID,
		"loan_duration_s", int64(evt.ClosedAt.Sub(evt.OpenedAt).Seconds()),
	)
	if h.stats == nil {
		return nil
	}
	fresh, err := h.stats.RecordReturn(ctx, evt.EventID, evt.ItemID, evt.OccurredAt)
	if err != nil {
		return err
	}
	if !fresh {
		h.log.DebugContext(ctx, "duplicate event skipped", "event_id", evt.EventID)
	}
	return nil
}

// ItemCreated is audited only.
func (h *Handlers) ItemCreated(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[circevents.ItemCreatedEvent](msg)
	if err != nil {
		return err
	}
	h.log.InfoContext(ctx, "audit",
		"topic", circevents.TopicItemCreated,
		"event_id", evt.EventID,
		"item_id", evt.ItemID,
		"title", evt.Title,
		"total_copies", evt.TotalCopies,
	)
	return nil
}

// ItemUpdated is audited only.
func (h *Handlers) ItemUpdated(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[circevents.ItemUpdatedEvent](msg)
	if err != nil {
		return err
	}
	h.log.InfoContext(ctx, "audit",
		"topic", circevents.TopicItemUpdated,
		"event_id", evt.EventID,
		"item_id", evt.ItemID,
		"total_copies", evt.TotalCopies,
	)
	return nil
}

// ItemRemoved drops the counters of a retired item.
func (h *Handlers) ItemRemoved(ctx context.Context, msg *message.Message) error {
	evt, err := events.Decode[circevents.ItemRemovedEvent](msg)
	if err != nil {
		return err
	}
	h.log.InfoContext(ctx, "audit",
		"topic", circevents.TopicItemRemoved,
		"event_id", evt.EventID,
		"item_id", evt.ItemID,
	)
	if h.stats == nil {
		return nil
	}
	return h.stats.Forget(ctx, evt.ItemID)
}
