package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics for catalog changes. Consumers subscribe via EventBus.Subscribe.
const (
	TopicItemCreated = "item.created"
	TopicItemUpdated = "item.updated"
	TopicItemRemoved = "item.removed"
)

// ItemCreatedEvent is published in the same transaction that catalogs an item.
type ItemCreatedEvent struct {
	EventID     uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version     int       `json:"version"`  // Schema version; increment on breaking changes
	ItemID      uuid.UUID `json:"item_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Year        *int      `json:"year,omitempty"`
	TotalCopies int       `json:"total_copies"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ItemUpdatedEvent carries the item's state after an edit, including copy
// count adjustments.
type ItemUpdatedEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	Version     int       `json:"version"`
	ItemID      uuid.UUID `json:"item_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Year        *int      `json:"year,omitempty"`
	TotalCopies int       `json:"total_copies"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ItemRemovedEvent is published when an item with no open loans is retired.
type ItemRemovedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
