package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics for ledger changes.
const (
	TopicLoanOpened = "loan.opened"
	TopicLoanClosed = "loan.closed"
)

// LoanOpenedEvent is published in the borrow transaction.
type LoanOpenedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	LoanID     uuid.UUID `json:"loan_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Borrower   string    `json:"borrower"`
	OpenedAt   time.Time `json:"opened_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LoanClosedEvent is published in the return transaction.
type LoanClosedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	LoanID     uuid.UUID `json:"loan_id"`
	ItemID     uuid.UUID `json:"item_id"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Topics lists every topic the circulation context publishes.
func Topics() []string {
	return []string{TopicItemCreated, TopicItemUpdated, TopicItemRemoved, TopicLoanOpened, TopicLoanClosed}
}
