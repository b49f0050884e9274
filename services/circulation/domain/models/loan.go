package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/services/circulation/domain"
)

// LoanStatus is the only stored lending state. A record starts open and is
// closed exactly once.
type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "open"
	LoanStatusClosed LoanStatus = "closed"
)

// LoanRecord is one loan of one copy. Records are never deleted.
type LoanRecord struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	Borrower Borrower
	OpenedAt time.Time
	// ClosedAt is set iff the record is closed.
	ClosedAt *time.Time
}

// NewLoanRecord opens a loan of itemID for borrower at openedAt.
func NewLoanRecord(itemID uuid.UUID, borrower Borrower, openedAt time.Time) *LoanRecord {
	return &LoanRecord{
		ID:       uuid.New(),
		ItemID:   itemID,
		Borrower: borrower,
		OpenedAt: openedAt,
	}
}

// Status derives the record's state from ClosedAt.
func (l *LoanRecord) Status() LoanStatus {
	if l.ClosedAt != nil {
		return LoanStatusClosed
	}
	return LoanStatusOpen
}

// IsOpen reports whether the copy is still out.
func (l *LoanRecord) IsOpen() bool {
	return l.ClosedAt == nil
}

// Close transitions the record to closed. A close time earlier than OpenedAt
// (clock skew between nodes) is raised to OpenedAt.
func (l *LoanRecord) Close(at time.Time) error {
	if !l.IsOpen() {
		return domain.ErrLoanAlreadyClosed
	}
	if at.Before(l.OpenedAt) {
		at = l.OpenedAt
	}
	l.ClosedAt = &at
	return nil
}
