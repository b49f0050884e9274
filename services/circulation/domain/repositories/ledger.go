package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/services/circulation/domain/models"
)

// LoanLedger is the append-mostly record of loans. It enforces per-record
// rules (a record closes once) but not capacity; that belongs to the
// circulation service, which calls it under an item lock.
type LoanLedger interface {
	OpenLoan(ctx context.Context, loan *models.LoanRecord) error

	// GetLoan returns domain.ErrLoanNotFound when the record does not exist.
	GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error)

	// CloseLoan closes the record at closedAt. Returns domain.ErrLoanNotFound
	// or domain.ErrLoanAlreadyClosed.
	CloseLoan(ctx context.Context, id uuid.UUID, closedAt time.Time) (*models.LoanRecord, error)

	// CloseMostRecentOpen closes the newest open record for itemID.
	// Returns domain.ErrNoOpenLoan when every record is closed.
	CloseMostRecentOpen(ctx context.Context, itemID uuid.UUID, closedAt time.Time) (*models.LoanRecord, error)

	CountOpen(ctx context.Context, itemID uuid.UUID) (int, error)

	// CountOpenByItems returns open counts keyed by item; items without open
	// loans are absent from the map.
	CountOpenByItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error)

	// ListByItem and ListAll return records newest first.
	ListByItem(ctx context.Context, itemID uuid.UUID, opts QueryOpts) ([]*models.LoanRecord, error)
	ListAll(ctx context.Context, opts QueryOpts) ([]*models.LoanRecord, error)
}
