package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/events"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	domainsvcs "github.com/ghuser/circulationledger/services/circulation/domain/services"
)

// LoanResult is a loan record together with the item's availability right
// after the change, read in the same transaction.
type LoanResult struct {
	Loan         *models.LoanRecord
	Availability models.Availability
}

// CirculationService performs every transition that changes how many copies
// of an item are out. Each runs in one transaction under the item's lock, so
// concurrent calls on the same item are serialized and capacity checks see
// the counts they act on.
type CirculationService struct {
	*deps
}

// Borrow opens a loan of one copy of itemID for borrower. Returns
// ErrCapacityExhausted when every copy is out; callers are not retried.
func (s *CirculationService) Borrow(ctx context.Context, itemID uuid.UUID, borrower string) (_ *LoanResult, err error) {
	ctx, span := s.tracer.Start(ctx, "CirculationService.Borrow",
		trace.WithAttributes(attribute.String("item.id", itemID.String())))
	defer func() {
		s.count(ctx, s.borrows, err)
		endSpan(span, err)
	}()

	name, err := parseBorrower(borrower)
	if err != nil {
		return nil, err
	}

	var result *LoanResult
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err := s.Catalog.LockItem(ctx, itemID)
		if err != nil {
			return err
		}
		open, err := s.Ledger.CountOpen(ctx, itemID)
		if err != nil {
			return err
		}
		avail := models.Availability{ItemID: itemID, TotalCopies: item.TotalCopies, OpenLoans: open}
		if err := domainsvcs.CheckBorrow(avail); err != nil {
			return err
		}

		loan := models.NewLoanRecord(itemID, name, s.now())
		if err := s.Ledger.OpenLoan(ctx, loan); err != nil {
			return err
		}
		avail.OpenLoans++
		result = &LoanResult{Loan: loan, Availability: avail}

		evt := events.LoanOpenedEvent{
			EventID:    uuid.New(),
			Version:    eventVersion,
			LoanID:     loan.ID,
			ItemID:     itemID,
			Borrower:   loan.Borrower.String(),
			OpenedAt:   loan.OpenedAt,
			OccurredAt: loan.OpenedAt,
		}
		return s.record(ctx, events.TopicLoanOpened, evt.EventID, evt)
	})
	if err != nil {
		s.log.InfoContext(ctx, "borrow rejected", "item_id", itemID, "outcome", outcome(err), "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("loan.id", result.Loan.ID.String()))
	s.log.InfoContext(ctx, "loan opened",
		"item_id", itemID,
		"loan_id", result.Loan.ID,
		"available", result.Availability.Available(),
	)
	return result, nil
}

// Return closes a loan of itemID. With a recordID that record is closed; it
// must belong to itemID and still be open. Without one the most recently
// opened open record is closed.
func (s *CirculationService) Return(ctx context.Context, itemID uuid.UUID, recordID *uuid.UUID) (_ *LoanResult, err error) {
	ctx, span := s.tracer.Start(ctx, "CirculationService.Return",
		trace.WithAttributes(attribute.String("item.id", itemID.String())))
	defer func() {
		s.count(ctx, s.returns, err)
		endSpan(span, err)
	}()

	var result *LoanResult
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err := s.Catalog.LockItem(ctx, itemID)
		if err != nil {
			return err
		}

		now := s.now()
		var closed *models.LoanRecord
		if recordID != nil {
			loan, err := s.Ledger.GetLoan(ctx, *recordID)
			if err != nil {
				return err
			}
			if err := domainsvcs.CheckReturn(loan, itemID); err != nil {
				return err
			}
			if closed, err = s.Ledger.CloseLoan(ctx, loan.ID, now); err != nil {
				return err
			}
		} else {
			if closed, err = s.Ledger.CloseMostRecentOpen(ctx, itemID, now); err != nil {
				return err
			}
		}

		open, err := s.Ledger.CountOpen(ctx, itemID)
		if err != nil {
			return err
		}
		result = &LoanResult{
			Loan:         closed,
			Availability: models.Availability{ItemID: itemID, TotalCopies: item.TotalCopies, OpenLoans: open},
		}

		evt := events.LoanClosedEvent{
			EventID:    uuid.New(),
			Version:    eventVersion,
			LoanID:     closed.ID,
			ItemID:     itemID,
			OpenedAt:   closed.OpenedAt,
			ClosedAt:   *closed.ClosedAt,
			OccurredAt: *closed.ClosedAt,
		}
		return s.record(ctx, events.TopicLoanClosed, evt.EventID, evt)
	})
	if err != nil {
		s.log.InfoContext(ctx, "return rejected", "item_id", itemID, "outcome", outcome(err), "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("loan.id", result.Loan.ID.String()))
	s.log.InfoContext(ctx, "loan closed",
		"item_id", itemID,
		"loan_id", result.Loan.ID,
		"available", result.Availability.Available(),
	)
	return result, nil
}

// AdjustCopies sets the item's copy count. Increases always succeed; a count
// below the open loans fails with ErrCapacityConflict and changes nothing.
func (s *CirculationService) AdjustCopies(ctx context.Context, itemID uuid.UUID, newTotal int) (_ *models.ItemView, err error) {
	ctx, span := s.tracer.Start(ctx, "CirculationService.AdjustCopies",
		trace.WithAttributes(
			attribute.String("item.id", itemID.String()),
			attribute.Int("total_copies", newTotal),
		))
	defer func() { endSpan(span, err) }()

	if newTotal < 0 {
		return nil, domain.ErrInvalidCopies
	}
	return s.updateItem(ctx, itemID, UpdateItemInput{TotalCopies: &newTotal})
}

// RemoveItem retires an item that has no copies out. Its loan history stays
// in the ledger.
func (s *CirculationService) RemoveItem(ctx context.Context, itemID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "CirculationService.RemoveItem",
		trace.WithAttributes(attribute.String("item.id", itemID.String())))
	defer func() { endSpan(span, err) }()

	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Catalog.LockItem(ctx, itemID); err != nil {
			return err
		}
		open, err := s.Ledger.CountOpen(ctx, itemID)
		if err != nil {
			return err
		}
		if err := domainsvcs.CheckRemoval(open); err != nil {
			return err
		}
		if err := s.Catalog.RemoveItem(ctx, itemID); err != nil {
			return err
		}

		evt := events.ItemRemovedEvent{
			EventID:    uuid.New(),
			Version:    eventVersion,
			ItemID:     itemID,
			OccurredAt: s.now(),
		}
		return s.record(ctx, events.TopicItemRemoved, evt.EventID, evt)
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "item removed", "item_id", itemID)
	return nil
}

func parseBorrower(s string) (models.Borrower, error) {
	if strings.TrimSpace(s) == "" {
		return "", domain.ErrInvalidBorrower
	}
	b, err := models.NewBorrower(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return b, nil
}
