// Package services contains stateless domain services for the circulation
// bounded context. They decide whether a lending transition is allowed from
// counts already read inside a transaction, and touch no storage themselves.
package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
)

// CheckBorrow allows a borrow only while a copy is free.
func CheckBorrow(a models.Availability) error {
	if a.OpenLoans >= a.TotalCopies {
		return domain.ErrCapacityExhausted
	}
	return nil
}

// CheckCopiesChange validates a new copy count against the open loans it
// must still cover. Increases are always allowed.
func CheckCopiesChange(newTotal, openLoans int) error {
	if newTotal < 0 {
		return domain.ErrInvalidCopies
	}
	if newTotal < openLoans {
		return fmt.Errorf("%w: %d copies requested, %d on loan", domain.ErrCapacityConflict, newTotal, openLoans)
	}
	return nil
}

// CheckRemoval rejects retiring an item while copies are out.
func CheckRemoval(openLoans int) error {
	if openLoans > 0 {
		return fmt.Errorf("%w (%d open)", domain.ErrItemHasOpenLoans, openLoans)
	}
	return nil
}

// CheckReturn validates an explicit record before closing it. A record of a
// different item is reported as not found for this item.
func CheckReturn(loan *models.LoanRecord, itemID uuid.UUID) error {
	if loan.ItemID != itemID {
		return domain.ErrLoanNotFound
	}
	if !loan.IsOpen() {
		return domain.ErrLoanAlreadyClosed
	}
	return nil
}

// CheckInvariants reports the first broken bound on a, if any.
func CheckInvariants(a models.Availability) error {
	switch {
	case a.TotalCopies < 0:
		return fmt.Errorf("item %s: negative total copies %d", a.ItemID, a.TotalCopies)
	case a.OpenLoans < 0:
		return fmt.Errorf("item %s: negative open loans %d", a.ItemID, a.OpenLoans)
	case a.Available() < 0:
		return fmt.Errorf("item %s: %d open loans exceed %d copies", a.ItemID, a.OpenLoans, a.TotalCopies)
	}
	return nil
}
