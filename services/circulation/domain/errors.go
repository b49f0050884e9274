package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the circulation context matches exactly
// one of these with errors.Is; the narrower sentinels below wrap them.
var (
	// ErrInvalidInput indicates a missing or malformed required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the item or loan record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExhausted indicates a borrow against an item with no copies left.
	ErrCapacityExhausted = errors.New("no copies available")

	// ErrCapacityConflict indicates a copy count below the number of open loans.
	ErrCapacityConflict = errors.New("total copies below open loans")

	// ErrConflict indicates the request clashes with current lending state.
	ErrConflict = errors.New("conflict")

	// ErrStorage indicates an unexpected failure in the backing store.
	ErrStorage = errors.New("storage error")
)

// Narrow sentinels. Messages follow what circulation desk clients already show.
var (
	ErrInvalidTitle     = fmt.Errorf("%w: title required", ErrInvalidInput)
	ErrInvalidAuthor    = fmt.Errorf("%w: invalid author", ErrInvalidInput)
	ErrInvalidBorrower  = fmt.Errorf("%w: borrower name required", ErrInvalidInput)
	ErrInvalidCopies    = fmt.Errorf("%w: total copies must be a non-negative integer", ErrInvalidInput)
	ErrNoFieldsToUpdate = fmt.Errorf("%w: no fields to update", ErrInvalidInput)

	ErrItemNotFound = fmt.Errorf("item %w", ErrNotFound)
	ErrLoanNotFound = fmt.Errorf("loan record %w", ErrNotFound)
	ErrNoOpenLoan   = fmt.Errorf("no open loan found for this item: %w", ErrNotFound)

	ErrItemHasOpenLoans  = fmt.Errorf("%w: item has open loans", ErrConflict)
	ErrLoanAlreadyClosed = fmt.Errorf("%w: loan record already closed", ErrConflict)
	ErrItemAlreadyExists = fmt.Errorf("%w: item already exists", ErrConflict)
)
