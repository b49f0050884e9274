package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNarrowSentinels_MatchTheirKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"ErrInvalidTitle", ErrInvalidTitle, ErrInvalidInput},
		{"ErrInvalidAuthor", ErrInvalidAuthor, ErrInvalidInput},
		{"ErrInvalidBorrower", ErrInvalidBorrower, ErrInvalidInput},
		{"ErrInvalidCopies", ErrInvalidCopies, ErrInvalidInput},
		{"ErrNoFieldsToUpdate", ErrNoFieldsToUpdate, ErrInvalidInput},
		{"ErrItemNotFound", ErrItemNotFound, ErrNotFound},
		{"ErrLoanNotFound", ErrLoanNotFound, ErrNotFound},
		{"ErrNoOpenLoan", ErrNoOpenLoan, ErrNotFound},
		{"ErrItemHasOpenLoans", ErrItemHasOpenLoans, ErrConflict},
		{"ErrLoanAlreadyClosed", ErrLoanAlreadyClosed, ErrConflict},
		{"ErrItemAlreadyExists", ErrItemAlreadyExists, ErrConflict},
	}

	kinds := []error{ErrInvalidInput, ErrNotFound, ErrCapacityExhausted, ErrCapacityConflict, ErrConflict, ErrStorage}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Fatalf("%v does not match its kind %v", tt.err, tt.kind)
			}
			for _, other := range kinds {
				if other != tt.kind && errors.Is(tt.err, other) {
					t.Fatalf("%v unexpectedly matches %v", tt.err, other)
				}
			}
		})
	}
}

func TestSentinelErrors_Messages(t *testing.T) {
	tests := map[error]string{
		ErrItemNotFound:      "item not found",
		ErrCapacityExhausted: "no copies available",
		ErrInvalidTitle:      "invalid input: title required",
		ErrInvalidBorrower:   "invalid input: borrower name required",
		ErrNoOpenLoan:        "no open loan found for this item: not found",
	}
	for err, want := range tests {
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	}
}

func TestSentinelErrors_WrappedIdentity(t *testing.T) {
	wrapped := fmt.Errorf("borrow: %w", ErrCapacityExhausted)
	if !errors.Is(wrapped, ErrCapacityExhausted) {
		t.Fatal("errors.Is must match wrapped ErrCapacityExhausted")
	}

	storage := fmt.Errorf("%w: insert loan: %w", ErrStorage, errors.New("connection reset"))
	if !errors.Is(storage, ErrStorage) {
		t.Fatal("errors.Is must match double-wrapped ErrStorage")
	}
}
