package models

import "github.com/google/uuid"

// LendingState is derived from counts and never stored.
type LendingState string

const (
	LendingFull            LendingState = "full"
	LendingPartiallyLoaned LendingState = "partially_loaned"
	LendingFullyLoaned     LendingState = "fully_loaned"
)

// Availability pairs an item's copy count with its open-loan count, both
// read from the same snapshot.
type Availability struct {
	ItemID      uuid.UUID
	TotalCopies int
	OpenLoans   int
}

// Available is TotalCopies minus open loans.
func (a Availability) Available() int {
	return a.TotalCopies - a.OpenLoans
}

// State classifies the item. An item with no copies at all is fully loaned:
// nothing can be borrowed from it.
func (a Availability) State() LendingState {
	switch available := a.Available(); {
	case available <= 0:
		return LendingFullyLoaned
	case available == a.TotalCopies:
		return LendingFull
	default:
		return LendingPartiallyLoaned
	}
}

// ItemView is an item together with its current availability.
type ItemView struct {
	Item         *Item
	Availability Availability
}

// NewItemView builds the view for item given its open-loan count.
func NewItemView(item *Item, openLoans int) *ItemView {
	return &ItemView{
		Item: item,
		Availability: Availability{
			ItemID:      item.ID,
			TotalCopies: item.TotalCopies,
			OpenLoans:   openLoans,
		},
	}
}
