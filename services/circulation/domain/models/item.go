package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTotalCopies is used when an item is catalogued without a copy count.
const DefaultTotalCopies = 1

// Item is a catalog entry: one title and how many physical copies circulate.
// TotalCopies only changes through the circulation service, which checks it
// against open loans; available copies are never stored on the item.
type Item struct {
	ID          uuid.UUID
	Title       ItemTitle
	Author      string
	Year        *int
	TotalCopies int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem constructs a valid Item with generated ID and current timestamps.
func NewItem(title ItemTitle, author string, year *int, totalCopies int) (*Item, error) {
	if totalCopies < 0 {
		return nil, fmt.Errorf("total copies must not be negative (got %d)", totalCopies)
	}
	now := Now()
	return &Item{
		ID:          uuid.New(),
		Title:       title,
		Author:      author,
		Year:        year,
		TotalCopies: totalCopies,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Now returns the current UTC time at the precision PostgreSQL stores, so
// values round-trip through either storage driver unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
