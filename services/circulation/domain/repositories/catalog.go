package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/services/circulation/domain/models"
)

// ItemFilter narrows ListItems. Search matches title or author
// case-insensitively as a literal substring.
type ItemFilter struct {
	Search string
	QueryOpts
}

// CatalogStore is the persistence interface for catalog items.
// The domain layer owns this interface; infrastructure implements it.
type CatalogStore interface {
	CreateItem(ctx context.Context, item *models.Item) error

	// GetItem returns domain.ErrItemNotFound when the item does not exist.
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// LockItem is GetItem plus an exclusive lock on the item held until the
	// surrounding transaction ends. It must be called inside RunInTx.
	LockItem(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// UpdateItem persists every field of item. Callers hold the item lock.
	UpdateItem(ctx context.Context, item *models.Item) error

	// RemoveItem deletes the item. Callers hold the item lock and have
	// checked for open loans.
	RemoveItem(ctx context.Context, id uuid.UUID) error

	// ListItems returns matching items newest first, and the total number of
	// matches ignoring pagination.
	ListItems(ctx context.Context, filter ItemFilter) ([]*models.Item, int, error)
}
