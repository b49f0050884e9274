package repositories

import (
	"context"

	"github.com/google/uuid"
)

// EventOutbox records a domain event as part of the transaction in ctx, so
// the event is delivered iff the change it describes commits.
type EventOutbox interface {
	Record(ctx context.Context, topic string, eventID uuid.UUID, payload any) error
}
