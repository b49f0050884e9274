package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/pkg/events"
	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

// Outbox writes domain events through the transaction in ctx using the
// watermill SQL publisher.
type Outbox struct {
	bus *events.EventBus
}

var _ repositories.EventOutbox = (*Outbox)(nil)

func NewOutbox(bus *events.EventBus) *Outbox {
	return &Outbox{bus: bus}
}

func (o *Outbox) Record(ctx context.Context, topic string, eventID uuid.UUID, payload any) error {
	tx, ok := database.TxFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: %s recorded outside a transaction", domain.ErrStorage, topic)
	}
	if err := o.bus.PublishInTx(ctx, tx, topic, eventID, payload); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}
