package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/circulationledger/pkg/cache"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/circulationledger/services/circulation/domain/services"
)

// List size bounds applied by QueryService.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ErrStatsUnavailable is returned by Stats when no stats backend is wired.
var ErrStatsUnavailable = errors.New("loan stats unavailable")

// QueryService answers read-only questions. Every answer is computed inside
// one snapshot, so an item's copy count and its open loans always agree.
type QueryService struct {
	*deps
}

// GetItem returns the item together with its availability.
func (s *QueryService) GetItem(ctx context.Context, id uuid.UUID) (_ *models.ItemView, err error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.GetItem",
		trace.WithAttributes(attribute.String("item.id", id.String())))
	defer func() { endSpan(span, err) }()

	var view *models.ItemView
	err = s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		item, err := s.Catalog.GetItem(ctx, id)
		if err != nil {
			return err
		}
		open, err := s.Ledger.CountOpen(ctx, id)
		if err != nil {
			return err
		}
		view = models.NewItemView(item, open)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.checkInvariants(ctx, view.Availability)
	return view, nil
}

// Availability is GetItem without the descriptive fields.
func (s *QueryService) Availability(ctx context.Context, id uuid.UUID) (models.Availability, error) {
	view, err := s.GetItem(ctx, id)
	if err != nil {
		return models.Availability{}, err
	}
	return view.Availability, nil
}

// ListItems returns matching items newest first with their availability and
// the total number of matches.
func (s *QueryService) ListItems(ctx context.Context, filter repositories.ItemFilter) (_ []*models.ItemView, _ int, err error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.ListItems")
	defer func() { endSpan(span, err) }()

	filter.QueryOpts = clampOpts(filter.QueryOpts)

	var (
		views []*models.ItemView
		total int
	)
	err = s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		items, n, err := s.Catalog.ListItems(ctx, filter)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		open, err := s.Ledger.CountOpenByItems(ctx, ids)
		if err != nil {
			return err
		}

		views = make([]*models.ItemView, len(items))
		for i, item := range items {
			views[i] = models.NewItemView(item, open[item.ID])
		}
		total = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	for _, v := range views {
		s.checkInvariants(ctx, v.Availability)
	}
	span.SetAttributes(attribute.Int("items.total", total))
	return views, total, nil
}

// ListLoans returns loan records newest first, for one item when itemID is
// set. The history of a removed item is still listed.
func (s *QueryService) ListLoans(ctx context.Context, itemID *uuid.UUID, opts repositories.QueryOpts) (_ []*models.LoanRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.ListLoans")
	defer func() { endSpan(span, err) }()

	opts = clampOpts(opts)

	var loans []*models.LoanRecord
	err = s.Tx.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if itemID != nil {
			loans, err = s.Ledger.ListByItem(ctx, *itemID, opts)
		} else {
			loans, err = s.Ledger.ListAll(ctx, opts)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// Stats returns the lifetime borrow and return counters of an existing item.
func (s *QueryService) Stats(ctx context.Context, id uuid.UUID) (*cache.ItemStats, error) {
	if s.stats == nil {
		return nil, ErrStatsUnavailable
	}
	if _, err := s.Catalog.GetItem(ctx, id); err != nil {
		return nil, err
	}
	return s.stats.Get(ctx, id)
}

// checkInvariants only logs: reads keep serving while an operator looks into
// a broken bound.
func (s *QueryService) checkInvariants(ctx context.Context, a models.Availability) {
	if err := domainsvcs.CheckInvariants(a); err != nil {
		s.log.ErrorContext(ctx, "availability invariant violated", "item_id", a.ItemID, "error", err)
	}
}

func clampOpts(opts repositories.QueryOpts) repositories.QueryOpts {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
