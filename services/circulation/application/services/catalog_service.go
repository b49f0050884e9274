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
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/circulationledger/services/circulation/domain/services"
)

const eventVersion = 1

// CreateItemInput carries the fields of a new catalog entry. A nil
// TotalCopies means models.DefaultTotalCopies.
type CreateItemInput struct {
	Title       string
	Author      string
	Year        *int
	TotalCopies *int
}

// UpdateItemInput carries the fields to change; nil fields are left alone.
// ClearYear removes the year and takes precedence over Year.
type UpdateItemInput struct {
	Title       *string
	Author      *string
	Year        *int
	ClearYear   bool
	TotalCopies *int
}

func (in UpdateItemInput) empty() bool {
	return in.Title == nil && in.Author == nil && in.Year == nil && !in.ClearYear && in.TotalCopies == nil
}

// CatalogService manages catalog entries. Changes to copy counts go through
// the same locked path as CirculationService.AdjustCopies.
type CatalogService struct {
	*deps
}

// Create validates and stores a new item and records ItemCreatedEvent.
func (s *CatalogService) Create(ctx context.Context, in CreateItemInput) (_ *models.ItemView, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Create")
	defer func() { endSpan(span, err) }()

	title, err := parseTitle(in.Title)
	if err != nil {
		return nil, err
	}
	author, err := parseAuthor(in.Author)
	if err != nil {
		return nil, err
	}
	copies := models.DefaultTotalCopies
	if in.TotalCopies != nil {
		copies = *in.TotalCopies
	}
	if copies < 0 {
		return nil, domain.ErrInvalidCopies
	}

	item, err := models.NewItem(title, author, in.Year, copies)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := domainsvcs.ValidateItem(item); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	span.SetAttributes(attribute.String("item.id", item.ID.String()))

	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.Catalog.CreateItem(ctx, item); err != nil {
			return err
		}
		evt := events.ItemCreatedEvent{
			EventID:     uuid.New(),
			Version:     eventVersion,
			ItemID:      item.ID,
			Title:       item.Title.String(),
			Author:      item.Author,
			Year:        item.Year,
			TotalCopies: item.TotalCopies,
			OccurredAt:  item.CreatedAt,
		}
		return s.record(ctx, events.TopicItemCreated, evt.EventID, evt)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "item created", "item_id", item.ID, "total_copies", item.TotalCopies)
	return models.NewItemView(item, 0), nil
}

// Update changes the given fields of an item. A new TotalCopies is checked
// against open loans in the same transaction as the other fields.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in UpdateItemInput) (_ *models.ItemView, err error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Update",
		trace.WithAttributes(attribute.String("item.id", id.String())))
	defer func() { endSpan(span, err) }()

	return s.updateItem(ctx, id, in)
}

// Seed catalogs the sample items when the catalog is empty. Returns how many
// items were created.
func (s *CatalogService) Seed(ctx context.Context) (int, error) {
	samples := []CreateItemInput{
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Year: intPtr(1925), TotalCopies: intPtr(3)},
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Year: intPtr(1960), TotalCopies: intPtr(2)},
		{Title: "Introduction to Algorithms", Author: "Cormen et al.", Year: intPtr(2009), TotalCopies: intPtr(1)},
	}

	created := 0
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		_, total, err := s.Catalog.ListItems(ctx, repositories.ItemFilter{QueryOpts: repositories.QueryOpts{Limit: 1}})
		if err != nil {
			return err
		}
		if total > 0 {
			return nil
		}
		for _, in := range samples {
			if _, err := s.Create(ctx, in); err != nil {
				return fmt.Errorf("seed %q: %w", in.Title, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// updateItem applies in under the item lock.
func (d *deps) updateItem(ctx context.Context, id uuid.UUID, in UpdateItemInput) (*models.ItemView, error) {
	if in.empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	var (
		title  models.ItemTitle
		author string
		err    error
	)
	if in.Title != nil {
		if title, err = parseTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Author != nil {
		if author, err = parseAuthor(*in.Author); err != nil {
			return nil, err
		}
	}
	if in.TotalCopies != nil && *in.TotalCopies < 0 {
		return nil, domain.ErrInvalidCopies
	}

	var view *models.ItemView
	err = d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		item, err := d.Catalog.LockItem(ctx, id)
		if err != nil {
			return err
		}
		open, err := d.Ledger.CountOpen(ctx, id)
		if err != nil {
			return err
		}
		if in.TotalCopies != nil {
			if err := domainsvcs.CheckCopiesChange(*in.TotalCopies, open); err != nil {
				return err
			}
			item.TotalCopies = *in.TotalCopies
		}
		if in.Title != nil {
			item.Title = title
		}
		if in.Author != nil {
			item.Author = author
		}
		switch {
		case in.ClearYear:
			item.Year = nil
		case in.Year != nil:
			item.Year = in.Year
		}
		item.UpdatedAt = d.now()
		if err := domainsvcs.ValidateItem(item); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}

		if err := d.Catalog.UpdateItem(ctx, item); err != nil {
			return err
		}
		view = models.NewItemView(item, open)
		evt := events.ItemUpdatedEvent{
			EventID:     uuid.New(),
			Version:     eventVersion,
			ItemID:      item.ID,
			Title:       item.Title.String(),
			Author:      item.Author,
			Year:        item.Year,
			TotalCopies: item.TotalCopies,
			OccurredAt:  item.UpdatedAt,
		}
		return d.record(ctx, events.TopicItemUpdated, evt.EventID, evt)
	})
	if err != nil {
		return nil, err
	}

	d.log.InfoContext(ctx, "item updated",
		"item_id", id,
		"total_copies", view.Availability.TotalCopies,
		"open_loans", view.Availability.OpenLoans,
	)
	return view, nil
}

func parseTitle(s string) (models.ItemTitle, error) {
	if strings.TrimSpace(s) == "" {
		return "", domain.ErrInvalidTitle
	}
	title, err := models.NewItemTitle(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := domainsvcs.ValidateTitle(title); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return title, nil
}

func parseAuthor(s string) (string, error) {
	author := strings.TrimSpace(s)
	if err := domainsvcs.ValidateAuthor(author); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidAuthor, err)
	}
	return author, nil
}

func intPtr(n int) *int {
	return &n
}
