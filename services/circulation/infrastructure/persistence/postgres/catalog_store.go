package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

const itemsTable = "catalog_items"

var itemColumns = []string{"id", "title", "author", "year", "total_copies", "created_at", "updated_at"}

// CatalogStore implements repositories.CatalogStore against PostgreSQL.
type CatalogStore struct {
	db *database.Database
}

var _ repositories.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore returns a CatalogStore backed by db. Calls join the
// transaction carried by their ctx.
func NewCatalogStore(db *database.Database) *CatalogStore {
	return &CatalogStore{db: db}
}

// CreateItem inserts item. Returns ErrItemAlreadyExists on a duplicate id.
func (s *CatalogStore) CreateItem(ctx context.Context, item *models.Item) error {
	query, args, err := psql.Insert(itemsTable).
		Columns(itemColumns...).
		Values(item.ID, item.Title.String(), item.Author, item.Year, item.TotalCopies, item.CreatedAt, item.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert item: %w", err)
	}

	if _, err := s.db.Querier(ctx).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrItemAlreadyExists
		}
		return translate(err, nil)
	}
	return nil
}

// GetItem returns ErrItemNotFound if the item does not exist.
func (s *CatalogStore) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return s.getItem(ctx, id, false)
}

// LockItem reads the item with SELECT ... FOR UPDATE. The row lock lives
// until the surrounding transaction ends.
func (s *CatalogStore) LockItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if _, ok := database.TxFromContext(ctx); !ok {
		return nil, fmt.Errorf("%w: LockItem called outside a transaction", domain.ErrStorage)
	}
	return s.getItem(ctx, id, true)
}

func (s *CatalogStore) getItem(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Item, error) {
	b := psql.Select(itemColumns...).From(itemsTable).Where("id = ?", id)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select item: %w", err)
	}

	item, err := scanItem(s.db.Querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err, domain.ErrItemNotFound)
	}
	return item, nil
}

// UpdateItem writes every mutable column of item.
func (s *CatalogStore) UpdateItem(ctx context.Context, item *models.Item) error {
	query, args, err := psql.Update(itemsTable).
		Set("title", item.Title.String()).
		Set("author", item.Author).
		Set("year", item.Year).
		Set("total_copies", item.TotalCopies).
		Set("updated_at", item.UpdatedAt).
		Where("id = ?", item.ID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update item: %w", err)
	}
	return s.execOne(ctx, query, args)
}

// RemoveItem deletes the catalog row. Loan records are untouched.
func (s *CatalogStore) RemoveItem(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete(itemsTable).Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("build delete item: %w", err)
	}
	return s.execOne(ctx, query, args)
}

func (s *CatalogStore) execOne(ctx context.Context, query string, args []any) error {
	res, err := s.db.Querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, nil)
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// ListItems returns one page of matching items newest first and the number
// of matches across all pages.
func (s *CatalogStore) ListItems(ctx context.Context, filter repositories.ItemFilter) ([]*models.Item, int, error) {
	search := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search == "" {
			return b
		}
		pattern := "%" + escapeLike(filter.Search) + "%"
		return b.Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"author": pattern}})
	}

	countQuery, countArgs, err := search(psql.Select("count(*)").From(itemsTable)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count items: %w", err)
	}
	var total int
	if err := s.db.Querier(ctx).QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, translate(err, nil)
	}

	b := search(psql.Select(itemColumns...).From(itemsTable)).OrderBy("created_at DESC", "id DESC")
	query, args, err := page(b, filter.QueryOpts).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list items: %w", err)
	}

	rows, err := s.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	defer rows.Close() //nolint:errcheck

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, translate(err, nil)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err, nil)
	}
	return items, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanItem(row scanner) (*models.Item, error) {
	var (
		item  models.Item
		title string
		year  sql.NullInt32
	)
	if err := row.Scan(&item.ID, &title, &item.Author, &year, &item.TotalCopies, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Title = models.ItemTitle(title)
	if year.Valid {
		y := int(year.Int32)
		item.Year = &y
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}
