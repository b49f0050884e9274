package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

const loansTable = "loan_records"

var loanColumns = []string{"id", "item_id", "borrower", "opened_at", "closed_at"}

// closeNewestOpen closes the item's open record with the highest seq.
const closeNewestOpen = `
UPDATE loan_records
   SET closed_at = GREATEST($1::timestamptz, opened_at)
 WHERE id = (
	SELECT id FROM loan_records
	 WHERE item_id = $2 AND closed_at IS NULL
	 ORDER BY seq DESC
	 LIMIT 1
 )
RETURNING id, item_id, borrower, opened_at, closed_at`

// LoanLedger implements repositories.LoanLedger against PostgreSQL.
type LoanLedger struct {
	db *database.Database
}

var _ repositories.LoanLedger = (*LoanLedger)(nil)

func NewLoanLedger(db *database.Database) *LoanLedger {
	return &LoanLedger{db: db}
}

func (l *LoanLedger) OpenLoan(ctx context.Context, loan *models.LoanRecord) error {
	query, args, err := psql.Insert(loansTable).
		Columns("id", "item_id", "borrower", "opened_at").
		Values(loan.ID, loan.ItemID, loan.Borrower.String(), loan.OpenedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert loan: %w", err)
	}
	if _, err := l.db.Querier(ctx).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: loan record %s already exists", domain.ErrConflict, loan.ID)
		}
		return translate(err, nil)
	}
	return nil
}

func (l *LoanLedger) GetLoan(ctx context.Context, id uuid.UUID) (*models.LoanRecord, error) {
	query, args, err := psql.Select(loanColumns...).From(loansTable).Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select loan: %w", err)
	}
	loan, err := scanLoan(l.db.Querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translate(err, domain.ErrLoanNotFound)
	}
	return loan, nil
}

// CloseLoan closes an open record. A closedAt before opened_at is raised to
// opened_at so the closed_after_opened check always holds.
func (l *LoanLedger) CloseLoan(ctx context.Context, id uuid.UUID, closedAt time.Time) (*models.LoanRecord, error) {
	query, args, err := psql.Update(loansTable).
		Set("closed_at", sq.Expr("GREATEST(?::timestamptz, opened_at)", closedAt)).
		Where("id = ? AND closed_at IS NULL", id).
		Suffix("RETURNING id, item_id, borrower, opened_at, closed_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build close loan: %w", err)
	}

	loan, err := scanLoan(l.db.Querier(ctx).QueryRowContext(ctx, query, args...))
	if err == nil {
		return loan, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, translate(err, nil)
	}

	// Nothing updated: the record is missing or already closed.
	if _, err := l.GetLoan(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrLoanAlreadyClosed
}

func (l *LoanLedger) CloseMostRecentOpen(ctx context.Context, itemID uuid.UUID, closedAt time.Time) (*models.LoanRecord, error) {
	loan, err := scanLoan(l.db.Querier(ctx).QueryRowContext(ctx, closeNewestOpen, closedAt, itemID))
	if err != nil {
		return nil, translate(err, domain.ErrNoOpenLoan)
	}
	return loan, nil
}

func (l *LoanLedger) CountOpen(ctx context.Context, itemID uuid.UUID) (int, error) {
	query, args, err := psql.Select("count(*)").From(loansTable).
		Where("item_id = ? AND closed_at IS NULL", itemID).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count open: %w", err)
	}
	var n int
	if err := l.db.Querier(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, translate(err, nil)
	}
	return n, nil
}

func (l *LoanLedger) CountOpenByItems(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(itemIDs))
	if len(itemIDs) == 0 {
		return counts, nil
	}

	ids := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		ids[i] = id.String()
	}
	query, args, err := psql.Select("item_id", "count(*)").From(loansTable).
		Where(sq.Eq{"item_id": ids}).
		Where("closed_at IS NULL").
		GroupBy("item_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count open by items: %w", err)
	}

	rows, err := l.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, translate(err, nil)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return counts, nil
}

func (l *LoanLedger) ListByItem(ctx context.Context, itemID uuid.UUID, opts repositories.QueryOpts) ([]*models.LoanRecord, error) {
	return l.list(ctx, psql.Select(loanColumns...).From(loansTable).Where("item_id = ?", itemID), opts)
}

func (l *LoanLedger) ListAll(ctx context.Context, opts repositories.QueryOpts) ([]*models.LoanRecord, error) {
	return l.list(ctx, psql.Select(loanColumns...).From(loansTable), opts)
}

func (l *LoanLedger) list(ctx context.Context, b sq.SelectBuilder, opts repositories.QueryOpts) ([]*models.LoanRecord, error) {
	query, args, err := page(b.OrderBy("seq DESC"), opts).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list loans: %w", err)
	}

	rows, err := l.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close() //nolint:errcheck

	var loans []*models.LoanRecord
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, translate(err, nil)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return loans, nil
}

func scanLoan(row scanner) (*models.LoanRecord, error) {
	var (
		loan     models.LoanRecord
		borrower string
		closedAt sql.NullTime
	)
	if err := row.Scan(&loan.ID, &loan.ItemID, &borrower, &loan.OpenedAt, &closedAt); err != nil {
		return nil, err
	}
	loan.Borrower = models.Borrower(borrower)
	loan.OpenedAt = loan.OpenedAt.UTC()
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		loan.ClosedAt = &t
	}
	return &loan, nil
}
