package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/services/circulation/domain"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

// PostgreSQL error codes the adapters translate.
const (
	codeUniqueViolation  = "23505"
	codeCheckViolation   = "23514"
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// translate maps driver errors onto domain kinds. sql.ErrNoRows becomes
// notFound when one is given; everything else is a storage error.
func translate(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable:
			return fmt.Errorf("%w: lock timeout: %w", domain.ErrStorage, err)
		case codeQueryCanceled:
			return fmt.Errorf("%w: query canceled: %w", domain.ErrStorage, err)
		case codeCheckViolation:
			return fmt.Errorf("%w: constraint %s violated: %w", domain.ErrStorage, pgErr.ConstraintName, err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

// translateTx keeps domain errors returned by fn and marks failures of the
// transaction itself as storage errors.
func translateTx(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrTransaction) && !errors.Is(err, domain.ErrStorage) {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

type scanner interface {
	Scan(dest ...any) error
}

func page(b sq.SelectBuilder, opts repositories.QueryOpts) sq.SelectBuilder {
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		b = b.Offset(uint64(opts.Offset))
	}
	return b
}
