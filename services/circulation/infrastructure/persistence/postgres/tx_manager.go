package postgres

import (
	"context"

	"github.com/ghuser/circulationledger/pkg/database"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
)

// TxManager implements repositories.TxManager with database transactions
// carried in the context.
type TxManager struct {
	db *database.Database
}

var _ repositories.TxManager = (*TxManager)(nil)

func NewTxManager(db *database.Database) *TxManager {
	return &TxManager{db: db}
}

// RunInTx runs fn in a READ COMMITTED transaction bounded by the pool's lock
// timeout.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return translateTx(m.db.WithTx(ctx, fn))
}

// ReadSnapshot runs fn in a REPEATABLE READ, READ ONLY transaction.
func (m *TxManager) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return translateTx(m.db.WithSnapshot(ctx, fn))
}
