package repositories

import (
	"context"
)

// QueryOpts contains pagination parameters for list queries.
// A zero Limit means no limit.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// TxManager scopes a unit of work. Repositories called with the ctx handed to
// fn take part in that unit; calling RunInTx or ReadSnapshot again with such a
// ctx joins the outer unit instead of starting a new one.
type TxManager interface {
	// RunInTx runs fn atomically: either everything fn wrote becomes visible
	// together or nothing does. Locks taken inside fn are held until it
	// returns.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	// ReadSnapshot runs fn against a single consistent, read-only view of
	// both stores.
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}
