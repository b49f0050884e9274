package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/circulationledger/pkg/app"
	"github.com/ghuser/circulationledger/pkg/cache"
	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/services/circulation/domain/models"
	"github.com/ghuser/circulationledger/services/circulation/domain/repositories"
	"github.com/ghuser/circulationledger/services/circulation/infrastructure/persistence/memory"
	"github.com/ghuser/circulationledger/services/circulation/infrastructure/persistence/postgres"
)

const instrumentationName = "github.com/ghuser/circulationledger/services/circulation"

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Catalog     *CatalogService
	Circulation *CirculationService
	Query       *QueryService
}

// Storage is the set of ports the services run against. Outbox may be nil,
// in which case no domain events are recorded.
type Storage struct {
	Tx      repositories.TxManager
	Catalog repositories.CatalogStore
	Ledger  repositories.LoanLedger
	Outbox  repositories.EventOutbox
}

// StatsReader serves the lending counters maintained by the worker.
type StatsReader interface {
	Get(ctx context.Context, itemID uuid.UUID) (*cache.ItemStats, error)
}

// Option customizes NewWithStorage.
type Option func(*deps)

// WithClock replaces the time source used for loan and item timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithStats enables QueryService.Stats.
func WithStats(stats StatsReader) Option {
	return func(d *deps) { d.stats = stats }
}

// New wires all circulation services with infrastructure from the Application
// container. A nil a.Db selects the in-memory stores.
func New(a *app.Application) *Services {
	var opts []Option
	if a.Redis != nil {
		opts = append(opts, WithStats(cache.NewLoanStats(a.Redis)))
	}
	return NewWithStorage(storageFor(a), a.Logger, opts...)
}

func storageFor(a *app.Application) Storage {
	if a.Db == nil {
		var memOpts []memory.Option
		if a.Config != nil {
			memOpts = append(memOpts, memory.WithLockTimeout(a.Config.DBLockTimeout))
		}
		store := memory.New(memOpts...)
		return Storage{Tx: store, Catalog: store, Ledger: store}
	}

	st := Storage{
		Tx:      postgres.NewTxManager(a.Db),
		Catalog: postgres.NewCatalogStore(a.Db),
		Ledger:  postgres.NewLoanLedger(a.Db),
	}
	if a.EventBus != nil {
		st.Outbox = postgres.NewOutbox(a.EventBus)
	}
	return st
}

// NewWithStorage wires the services against explicit ports.
func NewWithStorage(st Storage, log logger.Logger, opts ...Option) *Services {
	d := newDeps(st, log)
	for _, opt := range opts {
		opt(d)
	}
	return &Services{
		Catalog:     &CatalogService{deps: d},
		Circulation: &CirculationService{deps: d},
		Query:       &QueryService{deps: d},
	}
}

// deps is shared by every service in the container.
type deps struct {
	Storage
	log    logger.Logger
	now    func() time.Time
	stats  StatsReader
	tracer trace.Tracer

	borrows metric.Int64Counter
	returns metric.Int64Counter
}

func newDeps(st Storage, log logger.Logger) *deps {
	if log == nil {
		log = logger.Nop()
	}
	meter := otel.Meter(instrumentationName)
	d := &deps{
		Storage: st,
		log:     log,
		now:     models.Now,
		tracer:  otel.Tracer(instrumentationName),
	}

	var err error
	if d.borrows, err = meter.Int64Counter("circulation.borrow.total",
		metric.WithDescription("Borrow attempts by outcome")); err != nil {
		log.Warn("failed to create borrow counter", "error", err)
	}
	if d.returns, err = meter.Int64Counter("circulation.return.total",
		metric.WithDescription("Return attempts by outcome")); err != nil {
		log.Warn("failed to create return counter", "error", err)
	}
	return d
}

// record writes a domain event into the current transaction's outbox.
func (d *deps) record(ctx context.Context, topic string, eventID uuid.UUID, payload any) error {
	if d.Outbox == nil {
		return nil
	}
	return d.Outbox.Record(ctx, topic, eventID, payload)
}

func (d *deps) count(ctx context.Context, c metric.Int64Counter, err error) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(outcomeAttr(err)))
}

// endSpan marks span failed when err is non-nil and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
