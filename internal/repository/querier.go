package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// repository method can run standalone or inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// Repositories bundles transaction-scoped repositories handed to an Atomic
// callback. All stores in the bundle share one transaction.
type Repositories struct {
	Seats    SeatRepository
	Bookings BookingRepository
	Flights  FlightRepository
}

// Atomic runs a function whose repository writes either all commit or all
// roll back.
type Atomic interface {
	Transact(ctx context.Context, fn func(r Repositories) error) error
}

type PGAtomic struct {
	pool *pgxpool.Pool
}

func NewAtomic(pool *pgxpool.Pool) *PGAtomic {
	return &PGAtomic{pool: pool}
}

func (a *PGAtomic) Transact(ctx context.Context, fn func(r Repositories) error) error {
	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	repos := Repositories{
		Seats:    NewSeatRepository(tx),
		Bookings: NewBookingRepository(tx),
		Flights:  NewFlightRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

var _ Atomic = (*PGAtomic)(nil)
