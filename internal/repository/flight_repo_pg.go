package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/jackc/pgx/v5"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Search(ctx context.Context, origin, destination string, day time.Time) ([]domain.Flight, error)
	// DecrementAvailable lowers the cached available-seat counter by n,
	// floored at zero.
	DecrementAvailable(ctx context.Context, flightID int64, n int) error
	SetAvailable(ctx context.Context, flightID int64, n int) error
}

type PGFlightRepository struct {
	db Querier
}

func NewFlightRepository(db Querier) *PGFlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_no, origin, destination, departure_time, arrival_time, seats_total, seats_available, price_cents, created_at, updated_at`

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := scanFlight(row, &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Search(ctx context.Context, origin, destination string, day time.Time) ([]domain.Flight, error) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights WHERE origin=$1 AND destination=$2 AND departure_time >= $3 AND departure_time < $4 ORDER BY departure_time`,
		origin, destination, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlights(rows)
}

func (r *PGFlightRepository) DecrementAvailable(ctx context.Context, flightID int64, n int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET seats_available = GREATEST(seats_available - $1, 0), updated_at = now() WHERE id=$2`, n, flightID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}
	return nil
}

func (r *PGFlightRepository) SetAvailable(ctx context.Context, flightID int64, n int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET seats_available = $1, updated_at = now() WHERE id=$2`, n, flightID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}
	return nil
}

func scanFlight(row pgx.Row, f *domain.Flight) error {
	return row.Scan(&f.ID, &f.FlightNo, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.SeatsTotal, &f.SeatsAvailable, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt)
}

func scanFlights(rows pgx.Rows) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
