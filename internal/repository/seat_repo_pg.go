package repository

import (
	"context"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/jackc/pgx/v5"
)

// SeatRepository is the seat inventory. Every transition is a row-scoped
// conditional update on the current status, so concurrent callers racing for
// the same seat resolve to exactly one winner without a store-wide lock.
type SeatRepository interface {
	ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	// TryHold transitions the seat AVAILABLE -> HELD and reports whether
	// this caller won the transition.
	TryHold(ctx context.Context, flightID int64, label string, expiresAt time.Time) (bool, error)
	// Release transitions HELD -> AVAILABLE for the given labels. Labels not
	// currently HELD are skipped, which makes the call idempotent.
	Release(ctx context.Context, flightID int64, labels []string) (int64, error)
	// Commit transitions HELD -> BOOKED and attaches the booking id. Labels
	// not currently HELD are skipped; the caller checks the count.
	Commit(ctx context.Context, flightID int64, labels []string, bookingID int64) (int64, error)
	// SweepExpired reclaims every seat, on any flight, whose hold expired
	// before now. Returns the count and the distinct flight ids touched.
	SweepExpired(ctx context.Context, now time.Time) (int64, []int64, error)
	CreateBatch(ctx context.Context, seats []domain.Seat) error
}

type PGSeatRepository struct {
	db Querier
}

func NewSeatRepository(db Querier) *PGSeatRepository {
	return &PGSeatRepository{db: db}
}

func (r *PGSeatRepository) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, seat_label, seat_row, seat_col, seat_class, status, booking_id, hold_expires_at FROM seats WHERE flight_id=$1 ORDER BY seat_row, seat_col`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.Label, &s.Row, &s.Col, &s.Class, &s.Status, &s.BookingID, &s.HoldExpiresAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *PGSeatRepository) TryHold(ctx context.Context, flightID int64, label string, expiresAt time.Time) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE seats SET status=$1, hold_expires_at=$2 WHERE flight_id=$3 AND seat_label=$4 AND status=$5`,
		domain.SeatStatusHeld, expiresAt, flightID, label, domain.SeatStatusAvailable)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGSeatRepository) Release(ctx context.Context, flightID int64, labels []string) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE seats SET status=$1, hold_expires_at=NULL WHERE flight_id=$2 AND seat_label = ANY($3) AND status=$4`,
		domain.SeatStatusAvailable, flightID, labels, domain.SeatStatusHeld)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGSeatRepository) Commit(ctx context.Context, flightID int64, labels []string, bookingID int64) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE seats SET status=$1, booking_id=$2, hold_expires_at=NULL WHERE flight_id=$3 AND seat_label = ANY($4) AND status=$5`,
		domain.SeatStatusBooked, bookingID, flightID, labels, domain.SeatStatusHeld)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *PGSeatRepository) SweepExpired(ctx context.Context, now time.Time) (int64, []int64, error) {
	rows, err := r.db.Query(ctx, `UPDATE seats SET status=$1, booking_id=NULL, hold_expires_at=NULL WHERE status=$2 AND hold_expires_at < $3 RETURNING flight_id`,
		domain.SeatStatusAvailable, domain.SeatStatusHeld, now)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var count int64
	seen := make(map[int64]struct{})
	var flightIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, nil, err
		}
		count++
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			flightIDs = append(flightIDs, id)
		}
	}
	return count, flightIDs, rows.Err()
}

func (r *PGSeatRepository) CreateBatch(ctx context.Context, seats []domain.Seat) error {
	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(`INSERT INTO seats (flight_id, seat_label, seat_row, seat_col, seat_class, status) VALUES ($1, $2, $3, $4, $5, $6)`,
			s.FlightID, s.Label, s.Row, s.Col, s.Class, s.Status)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

var _ SeatRepository = (*PGSeatRepository)(nil)
