package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository is the booking ledger: bookings, their seat assignments
// and their payment record.
type BookingRepository interface {
	// CreateWithSeats inserts the booking, one booking_seats row per label
	// (seat class snapshotted from the seats table) and a PENDING payment
	// record as one transaction.
	CreateWithSeats(ctx context.Context, booking *domain.Booking, labels []string) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetPayment(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error)
	SeatLabels(ctx context.Context, bookingID int64) ([]string, error)
	Assignments(ctx context.Context, bookingID int64) ([]domain.SeatAssignment, error)
	// SetPaymentOutcome moves the payment PENDING -> SUCCESS/FAILED exactly
	// once; a second call reports a state violation.
	SetPaymentOutcome(ctx context.Context, bookingID int64, status domain.PaymentState, txnRef string) error
	SetBookingOutcome(ctx context.Context, bookingID int64, payment domain.PaymentStatus, status domain.BookingStatus) error
	// ExpirePendingBefore fails every PENDING booking whose hold expiry
	// passed, together with its still-pending payment, and returns them.
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, flight_id, pnr, seats_booked, total_cents, payment_status, status, expires_at, created_at`

func (r *PGBookingRepository) CreateWithSeats(ctx context.Context, booking *domain.Booking, labels []string) error {
	pool, ok := r.db.(*pgxpool.Pool)
	if !ok {
		return r.createWithSeats(ctx, r.db, booking, labels)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := r.createWithSeats(ctx, tx, booking, labels); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGBookingRepository) createWithSeats(ctx context.Context, q Querier, booking *domain.Booking, labels []string) error {
	booking.SeatsBooked = len(labels)
	booking.PaymentStatus = domain.PaymentStatusPending
	booking.Status = domain.BookingStatusPending

	if err := q.QueryRow(ctx, `INSERT INTO bookings (user_id, flight_id, pnr, seats_booked, total_cents, payment_status, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		booking.UserID, booking.FlightID, booking.PNR, booking.SeatsBooked, booking.TotalCents,
		booking.PaymentStatus, booking.Status, booking.ExpiresAt).
		Scan(&booking.ID, &booking.CreatedAt); err != nil {
		return err
	}

	res, err := q.Exec(ctx, `INSERT INTO booking_seats (booking_id, seat_label, seat_class)
		SELECT $1, s.seat_label, s.seat_class FROM seats s WHERE s.flight_id=$2 AND s.seat_label = ANY($3)`,
		booking.ID, booking.FlightID, labels)
	if err != nil {
		return err
	}
	if res.RowsAffected() != int64(len(labels)) {
		return fmt.Errorf("%w: recorded %d of %d seat assignments", domain.ErrStateViolation, res.RowsAffected(), len(labels))
	}

	_, err = q.Exec(ctx, `INSERT INTO payments (booking_id, amount_cents, method, status) VALUES ($1, $2, $3, $4)`,
		booking.ID, booking.TotalCents, "MOCK", domain.PaymentStatePending)
	return err
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.FlightID, &b.PNR, &b.SeatsBooked, &b.TotalCents, &b.PaymentStatus, &b.Status, &b.ExpiresAt, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetPayment(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, amount_cents, method, status, COALESCE(txn_ref, ''), created_at FROM payments WHERE booking_id=$1`, bookingID)
	var p domain.PaymentRecord
	if err := row.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Method, &p.Status, &p.TxnRef, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment for booking %d: %w", bookingID, domain.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGBookingRepository) SeatLabels(ctx context.Context, bookingID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_label FROM booking_seats WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

func (r *PGBookingRepository) Assignments(ctx context.Context, bookingID int64) ([]domain.SeatAssignment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, seat_label, seat_class, COALESCE(passenger_name, '') FROM booking_seats WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.SeatAssignment
	for rows.Next() {
		var a domain.SeatAssignment
		if err := rows.Scan(&a.ID, &a.BookingID, &a.SeatLabel, &a.SeatClass, &a.PassengerName); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *PGBookingRepository) SetPaymentOutcome(ctx context.Context, bookingID int64, status domain.PaymentState, txnRef string) error {
	res, err := r.db.Exec(ctx, `UPDATE payments SET status=$1, txn_ref=$2 WHERE booking_id=$3 AND status=$4`,
		status, txnRef, bookingID, domain.PaymentStatePending)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment for booking %d is not pending", domain.ErrStateViolation, bookingID)
	}
	return nil
}

func (r *PGBookingRepository) SetBookingOutcome(ctx context.Context, bookingID int64, payment domain.PaymentStatus, status domain.BookingStatus) error {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET payment_status=$1, status=$2 WHERE id=$3`, payment, status, bookingID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("booking %d: %w", bookingID, domain.ErrNotFound)
	}
	return nil
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET payment_status=$1, status=$2 WHERE status=$3 AND expires_at <= $4 RETURNING `+bookingColumns,
		domain.PaymentStatusFailed, domain.BookingStatusFailed, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.FlightID, &b.PNR, &b.SeatsBooked, &b.TotalCents, &b.PaymentStatus, &b.Status, &b.ExpiresAt, &b.CreatedAt); err != nil {
			return nil, err
		}
		expired = append(expired, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return expired, nil
	}

	ids := make([]int64, 0, len(expired))
	for _, b := range expired {
		ids = append(ids, b.ID)
	}
	_, err = r.db.Exec(ctx, `UPDATE payments SET status=$1, txn_ref=$2 WHERE booking_id = ANY($3) AND status=$4`,
		domain.PaymentStateFailed, "EXPIRED", ids, domain.PaymentStatePending)
	return expired, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
