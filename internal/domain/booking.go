package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusFailed    BookingStatus = "FAILED"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Booking holds a multi-seat reservation. SeatsBooked always equals the
// number of SeatAssignment rows created with it.
type Booking struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	FlightID      int64         `json:"flight_id"`
	PNR           string        `json:"pnr"`
	SeatsBooked   int           `json:"seats_booked"`
	TotalCents    int64         `json:"total_cents"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        BookingStatus `json:"status"`
	ExpiresAt     time.Time     `json:"expires_at"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Finalized reports whether the booking reached a terminal state and must
// not be confirmed again.
func (b *Booking) Finalized() bool {
	return b.Status != BookingStatusPending
}

// SeatAssignment pins one seat label to a booking, with the seat class
// snapshotted at hold time. Immutable after creation.
type SeatAssignment struct {
	ID            int64     `json:"id"`
	BookingID     int64     `json:"booking_id"`
	SeatLabel     string    `json:"seat_label"`
	SeatClass     SeatClass `json:"seat_class"`
	PassengerName string    `json:"passenger_name,omitempty"`
}

type PaymentState string

const (
	PaymentStatePending PaymentState = "PENDING"
	PaymentStateSuccess PaymentState = "SUCCESS"
	PaymentStateFailed  PaymentState = "FAILED"
)

// PaymentRecord is the one-to-one payment row for a booking.
type PaymentRecord struct {
	ID          int64        `json:"id"`
	BookingID   int64        `json:"booking_id"`
	AmountCents int64        `json:"amount_cents"`
	Method      string       `json:"method"`
	Status      PaymentState `json:"status"`
	TxnRef      string       `json:"txn_ref,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
