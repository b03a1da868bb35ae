package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/kafka"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationUseCase interface {
	SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error)
	Hold(ctx context.Context, input HoldInput) (*HoldResult, error)
	Confirm(ctx context.Context, bookingID int64, success bool, txnRef string) (*domain.Booking, error)
}

type Cache interface {
	GetSeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error)
	SetSeatMap(ctx context.Context, flightID int64, seats []domain.Seat) error
	InvalidateSeatMap(ctx context.Context, flightID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type HoldInput struct {
	UserID      int64    `json:"user_id"`
	FlightID    int64    `json:"flight_id"`
	Seats       []string `json:"seats"`
	AmountCents int64    `json:"amount_cents"`
}

type HoldResult struct {
	BookingID   int64     `json:"booking_id"`
	PNR         string    `json:"pnr"`
	AmountCents int64     `json:"amount_cents"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReservationService coordinates multi-seat holds and payment confirmation
// across the seat store and the booking ledger.
type ReservationService struct {
	seats              repository.SeatRepository
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	users              repository.UserRepository
	atomic             repository.Atomic
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	holdWindow         time.Duration
	log                *zap.Logger
	now                func() time.Time
}

type ReservationServiceOption func(*ReservationService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ReservationServiceOption {
	return func(s *ReservationService) {
		s.now = now
	}
}

func NewReservationService(
	seats repository.SeatRepository,
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	atomic repository.Atomic,
	cache Cache,
	producer Producer,
	eventsTopic string,
	notificationsTopic string,
	holdWindow time.Duration,
	log *zap.Logger,
	opts ...ReservationServiceOption,
) *ReservationService {
	service := &ReservationService{
		seats:              seats,
		bookings:           bookings,
		flights:            flights,
		users:              users,
		atomic:             atomic,
		cache:              cache,
		producer:           producer,
		eventsTopic:        eventsTopic,
		notificationsTopic: notificationsTopic,
		holdWindow:         holdWindow,
		log:                log,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *ReservationService) SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	if _, err := s.flights.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, err := s.cache.GetSeatMap(ctx, flightID); err == nil && cached != nil {
			return cached, nil
		}
	}

	seats, err := s.seats.ListSeats(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSeatMap(ctx, flightID, seats)
	}
	return seats, nil
}

// Hold claims the requested seats one by one. Each successful claim pushes a
// compensating release; the first losing seat unwinds the stack in reverse
// and the whole attempt fails, so a booking never exists with a partial seat
// set. Compensation failures are logged and swallowed, never escalated.
func (s *ReservationService) Hold(ctx context.Context, input HoldInput) (*HoldResult, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.flights.GetByID(ctx, input.FlightID); err != nil {
		return nil, err
	}

	if len(input.Seats) == 0 {
		return nil, fmt.Errorf("%w: no seats requested", domain.ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(input.Seats))
	for _, label := range input.Seats {
		if label == "" {
			return nil, fmt.Errorf("%w: empty seat label", domain.ErrInvalidRequest)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: duplicate seat label %s", domain.ErrInvalidRequest, label)
		}
		seen[label] = struct{}{}
	}

	expiresAt := s.now().Add(s.holdWindow)

	var undo []func(context.Context)
	for _, label := range input.Seats {
		ok, err := s.seats.TryHold(ctx, input.FlightID, label, expiresAt)
		if err != nil {
			s.compensate(ctx, undo)
			return nil, err
		}
		if !ok {
			s.compensate(ctx, undo)
			return nil, &domain.SeatUnavailableError{Label: label}
		}
		claimed := label
		undo = append(undo, func(ctx context.Context) {
			if _, err := s.seats.Release(ctx, input.FlightID, []string{claimed}); err != nil {
				s.log.Warn("rollback release failed",
					zap.Int64("flight_id", input.FlightID),
					zap.String("seat", claimed),
					zap.Error(err))
			}
		})
	}

	booking := &domain.Booking{
		UserID:     user.ID,
		FlightID:   input.FlightID,
		PNR:        s.generatePNR(input.FlightID),
		TotalCents: input.AmountCents,
		ExpiresAt:  expiresAt,
	}
	if err := s.bookings.CreateWithSeats(ctx, booking, input.Seats); err != nil {
		s.compensate(ctx, undo)
		return nil, err
	}

	s.invalidateSeatMap(ctx, input.FlightID)
	s.publish(ctx, "booking_held", booking, input.Seats)

	return &HoldResult{
		BookingID:   booking.ID,
		PNR:         booking.PNR,
		AmountCents: booking.TotalCents,
		ExpiresAt:   expiresAt,
	}, nil
}

// Confirm finalizes the payment outcome for a pending booking. The success
// path runs as one transaction: payment SUCCESS, booking PAID/CONFIRMED,
// seats HELD -> BOOKED, and the commit-count check that rolls everything
// back when the sweeper got to a seat first.
func (s *ReservationService) Confirm(ctx context.Context, bookingID int64, success bool, txnRef string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Finalized() {
		return nil, fmt.Errorf("%w: booking %d is %s", domain.ErrBookingFinalized, bookingID, booking.Status)
	}
	if _, err := s.bookings.GetPayment(ctx, bookingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: payment record missing for booking %d", domain.ErrStateViolation, bookingID)
		}
		return nil, err
	}
	labels, err := s.bookings.SeatLabels(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if success {
		err = s.atomic.Transact(ctx, func(r repository.Repositories) error {
			if err := r.Bookings.SetPaymentOutcome(ctx, bookingID, domain.PaymentStateSuccess, txnRef); err != nil {
				return err
			}
			if err := r.Bookings.SetBookingOutcome(ctx, bookingID, domain.PaymentStatusPaid, domain.BookingStatusConfirmed); err != nil {
				return err
			}
			committed, err := r.Seats.Commit(ctx, booking.FlightID, labels, bookingID)
			if err != nil {
				return err
			}
			if committed != int64(len(labels)) {
				return fmt.Errorf("%w: committed %d of %d held seats", domain.ErrStateViolation, committed, len(labels))
			}
			return r.Flights.DecrementAvailable(ctx, booking.FlightID, len(labels))
		})
		if err != nil {
			return nil, err
		}
		booking.PaymentStatus = domain.PaymentStatusPaid
		booking.Status = domain.BookingStatusConfirmed
		s.invalidateSeatMap(ctx, booking.FlightID)
		s.publish(ctx, "booking_confirmed", booking, labels)
		return booking, nil
	}

	err = s.atomic.Transact(ctx, func(r repository.Repositories) error {
		if err := r.Bookings.SetPaymentOutcome(ctx, bookingID, domain.PaymentStateFailed, txnRef); err != nil {
			return err
		}
		if err := r.Bookings.SetBookingOutcome(ctx, bookingID, domain.PaymentStatusFailed, domain.BookingStatusFailed); err != nil {
			return err
		}
		_, err := r.Seats.Release(ctx, booking.FlightID, labels)
		return err
	})
	if err != nil {
		return nil, err
	}
	booking.PaymentStatus = domain.PaymentStatusFailed
	booking.Status = domain.BookingStatusFailed
	s.invalidateSeatMap(ctx, booking.FlightID)
	s.publish(ctx, "booking_payment_failed", booking, labels)
	return booking, nil
}

func (s *ReservationService) compensate(ctx context.Context, undo []func(context.Context)) {
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i](ctx)
	}
}

func (s *ReservationService) invalidateSeatMap(ctx context.Context, flightID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSeatMap(ctx, flightID); err != nil {
		s.log.Warn("seat map invalidation failed", zap.Int64("flight_id", flightID), zap.Error(err))
	}
}

func (s *ReservationService) publish(ctx context.Context, eventType string, booking *domain.Booking, seats []string) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		PNR:         booking.PNR,
		UserID:      booking.UserID,
		FlightID:    booking.FlightID,
		Seats:       seats,
		AmountCents: booking.TotalCents,
		Status:      string(booking.Status),
		ExpiresAt:   booking.ExpiresAt,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, booking.PNR, event); err != nil {
		s.log.Warn("publish reservation event failed", zap.String("type", eventType), zap.String("pnr", booking.PNR), zap.Error(err))
	}
	if s.notificationsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, booking.PNR, event); err != nil {
		s.log.Warn("publish notification failed", zap.String("type", eventType), zap.String("pnr", booking.PNR), zap.Error(err))
	}
}

func (s *ReservationService) generatePNR(flightID int64) string {
	ts := strings.ToUpper(strconv.FormatInt(s.now().UnixMilli(), 36))
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	rnd := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("%d%s%s", flightID%100, ts, rnd)
}

var _ ReservationUseCase = (*ReservationService)(nil)
