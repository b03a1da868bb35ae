package sweeper

import (
	"context"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/kafka"
	"go.uber.org/zap"
)

type SeatSweepStore interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, []int64, error)
}

type BookingExpirer interface {
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type SeatMapInvalidator interface {
	InvalidateSeatMap(ctx context.Context, flightID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Sweeper reclaims expired seat holds on a fixed period, independent of any
// request path. It talks to the seat store only through its atomic transition
// API, so it needs no coordination with live hold/confirm traffic.
type Sweeper struct {
	seats              SeatSweepStore
	bookings           BookingExpirer
	cache              SeatMapInvalidator
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	period             time.Duration
	log                *zap.Logger
}

func New(seats SeatSweepStore, bookings BookingExpirer, cache SeatMapInvalidator, producer Producer, eventsTopic, notificationsTopic string, period time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		seats:              seats,
		bookings:           bookings,
		cache:              cache,
		producer:           producer,
		eventsTopic:        eventsTopic,
		notificationsTopic: notificationsTopic,
		period:             period,
		log:                log,
	}
}

// Run blocks until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, time.Now())
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	count, flightIDs, err := s.seats.SweepExpired(ctx, now)
	if err != nil {
		s.log.Error("seat sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.log.Info("released expired seat holds", zap.Int64("seats", count), zap.Int64s("flight_ids", flightIDs))
	}
	if s.cache != nil {
		for _, flightID := range flightIDs {
			if err := s.cache.InvalidateSeatMap(ctx, flightID); err != nil {
				s.log.Warn("seat map invalidation failed", zap.Int64("flight_id", flightID), zap.Error(err))
			}
		}
	}

	if s.bookings == nil {
		return
	}
	expired, err := s.bookings.ExpirePendingBefore(ctx, now)
	if err != nil {
		s.log.Error("booking expiry failed", zap.Error(err))
		return
	}
	for _, b := range expired {
		s.log.Info("expired pending booking", zap.Int64("booking_id", b.ID), zap.String("pnr", b.PNR))
		if s.producer == nil || s.eventsTopic == "" {
			continue
		}
		event := kafka.ReservationEvent{
			Type:        "booking_expired",
			BookingID:   b.ID,
			PNR:         b.PNR,
			UserID:      b.UserID,
			FlightID:    b.FlightID,
			AmountCents: b.TotalCents,
			Status:      string(b.Status),
			ExpiresAt:   b.ExpiresAt,
		}
		if err := s.producer.Publish(ctx, s.eventsTopic, b.PNR, event); err != nil {
			s.log.Warn("publish booking_expired failed", zap.Int64("booking_id", b.ID), zap.Error(err))
		}
		if s.notificationsTopic == "" {
			continue
		}
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.PNR, event); err != nil {
			s.log.Warn("publish expiry notification failed", zap.Int64("booking_id", b.ID), zap.Error(err))
		}
	}
}
