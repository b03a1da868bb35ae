package email

import (
	"context"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/kafka"
	"go.uber.org/zap"
)

// Sender is the notification target for reservation events. It only logs;
// a real mail integration sits behind the same method.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	s.log.Info("send reservation notification",
		zap.String("type", event.Type),
		zap.String("pnr", event.PNR),
		zap.Int64("user_id", event.UserID),
		zap.Int64("flight_id", event.FlightID),
		zap.Strings("seats", event.Seats),
	)
	return nil
}
