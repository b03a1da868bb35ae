package ticket

import (
	"context"
	"fmt"
	"strings"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/repository"
)

type TicketUseCase interface {
	// Render produces the e-ticket PDF for a PAID booking.
	Render(ctx context.Context, bookingID int64) ([]byte, error)
}

type TicketService struct {
	bookings repository.BookingRepository
	flights  repository.FlightRepository
}

func NewTicketService(bookings repository.BookingRepository, flights repository.FlightRepository) *TicketService {
	return &TicketService{bookings: bookings, flights: flights}
}

func (s *TicketService) Render(ctx context.Context, bookingID int64) ([]byte, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaymentStatus != domain.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: ticket requested for booking %d with payment status %s", domain.ErrStateViolation, bookingID, booking.PaymentStatus)
	}

	assignments, err := s.bookings.Assignments(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.GetByID(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("AIRLINE E-TICKET\n\n")
	fmt.Fprintf(&sb, "PNR: %s\n", booking.PNR)
	fmt.Fprintf(&sb, "Booking ID: %d\n", booking.ID)
	fmt.Fprintf(&sb, "User ID: %d\n", booking.UserID)
	fmt.Fprintf(&sb, "Flight: %s (%s -> %s)\n\n", flight.FlightNo, flight.Origin, flight.Destination)
	sb.WriteString("Seats:\n")
	for _, a := range assignments {
		fmt.Fprintf(&sb, " - %s (%s)\n", a.SeatLabel, a.SeatClass)
	}
	fmt.Fprintf(&sb, "\nPayment Status: %s\n", booking.PaymentStatus)

	return renderMinimalPDF(sb.String()), nil
}

// renderMinimalPDF wraps the text in a single-page PDF skeleton. Kept
// deliberately tiny; a proper layout engine is not worth a dependency for a
// mock ticket.
func renderMinimalPDF(content string) []byte {
	pdf := "%PDF-1.4\n" +
		"1 0 obj <<>> endobj\n" +
		fmt.Sprintf("2 0 obj << /Length %d >>\n", len(content)) +
		"stream\n" + content + "\nendstream\nendobj\n" +
		"3 0 obj << /Type /Page /Parent 4 0 R /Contents 2 0 R >> endobj\n" +
		"4 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n" +
		"5 0 obj << /Type /Catalog /Pages 4 0 R >> endobj\n" +
		"xref\n0 6\n0000000000 65535 f \n" +
		"0000000010 00000 n \n" +
		"0000000053 00000 n \n" +
		"0000000120 00000 n \n" +
		"0000000175 00000 n \n" +
		"0000000227 00000 n \n" +
		"trailer << /Root 5 0 R /Size 6 >>\n" +
		"startxref\n278\n%%EOF"
	return []byte(pdf)
}

var _ TicketUseCase = (*TicketService)(nil)
