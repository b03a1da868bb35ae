package seed

import (
	"context"
	"fmt"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/repository"
	"go.uber.org/zap"
)

const seatColumns = 6

// Seats generates the seat map for every flight that has none yet:
// ceil(total/6) rows of columns A-F, rows 1-2 FIRST, 3-4 BUSINESS, the rest
// ECONOMY. Seat cardinality is fixed at flight setup and never changes.
func Seats(ctx context.Context, flights repository.FlightRepository, seats repository.SeatRepository, log *zap.Logger) error {
	all, err := flights.List(ctx)
	if err != nil {
		return err
	}

	for _, f := range all {
		existing, err := seats.ListSeats(ctx, f.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}

		total := f.SeatsTotal
		if total == 0 {
			total = 30
		}
		rows := (total + seatColumns - 1) / seatColumns

		toCreate := make([]domain.Seat, 0, rows*seatColumns)
		for r := 1; r <= rows; r++ {
			for c := 0; c < seatColumns; c++ {
				col := string(rune('A' + c))
				toCreate = append(toCreate, domain.Seat{
					FlightID: f.ID,
					Label:    fmt.Sprintf("%d%s", r, col),
					Row:      r,
					Col:      col,
					Class:    classForRow(r),
					Status:   domain.SeatStatusAvailable,
				})
			}
		}
		if err := seats.CreateBatch(ctx, toCreate); err != nil {
			return err
		}
		if err := flights.SetAvailable(ctx, f.ID, len(toCreate)); err != nil {
			return err
		}
		log.Info("seeded seat map", zap.Int64("flight_id", f.ID), zap.Int("seats", len(toCreate)))
	}
	return nil
}

func classForRow(row int) domain.SeatClass {
	switch {
	case row <= 2:
		return domain.SeatClassFirst
	case row <= 4:
		return domain.SeatClassBusiness
	default:
		return domain.SeatClassEconomy
	}
}
