package domain

import "time"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

type SeatClass string

const (
	SeatClassFirst    SeatClass = "FIRST"
	SeatClassBusiness SeatClass = "BUSINESS"
	SeatClassEconomy  SeatClass = "ECONOMY"
)

// Seat is one inventory row, unique per (FlightID, Label).
// BookingID is set only while BOOKED, HoldExpiresAt only while HELD.
type Seat struct {
	ID            int64      `json:"id"`
	FlightID      int64      `json:"flight_id"`
	Label         string     `json:"label"`
	Row           int        `json:"row"`
	Col           string     `json:"col"`
	Class         SeatClass  `json:"class"`
	Status        SeatStatus `json:"status"`
	BookingID     *int64     `json:"booking_id,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}
