package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
)

type seatKey struct {
	flightID int64
	label    string
}

type memSeat struct {
	mu   sync.Mutex // serializes transitions on this one seat
	seat domain.Seat
}

// MemSeatRepository is the in-process SeatRepository: one mutex per seat
// guarding a compare-and-set on the status. The index lock only protects the
// map itself, so unrelated seats never contend.
type MemSeatRepository struct {
	mu     sync.RWMutex
	seats  map[seatKey]*memSeat
	nextID int64
}

func NewMemSeatRepository() *MemSeatRepository {
	return &MemSeatRepository{seats: make(map[seatKey]*memSeat)}
}

func (r *MemSeatRepository) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	r.mu.RLock()
	entries := make([]*memSeat, 0)
	for k, ms := range r.seats {
		if k.flightID == flightID {
			entries = append(entries, ms)
		}
	}
	r.mu.RUnlock()

	seats := make([]domain.Seat, 0, len(entries))
	for _, ms := range entries {
		ms.mu.Lock()
		seats = append(seats, ms.seat)
		ms.mu.Unlock()
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Col < seats[j].Col
	})
	return seats, nil
}

func (r *MemSeatRepository) TryHold(ctx context.Context, flightID int64, label string, expiresAt time.Time) (bool, error) {
	ms := r.lookup(flightID, label)
	if ms == nil {
		return false, nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.seat.Status != domain.SeatStatusAvailable {
		return false, nil
	}
	exp := expiresAt
	ms.seat.Status = domain.SeatStatusHeld
	ms.seat.HoldExpiresAt = &exp
	return true, nil
}

func (r *MemSeatRepository) Release(ctx context.Context, flightID int64, labels []string) (int64, error) {
	var n int64
	for _, label := range labels {
		ms := r.lookup(flightID, label)
		if ms == nil {
			continue
		}
		ms.mu.Lock()
		if ms.seat.Status == domain.SeatStatusHeld {
			ms.seat.Status = domain.SeatStatusAvailable
			ms.seat.HoldExpiresAt = nil
			n++
		}
		ms.mu.Unlock()
	}
	return n, nil
}

func (r *MemSeatRepository) Commit(ctx context.Context, flightID int64, labels []string, bookingID int64) (int64, error) {
	var n int64
	for _, label := range labels {
		ms := r.lookup(flightID, label)
		if ms == nil {
			continue
		}
		ms.mu.Lock()
		if ms.seat.Status == domain.SeatStatusHeld {
			id := bookingID
			ms.seat.Status = domain.SeatStatusBooked
			ms.seat.BookingID = &id
			ms.seat.HoldExpiresAt = nil
			n++
		}
		ms.mu.Unlock()
	}
	return n, nil
}

func (r *MemSeatRepository) SweepExpired(ctx context.Context, now time.Time) (int64, []int64, error) {
	r.mu.RLock()
	entries := make([]*memSeat, 0, len(r.seats))
	for _, ms := range r.seats {
		entries = append(entries, ms)
	}
	r.mu.RUnlock()

	var count int64
	seen := make(map[int64]struct{})
	var flightIDs []int64
	for _, ms := range entries {
		ms.mu.Lock()
		if ms.seat.Status == domain.SeatStatusHeld && ms.seat.HoldExpiresAt != nil && ms.seat.HoldExpiresAt.Before(now) {
			ms.seat.Status = domain.SeatStatusAvailable
			ms.seat.HoldExpiresAt = nil
			ms.seat.BookingID = nil
			count++
			if _, ok := seen[ms.seat.FlightID]; !ok {
				seen[ms.seat.FlightID] = struct{}{}
				flightIDs = append(flightIDs, ms.seat.FlightID)
			}
		}
		ms.mu.Unlock()
	}
	return count, flightIDs, nil
}

func (r *MemSeatRepository) CreateBatch(ctx context.Context, seats []domain.Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range seats {
		r.nextID++
		s.ID = r.nextID
		if s.Status == "" {
			s.Status = domain.SeatStatusAvailable
		}
		r.seats[seatKey{flightID: s.FlightID, label: s.Label}] = &memSeat{seat: s}
	}
	return nil
}

func (r *MemSeatRepository) lookup(flightID int64, label string) *memSeat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seats[seatKey{flightID: flightID, label: label}]
}

var _ SeatRepository = (*MemSeatRepository)(nil)
