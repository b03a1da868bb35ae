package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) ListSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) TryHold(ctx context.Context, flightID int64, label string, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, flightID, label, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatRepository) Release(ctx context.Context, flightID int64, labels []string) (int64, error) {
	args := m.Called(ctx, flightID, labels)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSeatRepository) Commit(ctx context.Context, flightID int64, labels []string, bookingID int64) (int64, error) {
	args := m.Called(ctx, flightID, labels, bookingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSeatRepository) SweepExpired(ctx context.Context, now time.Time) (int64, []int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Get(1).([]int64), args.Error(2)
}

func (m *MockSeatRepository) CreateBatch(ctx context.Context, seats []domain.Seat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateWithSeats(ctx context.Context, booking *domain.Booking, labels []string) error {
	args := m.Called(ctx, booking, labels)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetPayment(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRecord), args.Error(1)
}

func (m *MockBookingRepository) SeatLabels(ctx context.Context, bookingID int64) ([]string, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingRepository) Assignments(ctx context.Context, bookingID int64) ([]domain.SeatAssignment, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.SeatAssignment), args.Error(1)
}

func (m *MockBookingRepository) SetPaymentOutcome(ctx context.Context, bookingID int64, status domain.PaymentState, txnRef string) error {
	args := m.Called(ctx, bookingID, status, txnRef)
	return args.Error(0)
}

func (m *MockBookingRepository) SetBookingOutcome(ctx context.Context, bookingID int64, payment domain.PaymentStatus, status domain.BookingStatus) error {
	args := m.Called(ctx, bookingID, payment, status)
	return args.Error(0)
}

func (m *MockBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, origin, destination string, day time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, origin, destination, day)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) DecrementAvailable(ctx context.Context, flightID int64, n int) error {
	args := m.Called(ctx, flightID, n)
	return args.Error(0)
}

func (m *MockFlightRepository) SetAvailable(ctx context.Context, flightID int64, n int) error {
	args := m.Called(ctx, flightID, n)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// stubAtomic hands the callback the same repositories the service already
// holds; rollback is not simulated.
type stubAtomic struct {
	repos repository.Repositories
}

func (a *stubAtomic) Transact(ctx context.Context, fn func(r repository.Repositories) error) error {
	return fn(a.repos)
}

type fixture struct {
	seats    *MockSeatRepository
	bookings *MockBookingRepository
	flights  *MockFlightRepository
	users    *MockUserRepository
	producer *MockProducer
	service  *ReservationService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		seats:    &MockSeatRepository{},
		bookings: &MockBookingRepository{},
		flights:  &MockFlightRepository{},
		users:    &MockUserRepository{},
		producer: &MockProducer{},
		now:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	atomic := &stubAtomic{repos: repository.Repositories{
		Seats:    f.seats,
		Bookings: f.bookings,
		Flights:  f.flights,
	}}
	f.service = NewReservationService(
		f.seats, f.bookings, f.flights, f.users, atomic,
		nil, f.producer, "reservation_events", "reservation_notifications",
		10*time.Minute, zap.NewNop(),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func TestReservationService_Hold_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expires := f.now.Add(10 * time.Minute)

	f.users.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1}, nil).Once()
	f.flights.On("GetByID", ctx, int64(7)).Return(&domain.Flight{ID: 7}, nil).Once()
	f.seats.On("TryHold", ctx, int64(7), "3A", expires).Return(true, nil).Once()
	f.seats.On("TryHold", ctx, int64(7), "3B", expires).Return(true, nil).Once()
	f.bookings.On("CreateWithSeats", ctx, mock.AnythingOfType("*domain.Booking"), []string{"3A", "3B"}).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 11
		}).Return(nil).Once()
	f.producer.On("Publish", ctx, "reservation_events", mock.Anything, mock.Anything).Return(nil).Once()
	f.producer.On("Publish", ctx, "reservation_notifications", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := f.service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7, Seats: []string{"3A", "3B"}, AmountCents: 25000})

	require.NoError(t, err)
	assert.Equal(t, int64(11), result.BookingID)
	assert.NotEmpty(t, result.PNR)
	assert.Equal(t, int64(25000), result.AmountCents)
	assert.Equal(t, expires, result.ExpiresAt)

	f.seats.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestReservationService_Hold_NoSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1}, nil).Once()
	f.flights.On("GetByID", ctx, int64(7)).Return(&domain.Flight{ID: 7}, nil).Once()

	_, err := f.service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7})

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	f.seats.AssertNotCalled(t, "TryHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Hold_DuplicateSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1}, nil).Once()
	f.flights.On("GetByID", ctx, int64(7)).Return(&domain.Flight{ID: 7}, nil).Once()

	_, err := f.service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7, Seats: []string{"3A", "3A"}})

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestReservationService_Hold_UserNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("GetByID", ctx, int64(99)).Return(nil, fmt.Errorf("user 99: %w", domain.ErrNotFound)).Once()

	_, err := f.service.Hold(ctx, HoldInput{UserID: 99, FlightID: 7, Seats: []string{"3A"}})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationService_Hold_UnknownUserReportedBeforeSeatValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.users.On("GetByID", ctx, int64(99)).Return(nil, fmt.Errorf("user 99: %w", domain.ErrNotFound)).Once()

	// empty seat list and unknown user together: existence wins
	_, err := f.service.Hold(ctx, HoldInput{UserID: 99, FlightID: 7})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestReservationService_Hold_SeatUnavailable_RollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expires := f.now.Add(10 * time.Minute)

	f.users.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1}, nil).Once()
	f.flights.On("GetByID", ctx, int64(7)).Return(&domain.Flight{ID: 7}, nil).Once()
	f.seats.On("TryHold", ctx, int64(7), "3A", expires).Return(true, nil).Once()
	f.seats.On("TryHold", ctx, int64(7), "3B", expires).Return(false, nil).Once()
	f.seats.On("Release", ctx, int64(7), []string{"3A"}).Return(int64(1), nil).Once()

	_, err := f.service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7, Seats: []string{"3A", "3B"}})

	var su *domain.SeatUnavailableError
	require.ErrorAs(t, err, &su)
	assert.Equal(t, "3B", su.Label)

	f.seats.AssertExpectations(t)
	f.bookings.AssertNotCalled(t, "CreateWithSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Hold_LedgerFailure_ReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expires := f.now.Add(10 * time.Minute)

	f.users.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1}, nil).Once()
	f.flights.On("GetByID", ctx, int64(7)).Return(&domain.Flight{ID: 7}, nil).Once()
	f.seats.On("TryHold", ctx, int64(7), "3A", expires).Return(true, nil).Once()
	f.seats.On("TryHold", ctx, int64(7), "3B", expires).Return(true, nil).Once()
	f.bookings.On("CreateWithSeats", ctx, mock.Anything, []string{"3A", "3B"}).Return(errors.New("insert failed")).Once()
	// compensation runs in reverse claim order
	f.seats.On("Release", ctx, int64(7), []string{"3B"}).Return(int64(1), nil).Once()
	f.seats.On("Release", ctx, int64(7), []string{"3A"}).Return(int64(1), nil).Once()

	_, err := f.service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7, Seats: []string{"3A", "3B"}})

	assert.EqualError(t, err, "insert failed")
	f.seats.AssertExpectations(t)
}

func pendingBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:            id,
		UserID:        1,
		FlightID:      7,
		PNR:           "7TEST",
		SeatsBooked:   2,
		TotalCents:    25000,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.BookingStatusPending,
	}
}

func TestReservationService_Confirm_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(11)).Return(pendingBooking(11), nil).Once()
	f.bookings.On("GetPayment", ctx, int64(11)).Return(&domain.PaymentRecord{ID: 5, BookingID: 11, Status: domain.PaymentStatePending}, nil).Once()
	f.bookings.On("SeatLabels", ctx, int64(11)).Return([]string{"3A", "3B"}, nil).Once()
	f.bookings.On("SetPaymentOutcome", ctx, int64(11), domain.PaymentStateSuccess, "MOCK-abc").Return(nil).Once()
	f.bookings.On("SetBookingOutcome", ctx, int64(11), domain.PaymentStatusPaid, domain.BookingStatusConfirmed).Return(nil).Once()
	f.seats.On("Commit", ctx, int64(7), []string{"3A", "3B"}, int64(11)).Return(int64(2), nil).Once()
	f.flights.On("DecrementAvailable", ctx, int64(7), 2).Return(nil).Once()
	f.producer.On("Publish", ctx, "reservation_events", "7TEST", mock.Anything).Return(nil).Once()
	f.producer.On("Publish", ctx, "reservation_notifications", "7TEST", mock.Anything).Return(nil).Once()

	booking, err := f.service.Confirm(ctx, 11, true, "MOCK-abc")

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, booking.PaymentStatus)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)

	f.bookings.AssertExpectations(t)
	f.seats.AssertExpectations(t)
	f.flights.AssertExpectations(t)
}

func TestReservationService_Confirm_CommitCountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(11)).Return(pendingBooking(11), nil).Once()
	f.bookings.On("GetPayment", ctx, int64(11)).Return(&domain.PaymentRecord{ID: 5, BookingID: 11, Status: domain.PaymentStatePending}, nil).Once()
	f.bookings.On("SeatLabels", ctx, int64(11)).Return([]string{"3A", "3B"}, nil).Once()
	f.bookings.On("SetPaymentOutcome", ctx, int64(11), domain.PaymentStateSuccess, "MOCK-abc").Return(nil).Once()
	f.bookings.On("SetBookingOutcome", ctx, int64(11), domain.PaymentStatusPaid, domain.BookingStatusConfirmed).Return(nil).Once()
	// the sweeper reclaimed one seat before the commit
	f.seats.On("Commit", ctx, int64(7), []string{"3A", "3B"}, int64(11)).Return(int64(1), nil).Once()

	_, err := f.service.Confirm(ctx, 11, true, "MOCK-abc")

	assert.ErrorIs(t, err, domain.ErrStateViolation)
	f.flights.AssertNotCalled(t, "DecrementAvailable", mock.Anything, mock.Anything, mock.Anything)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Confirm_Failure_ReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(11)).Return(pendingBooking(11), nil).Once()
	f.bookings.On("GetPayment", ctx, int64(11)).Return(&domain.PaymentRecord{ID: 5, BookingID: 11, Status: domain.PaymentStatePending}, nil).Once()
	f.bookings.On("SeatLabels", ctx, int64(11)).Return([]string{"3A", "3B"}, nil).Once()
	f.bookings.On("SetPaymentOutcome", ctx, int64(11), domain.PaymentStateFailed, "MOCK-abc").Return(nil).Once()
	f.bookings.On("SetBookingOutcome", ctx, int64(11), domain.PaymentStatusFailed, domain.BookingStatusFailed).Return(nil).Once()
	f.seats.On("Release", ctx, int64(7), []string{"3A", "3B"}).Return(int64(2), nil).Once()
	f.producer.On("Publish", ctx, "reservation_events", "7TEST", mock.Anything).Return(nil).Once()
	f.producer.On("Publish", ctx, "reservation_notifications", "7TEST", mock.Anything).Return(nil).Once()

	booking, err := f.service.Confirm(ctx, 11, false, "MOCK-abc")

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, booking.PaymentStatus)
	assert.Equal(t, domain.BookingStatusFailed, booking.Status)
	f.seats.AssertExpectations(t)
}

func TestReservationService_Confirm_AlreadyFinalized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	confirmed := pendingBooking(11)
	confirmed.Status = domain.BookingStatusConfirmed
	confirmed.PaymentStatus = domain.PaymentStatusPaid
	f.bookings.On("GetByID", ctx, int64(11)).Return(confirmed, nil).Once()

	_, err := f.service.Confirm(ctx, 11, true, "MOCK-abc")

	assert.ErrorIs(t, err, domain.ErrBookingFinalized)
	f.bookings.AssertNotCalled(t, "SetPaymentOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Confirm_PaymentMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(11)).Return(pendingBooking(11), nil).Once()
	f.bookings.On("GetPayment", ctx, int64(11)).Return(nil, fmt.Errorf("payment for booking 11: %w", domain.ErrNotFound)).Once()

	_, err := f.service.Confirm(ctx, 11, true, "MOCK-abc")

	assert.ErrorIs(t, err, domain.ErrStateViolation)
}

func TestReservationService_Confirm_PaymentLookupFailure_Propagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(11)).Return(pendingBooking(11), nil).Once()
	f.bookings.On("GetPayment", ctx, int64(11)).Return(nil, errors.New("connection reset")).Once()

	_, err := f.service.Confirm(ctx, 11, true, "MOCK-abc")

	assert.EqualError(t, err, "connection reset")
	assert.NotErrorIs(t, err, domain.ErrStateViolation)
	f.bookings.AssertNotCalled(t, "SetPaymentOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationService_Confirm_BookingNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(404)).Return(nil, fmt.Errorf("booking 404: %w", domain.ErrNotFound)).Once()

	_, err := f.service.Confirm(ctx, 404, true, "MOCK-abc")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- end-to-end over the in-memory stores ----

type memLedger struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
	seats    map[int64][]domain.SeatAssignment
	payments map[int64]*domain.PaymentRecord
}

func newMemLedger() *memLedger {
	return &memLedger{
		bookings: make(map[int64]*domain.Booking),
		seats:    make(map[int64][]domain.SeatAssignment),
		payments: make(map[int64]*domain.PaymentRecord),
	}
}

func (l *memLedger) CreateWithSeats(ctx context.Context, booking *domain.Booking, labels []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	booking.ID = l.nextID
	booking.SeatsBooked = len(labels)
	booking.PaymentStatus = domain.PaymentStatusPending
	booking.Status = domain.BookingStatusPending
	booking.CreatedAt = time.Now()
	copied := *booking
	l.bookings[booking.ID] = &copied
	for _, label := range labels {
		l.seats[booking.ID] = append(l.seats[booking.ID], domain.SeatAssignment{BookingID: booking.ID, SeatLabel: label})
	}
	l.payments[booking.ID] = &domain.PaymentRecord{
		ID: booking.ID, BookingID: booking.ID, AmountCents: booking.TotalCents,
		Method: "MOCK", Status: domain.PaymentStatePending, CreatedAt: time.Now(),
	}
	return nil
}

func (l *memLedger) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, domain.ErrNotFound)
	}
	copied := *b
	return &copied, nil
}

func (l *memLedger) GetPayment(ctx context.Context, bookingID int64) (*domain.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[bookingID]
	if !ok {
		return nil, fmt.Errorf("payment for booking %d: %w", bookingID, domain.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (l *memLedger) SeatLabels(ctx context.Context, bookingID int64) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var labels []string
	for _, a := range l.seats[bookingID] {
		labels = append(labels, a.SeatLabel)
	}
	return labels, nil
}

func (l *memLedger) Assignments(ctx context.Context, bookingID int64) ([]domain.SeatAssignment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SeatAssignment(nil), l.seats[bookingID]...), nil
}

func (l *memLedger) SetPaymentOutcome(ctx context.Context, bookingID int64, status domain.PaymentState, txnRef string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[bookingID]
	if !ok || p.Status != domain.PaymentStatePending {
		return fmt.Errorf("%w: payment for booking %d is not pending", domain.ErrStateViolation, bookingID)
	}
	p.Status = status
	p.TxnRef = txnRef
	return nil
}

func (l *memLedger) SetBookingOutcome(ctx context.Context, bookingID int64, payment domain.PaymentStatus, status domain.BookingStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %d: %w", bookingID, domain.ErrNotFound)
	}
	b.PaymentStatus = payment
	b.Status = status
	return nil
}

func (l *memLedger) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var expired []domain.Booking
	for _, b := range l.bookings {
		if b.Status == domain.BookingStatusPending && !b.ExpiresAt.After(deadline) {
			b.Status = domain.BookingStatusFailed
			b.PaymentStatus = domain.PaymentStatusFailed
			if p := l.payments[b.ID]; p != nil && p.Status == domain.PaymentStatePending {
				p.Status = domain.PaymentStateFailed
				p.TxnRef = "EXPIRED"
			}
			expired = append(expired, *b)
		}
	}
	return expired, nil
}

var _ repository.BookingRepository = (*memLedger)(nil)

func TestReservationService_EndToEnd_HoldThenConfirm(t *testing.T) {
	ctx := context.Background()
	seats := repository.NewMemSeatRepository()
	require.NoError(t, seats.CreateBatch(ctx, []domain.Seat{
		{FlightID: 7, Label: "3A", Row: 3, Col: "A", Class: domain.SeatClassBusiness},
		{FlightID: 7, Label: "3B", Row: 3, Col: "B", Class: domain.SeatClassBusiness},
		{FlightID: 7, Label: "3C", Row: 3, Col: "C", Class: domain.SeatClassBusiness},
	}))
	ledger := newMemLedger()
	flights := &MockFlightRepository{}
	users := &MockUserRepository{}
	flights.On("GetByID", ctx, int64(7)).Return(&domain.Flight{ID: 7, SeatsAvailable: 3}, nil)
	flights.On("DecrementAvailable", ctx, int64(7), 2).Return(nil).Once()
	users.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1}, nil)

	atomic := &stubAtomic{repos: repository.Repositories{Seats: seats, Bookings: ledger, Flights: flights}}
	now := time.Now()
	service := NewReservationService(seats, ledger, flights, users, atomic,
		nil, nil, "", "", 10*time.Minute, zap.NewNop(),
		WithClock(func() time.Time { return now }))

	result, err := service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7, Seats: []string{"3A", "3B"}, AmountCents: 25000})
	require.NoError(t, err)
	assert.NotEmpty(t, result.PNR)
	assert.Equal(t, now.Add(10*time.Minute), result.ExpiresAt)

	// a competing hold for an already-held seat fails and leaves 3C free
	_, err = service.Hold(ctx, HoldInput{UserID: 1, FlightID: 7, Seats: []string{"3C", "3B"}, AmountCents: 12500})
	var su *domain.SeatUnavailableError
	require.ErrorAs(t, err, &su)
	assert.Equal(t, "3B", su.Label)

	snapshot, err := seats.ListSeats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatStatusHeld, snapshot[0].Status)  // 3A
	assert.Equal(t, domain.SeatStatusHeld, snapshot[1].Status)  // 3B
	assert.Equal(t, domain.SeatStatusAvailable, snapshot[2].Status, "rolled back")

	booking, err := service.Confirm(ctx, result.BookingID, true, "MOCK-e2e")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, domain.PaymentStatusPaid, booking.PaymentStatus)

	snapshot, err = seats.ListSeats(ctx, 7)
	require.NoError(t, err)
	for _, s := range snapshot[:2] {
		assert.Equal(t, domain.SeatStatusBooked, s.Status)
		require.NotNil(t, s.BookingID)
		assert.Equal(t, result.BookingID, *s.BookingID)
		assert.Nil(t, s.HoldExpiresAt)
	}

	payment, err := ledger.GetPayment(ctx, result.BookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStateSuccess, payment.Status)
	assert.Equal(t, "MOCK-e2e", payment.TxnRef)

	_, err = service.Confirm(ctx, result.BookingID, true, "MOCK-again")
	assert.ErrorIs(t, err, domain.ErrBookingFinalized)

	flights.AssertExpectations(t)
}
