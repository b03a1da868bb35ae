package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	want := ReservationEvent{
		Type:        "booking_held",
		BookingID:   11,
		PNR:         "7ABCD",
		UserID:      1,
		FlightID:    7,
		Seats:       []string{"3A", "3B"},
		AmountCents: 25000,
		Status:      "PENDING",
		ExpiresAt:   time.Date(2026, 3, 14, 12, 10, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	got, err := decodeEvent(payload)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := decodeEvent([]byte(`{"booking_id": "not a number"`))
	assert.Error(t, err)
}
