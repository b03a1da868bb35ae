package domain

import (
	"errors"
	"fmt"
)

// Expected, recoverable outcomes are surfaced to the caller verbatim.
// ErrStateViolation means a design invariant broke and is always a server
// fault, never a user error.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrNotFound         = errors.New("not found")
	ErrStateViolation   = errors.New("state violation")
	ErrBookingFinalized = errors.New("booking already finalized")
)

// SeatUnavailableError reports the first seat label that lost a hold race.
type SeatUnavailableError struct {
	Label string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat not available: %s", e.Label)
}
