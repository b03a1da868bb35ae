package api

import (
	"errors"
	"net/http"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/gin-gonic/gin"
)

// writeError maps the domain error taxonomy onto HTTP statuses: validation
// 400, missing resources 404, lost races and duplicate confirms 409,
// everything else (state violations included) 500.
func writeError(c *gin.Context, err error) {
	var seatErr *domain.SeatUnavailableError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &seatErr), errors.Is(err, domain.ErrBookingFinalized):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
