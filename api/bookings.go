package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/reservation"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/ticket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	reservations reservation.ReservationUseCase
	tickets      ticket.TicketUseCase
}

type holdRequest struct {
	UserID      int64    `json:"user_id" binding:"required"`
	FlightID    int64    `json:"flight_id" binding:"required"`
	Seats       []string `json:"seats" binding:"required"`
	AmountCents int64    `json:"amount_cents"`
}

type holdResponse struct {
	BookingID   int64  `json:"booking_id"`
	PNR         string `json:"pnr"`
	AmountCents int64  `json:"amount_cents"`
	ExpiresAt   string `json:"expires_at"`
}

type confirmRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
	Success   bool  `json:"success"`
}

func NewBookingHandler(reservations reservation.ReservationUseCase, tickets ticket.TicketUseCase) *BookingHandler {
	return &BookingHandler{reservations: reservations, tickets: tickets}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book/hold", h.hold)
	router.POST("/payment/confirm", h.confirm)
	router.GET("/bookings/:id/ticket", h.ticket)
}

func (h *BookingHandler) hold(c *gin.Context) {
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error()))
		return
	}

	result, err := h.reservations.Hold(c.Request.Context(), reservation.HoldInput{
		UserID:      req.UserID,
		FlightID:    req.FlightID,
		Seats:       req.Seats,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, holdResponse{
		BookingID:   result.BookingID,
		PNR:         result.PNR,
		AmountCents: result.AmountCents,
		ExpiresAt:   result.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err.Error()))
		return
	}

	txnRef := "MOCK-" + uuid.NewString()[:8]
	if _, err := h.reservations.Confirm(c.Request.Context(), req.BookingID, req.Success, txnRef); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": req.Success})
}

func (h *BookingHandler) ticket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("%w: invalid booking id", domain.ErrInvalidRequest))
		return
	}

	pdf, err := h.tickets.Render(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ticket_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
