package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/internal/domain"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/flights"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service      flights.FlightUseCase
	reservations reservation.ReservationUseCase
}

func NewFlightHandler(service flights.FlightUseCase, reservations reservation.ReservationUseCase) *FlightHandler {
	return &FlightHandler{service: service, reservations: reservations}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights", h.list)
	router.GET("/flights/search", h.search)
	router.GET("/flights/:id", h.get)
	router.GET("/flights/:id/seats", h.seats)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) search(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	date := c.Query("date")
	if origin == "" || destination == "" || date == "" {
		writeError(c, fmt.Errorf("%w: origin, destination and date are required", domain.ErrInvalidRequest))
		return
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		writeError(c, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidRequest))
		return
	}

	flights, err := h.service.Search(c.Request.Context(), origin, destination, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("%w: invalid flight id", domain.ErrInvalidRequest))
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) seats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, fmt.Errorf("%w: invalid flight id", domain.ErrInvalidRequest))
		return
	}
	seats, err := h.reservations.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}
