package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/api"
	"github.com/Devdutta-2004/Airline-Booking-System/config"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/flights"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/reservation"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/ticket"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
	flightSvc flights.FlightUseCase,
	reservationSvc reservation.ReservationUseCase,
	ticketSvc ticket.TicketUseCase,
) error {
	router := gin.New()
	router.Use(gin.Recovery())

	group := router.Group("/api")
	api.NewFlightHandler(flightSvc, reservationSvc).Register(group)
	api.NewBookingHandler(reservationSvc, ticketSvc).Register(group)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/swagger/openapi.json", filepath.Join(cfg.HTTP.SwaggerDir, "openapi.json"))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("http server started", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
