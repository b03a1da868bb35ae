package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Devdutta-2004/Airline-Booking-System/config"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/bootstrap"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/cache"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/kafka"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/repository"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/seed"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/flights"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/reservation"
	"github.com/Devdutta-2004/Airline-Booking-System/internal/service/ticket"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis,
		time.Duration(cfg.Booking.FlightsCacheTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.SeatMapCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	seatRepo := repository.NewSeatRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	atomic := repository.NewAtomic(pool)

	if err := seed.Seats(ctx, flightRepo, seatRepo, logger); err != nil {
		logger.Fatal("seed seats", zap.Error(err))
	}

	flightService := flights.NewFlightService(flightRepo, redisCache)
	reservationService := reservation.NewReservationService(
		seatRepo, bookingRepo, flightRepo, userRepo, atomic,
		redisCache, producer, cfg.Kafka.ReservationEventsTopic,
		cfg.Kafka.NotificationsTopic, cfg.Booking.HoldWindow(), logger,
	)
	ticketService := ticket.NewTicketService(bookingRepo, flightRepo)

	if err := bootstrap.Run(ctx, cfg, logger, flightService, reservationService, ticketService); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
