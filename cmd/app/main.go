package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightres/config"
	"github.com/Domenick1991/flightres/internal/bootstrap"
	"github.com/Domenick1991/flightres/internal/cache"
	"github.com/Domenick1991/flightres/internal/kafka"
	"github.com/Domenick1991/flightres/internal/repository"
	"github.com/Domenick1991/flightres/internal/service/booking"
	"github.com/Domenick1991/flightres/internal/service/customers"
	"github.com/Domenick1991/flightres/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store        repository.ReservationStore
		flightRepo   repository.FlightRepository
		customerRepo repository.CustomerRepository
	)
	switch cfg.Database.Driver {
	case "", "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		store = repository.NewReservationStore(pool)
		flightRepo = repository.NewFlightRepository(pool)
		customerRepo = repository.NewCustomerRepository(pool)
	case "memory":
		mem := repository.NewMemStore()
		if cfg.Database.SeedFile != "" {
			mem, err = repository.NewMemStoreFromFile(cfg.Database.SeedFile)
			if err != nil {
				log.Fatalf("load seed data: %v", err)
			}
		}
		store, flightRepo, customerRepo = mem, mem, mem
	default:
		log.Fatalf("unknown database driver %q", cfg.Database.Driver)
	}

	var searchCache flights.SearchCache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SearchCacheTTLSeconds)*time.Second)
		defer redisCache.Close()
		searchCache = redisCache
	}

	bookingOpts := []booking.BookingServiceOption{
		booking.WithConflictRetries(cfg.Booking.ConflictRetries),
	}
	if cfg.Kafka.NotificationsTopic != "" {
		bookingOpts = append(bookingOpts, booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
	}

	var bookingService *booking.BookingService
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		bookingService = booking.NewBookingService(store, producer, cfg.Kafka.ReservationsTopic, bookingOpts...)
	} else {
		bookingService = booking.NewBookingService(store, nil, "", bookingOpts...)
	}

	flightService := flights.NewFlightService(flightRepo, searchCache)
	customerService := customers.NewCustomerService(customerRepo)

	if err := bootstrap.Run(ctx, cfg, customerService, flightService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
