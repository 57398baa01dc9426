package booking

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/Domenick1991/flightres/internal/kafka"
	"github.com/Domenick1991/flightres/internal/repository"
	"github.com/google/uuid"
)

// MaxFlightBookings is the seat capacity of every flight.
const MaxFlightBookings = 3

type BookingUseCase interface {
	Book(ctx context.Context, customerID int64, itinerary domain.Itinerary) (domain.BookingResult, error)
	Cancel(ctx context.Context, customerID int64, flightIDs []int64) error
	ListReservations(ctx context.Context, customerID int64) ([]domain.Flight, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.ReservationStore
	producer           Producer
	reservationsTopic  string
	notificationsTopic string
	conflictRetries    int
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithConflictRetries повторяет транзакцию при конфликте сериализации.
// По умолчанию повторов нет и вызывающий получает BookingFailed.
func WithConflictRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.conflictRetries = n
	}
}

func NewBookingService(
	store repository.ReservationStore,
	producer Producer,
	reservationsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:             store,
		producer:          producer,
		reservationsTopic: reservationsTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book books every flight of the itinerary for the customer, or nothing at
// all. The whole decision runs inside one serializable transaction: the
// customer must have no other reservation on that day, and every flight must
// still have a free seat. A transaction that cannot complete reports
// BookingFailed; the error return is reserved for invalid input.
func (s *BookingService) Book(ctx context.Context, customerID int64, itinerary domain.Itinerary) (domain.BookingResult, error) {
	if err := itinerary.Validate(); err != nil {
		return "", err
	}

	result, err := s.tryBook(ctx, customerID, itinerary)
	for attempt := 0; attempt < s.conflictRetries && errors.Is(err, repository.ErrTxConflict); attempt++ {
		log.Printf("booking conflict for customer %d, retrying (%d/%d)", customerID, attempt+1, s.conflictRetries)
		result, err = s.tryBook(ctx, customerID, itinerary)
	}
	if err != nil {
		log.Printf("booking failed for customer %d: %v", customerID, err)
		return domain.BookingFailed, nil
	}

	if result == domain.BookingAdded {
		event := kafka.ReservationEvent{
			EventID:    uuid.NewString(),
			Type:       kafka.EventTypeBooked,
			CustomerID: customerID,
			Date:       itinerary.Date().String(),
			FlightIDs:  itinerary.FlightIDs(),
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publish(ctx, event); err != nil {
			log.Printf("WARNING: failed to publish %s event for customer %d: %v", event.Type, customerID, err)
		}
	}
	return result, nil
}

func (s *BookingService) tryBook(ctx context.Context, customerID int64, itinerary domain.Itinerary) (domain.BookingResult, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.BookingFailed, err
	}
	defer tx.Rollback(ctx)

	busy, err := tx.HasReservationOnDate(ctx, customerID, itinerary.Date())
	if err != nil {
		return domain.BookingFailed, err
	}
	if busy {
		return domain.BookingDayFull, nil
	}

	// сначала проверяем места на всех участках, потом пишем
	for _, f := range itinerary {
		n, err := tx.CountReservations(ctx, f.ID)
		if err != nil {
			return domain.BookingFailed, err
		}
		if n >= MaxFlightBookings {
			return domain.BookingFlightFull, nil
		}
	}

	for _, f := range itinerary {
		if err := tx.Reserve(ctx, customerID, f.ID); err != nil {
			return domain.BookingFailed, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.BookingFailed, err
	}
	return domain.BookingAdded, nil
}

// Cancel removes the listed reservations. Flights the customer never booked
// are skipped silently, so a repeated cancel is harmless.
func (s *BookingService) Cancel(ctx context.Context, customerID int64, flightIDs []int64) error {
	if len(flightIDs) == 0 {
		return errors.New("no flights to cancel")
	}

	err := s.tryCancel(ctx, customerID, flightIDs)
	for attempt := 0; attempt < s.conflictRetries && errors.Is(err, repository.ErrTxConflict); attempt++ {
		log.Printf("cancel conflict for customer %d, retrying (%d/%d)", customerID, attempt+1, s.conflictRetries)
		err = s.tryCancel(ctx, customerID, flightIDs)
	}
	if err != nil {
		return err
	}

	event := kafka.ReservationEvent{
		EventID:    uuid.NewString(),
		Type:       kafka.EventTypeCancelled,
		CustomerID: customerID,
		FlightIDs:  flightIDs,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publish(ctx, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for customer %d: %v", event.Type, customerID, err)
	}
	return nil
}

func (s *BookingService) tryCancel(ctx context.Context, customerID int64, flightIDs []int64) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, id := range flightIDs {
		if err := tx.Remove(ctx, customerID, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *BookingService) ListReservations(ctx context.Context, customerID int64) ([]domain.Flight, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

func (s *BookingService) publish(ctx context.Context, event kafka.ReservationEvent) error {
	if s.producer == nil || s.reservationsTopic == "" {
		return nil
	}
	key := strconv.FormatInt(event.CustomerID, 10)
	if err := s.producer.Publish(ctx, s.reservationsTopic, key, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, key, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
