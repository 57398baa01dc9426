package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightres/internal/domain"
)

var (
	ErrTxClosed             = errors.New("transaction already finished")
	ErrTxConflict           = errors.New("transaction conflict")
	ErrDuplicateReservation = errors.New("reservation already exists")
)

type ReservationStore interface {
	Begin(ctx context.Context) (ReservationTx, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Flight, error)
}

// ReservationTx groups reads and writes of the reservation ledger into one
// serializable unit. After Commit or Rollback the transaction is finished and
// every further call returns ErrTxClosed.
type ReservationTx interface {
	CountReservations(ctx context.Context, flightID int64) (int, error)
	HasReservationOnDate(ctx context.Context, customerID int64, date domain.FlightDate) (bool, error)
	Reserve(ctx context.Context, customerID, flightID int64) error
	Remove(ctx context.Context, customerID, flightID int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
