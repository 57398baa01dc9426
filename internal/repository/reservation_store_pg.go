package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGReservationStore struct {
	db *pgxpool.Pool
}

func NewReservationStore(db *pgxpool.Pool) ReservationStore {
	return &PGReservationStore{db: db}
}

func (s *PGReservationStore) Begin(ctx context.Context) (ReservationTx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	return &pgReservationTx{tx: tx}, nil
}

func (s *PGReservationStore) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Flight, error) {
	rows, err := s.db.Query(ctx, `SELECT f.id, f.year, f.month_id, f.day_of_month, f.carrier_id, f.flight_num, f.origin_city, f.dest_city, f.actual_time
		FROM reservations r JOIN flights f ON f.id = r.flight_id
		WHERE r.customer_id=$1 ORDER BY f.id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Date.Year, &f.Date.Month, &f.Date.Day, &f.Carrier, &f.Number, &f.OriginCity, &f.DestCity, &f.DurationMinutes); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

type pgReservationTx struct {
	tx   pgx.Tx
	done bool
}

func (t *pgReservationTx) CountReservations(ctx context.Context, flightID int64) (int, error) {
	if t.done {
		return 0, ErrTxClosed
	}
	var n int
	if err := t.tx.QueryRow(ctx, `SELECT count(*) FROM reservations WHERE flight_id=$1`, flightID).Scan(&n); err != nil {
		return 0, mapPGError(err)
	}
	return n, nil
}

func (t *pgReservationTx) HasReservationOnDate(ctx context.Context, customerID int64, date domain.FlightDate) (bool, error) {
	if t.done {
		return false, ErrTxClosed
	}
	var exists bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM reservations r JOIN flights f ON f.id = r.flight_id
		WHERE r.customer_id=$1 AND f.year=$2 AND f.month_id=$3 AND f.day_of_month=$4)`,
		customerID, date.Year, date.Month, date.Day).Scan(&exists); err != nil {
		return false, mapPGError(err)
	}
	return exists, nil
}

func (t *pgReservationTx) Reserve(ctx context.Context, customerID, flightID int64) error {
	if t.done {
		return ErrTxClosed
	}
	if _, err := t.tx.Exec(ctx, `INSERT INTO reservations (customer_id, flight_id) VALUES ($1, $2)`, customerID, flightID); err != nil {
		return mapPGError(err)
	}
	return nil
}

func (t *pgReservationTx) Remove(ctx context.Context, customerID, flightID int64) error {
	if t.done {
		return ErrTxClosed
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM reservations WHERE customer_id=$1 AND flight_id=$2`, customerID, flightID); err != nil {
		return mapPGError(err)
	}
	return nil
}

func (t *pgReservationTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	if err := t.tx.Commit(ctx); err != nil {
		return mapPGError(err)
	}
	return nil
}

func (t *pgReservationTx) Rollback(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return t.tx.Rollback(ctx)
}

// mapPGError переводит коды ошибок Postgres в ошибки пакета:
// 40001/40P01 — конфликт сериализации, 23505 — дубликат брони.
func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return ErrTxConflict
		case "23505":
			return ErrDuplicateReservation
		}
	}
	return err
}

var _ ReservationStore = (*PGReservationStore)(nil)
var _ ReservationTx = (*pgReservationTx)(nil)
