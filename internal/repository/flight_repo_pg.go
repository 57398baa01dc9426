package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFlightNotFound = errors.New("flight not found")

type FlightRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	SearchDirect(ctx context.Context, date domain.FlightDate, origin, dest string, limit int) ([]domain.Flight, error)
	SearchConnecting(ctx context.Context, date domain.FlightDate, origin, dest string, limit int) ([]domain.Itinerary, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT id, year, month_id, day_of_month, carrier_id, flight_num, origin_city, dest_city, actual_time FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Date.Year, &f.Date.Month, &f.Date.Day, &f.Carrier, &f.Number, &f.OriginCity, &f.DestCity, &f.DurationMinutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) SearchDirect(ctx context.Context, date domain.FlightDate, origin, dest string, limit int) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT id, year, month_id, day_of_month, carrier_id, flight_num, origin_city, dest_city, actual_time
		FROM flights
		WHERE origin_city=$1 AND dest_city=$2 AND year=$3 AND month_id=$4 AND day_of_month=$5
		ORDER BY actual_time, id
		LIMIT $6`, origin, dest, date.Year, date.Month, date.Day, limit)
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

func (r *PGFlightRepository) SearchConnecting(ctx context.Context, date domain.FlightDate, origin, dest string, limit int) ([]domain.Itinerary, error) {
	rows, err := r.db.Query(ctx, `SELECT
			f1.id, f1.carrier_id, f1.flight_num, f1.origin_city, f1.dest_city, f1.actual_time,
			f2.id, f2.carrier_id, f2.flight_num, f2.origin_city, f2.dest_city, f2.actual_time
		FROM flights f1
		JOIN flights f2 ON f2.origin_city = f1.dest_city
			AND f2.year = f1.year AND f2.month_id = f1.month_id AND f2.day_of_month = f1.day_of_month
		WHERE f1.origin_city=$1 AND f2.dest_city=$2 AND f1.year=$3 AND f1.month_id=$4 AND f1.day_of_month=$5
		ORDER BY f1.actual_time + f2.actual_time, f1.id, f2.id
		LIMIT $6`, origin, dest, date.Year, date.Month, date.Day, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	itineraries := make([]domain.Itinerary, 0)
	for rows.Next() {
		first := domain.Flight{Date: date}
		second := domain.Flight{Date: date}
		if err := rows.Scan(
			&first.ID, &first.Carrier, &first.Number, &first.OriginCity, &first.DestCity, &first.DurationMinutes,
			&second.ID, &second.Carrier, &second.Number, &second.OriginCity, &second.DestCity, &second.DurationMinutes,
		); err != nil {
			return nil, err
		}
		itineraries = append(itineraries, domain.Itinerary{first, second})
	}
	return itineraries, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
