package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidCredentials = errors.New("unknown handle or wrong password")

type CustomerRepository interface {
	Authenticate(ctx context.Context, handle, password string) (*domain.Customer, error)
}

type PGCustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &PGCustomerRepository{db: db}
}

func (r *PGCustomerRepository) Authenticate(ctx context.Context, handle, password string) (*domain.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT id, handle, fullname FROM customers WHERE handle=$1 AND password=$2`, handle, password)
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Handle, &c.FullName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &c, nil
}

var _ CustomerRepository = (*PGCustomerRepository)(nil)
