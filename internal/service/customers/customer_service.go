package customers

import (
	"context"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/Domenick1991/flightres/internal/repository"
)

type CustomerUseCase interface {
	LogIn(ctx context.Context, handle, password string) (*domain.Customer, error)
}

type CustomerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) LogIn(ctx context.Context, handle, password string) (*domain.Customer, error) {
	if handle == "" || password == "" {
		return nil, repository.ErrInvalidCredentials
	}
	return s.repo.Authenticate(ctx, handle, password)
}

var _ CustomerUseCase = (*CustomerService)(nil)
