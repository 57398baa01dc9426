package flights

import (
	"context"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/Domenick1991/flightres/internal/repository"
)

// maxSearchResults caps a search answer, direct flights counted first.
const maxSearchResults = 99

type FlightUseCase interface {
	Search(ctx context.Context, date domain.FlightDate, origin, dest string) ([]domain.Itinerary, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

type SearchCache interface {
	GetSearch(ctx context.Context, date domain.FlightDate, origin, dest string) ([]domain.Itinerary, error)
	SetSearch(ctx context.Context, date domain.FlightDate, origin, dest string, itineraries []domain.Itinerary) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache SearchCache
}

func NewFlightService(repo repository.FlightRepository, cache SearchCache) *FlightService {
	return &FlightService{repo: repo, cache: cache}
}

// Search возвращает до 99 маршрутов: сначала прямые рейсы, затем варианты
// с одной пересадкой, и те и другие от коротких к длинным.
func (s *FlightService) Search(ctx context.Context, date domain.FlightDate, origin, dest string) ([]domain.Itinerary, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, date, origin, dest); err == nil && cached != nil {
			return cached, nil
		}
	}

	direct, err := s.repo.SearchDirect(ctx, date, origin, dest, maxSearchResults)
	if err != nil {
		return nil, err
	}
	itineraries := make([]domain.Itinerary, 0, len(direct))
	for _, f := range direct {
		itineraries = append(itineraries, domain.Itinerary{f})
	}

	if remaining := maxSearchResults - len(itineraries); remaining > 0 {
		connecting, err := s.repo.SearchConnecting(ctx, date, origin, dest, remaining)
		if err != nil {
			return nil, err
		}
		itineraries = append(itineraries, connecting...)
	}

	if s.cache != nil {
		_ = s.cache.SetSearch(ctx, date, origin, dest, itineraries)
	}
	return itineraries, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

var _ FlightUseCase = (*FlightService)(nil)
