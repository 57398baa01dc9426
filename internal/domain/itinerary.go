package domain

import (
	"errors"
	"fmt"
)

// MaxItineraryLegs ограничивает маршрут прямым перелетом или одной пересадкой.
const MaxItineraryLegs = 2

var ErrInvalidItinerary = errors.New("invalid itinerary")

// Itinerary is the list of flights a customer books as a single unit.
type Itinerary []Flight

func (i Itinerary) Validate() error {
	if len(i) == 0 {
		return fmt.Errorf("%w: no flights", ErrInvalidItinerary)
	}
	if len(i) > MaxItineraryLegs {
		return fmt.Errorf("%w: more than %d flights", ErrInvalidItinerary, MaxItineraryLegs)
	}
	date := i[0].Date
	for _, f := range i[1:] {
		if f.Date != date {
			return fmt.Errorf("%w: flights on different dates", ErrInvalidItinerary)
		}
	}
	return nil
}

func (i Itinerary) Date() FlightDate {
	if len(i) == 0 {
		return FlightDate{}
	}
	return i[0].Date
}

func (i Itinerary) FlightIDs() []int64 {
	ids := make([]int64, 0, len(i))
	for _, f := range i {
		ids = append(ids, f.ID)
	}
	return ids
}
