package domain

type BookingResult string

const (
	BookingAdded      BookingResult = "ADDED"
	BookingFlightFull BookingResult = "FLIGHT_FULL"
	BookingDayFull    BookingResult = "DAY_FULL"
	BookingFailed     BookingResult = "FAILED"
)

type Reservation struct {
	CustomerID int64
	FlightID   int64
}
