package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlightDate is a calendar day without time or zone, matching how the
// catalog stores schedules.
type FlightDate struct {
	Year  int
	Month int
	Day   int
}

func NewFlightDate(year, month, day int) FlightDate {
	return FlightDate{Year: year, Month: month, Day: day}
}

func ParseFlightDate(s string) (FlightDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return FlightDate{}, fmt.Errorf("parse flight date %q: %w", s, err)
	}
	return FlightDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func (d FlightDate) IsZero() bool {
	return d == FlightDate{}
}

func (d FlightDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d FlightDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *FlightDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFlightDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Flight struct {
	ID              int64
	Date            FlightDate
	Carrier         string
	Number          string
	OriginCity      string
	DestCity        string
	DurationMinutes int
}
