package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightres/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	fmt.Printf("send email to customer %d about %s for flights %v\n", event.CustomerID, event.Type, event.FlightIDs)
	return nil
}
