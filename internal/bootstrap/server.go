package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightres/api"
	"github.com/Domenick1991/flightres/config"
	"github.com/Domenick1991/flightres/internal/service/booking"
	"github.com/Domenick1991/flightres/internal/service/customers"
	"github.com/Domenick1991/flightres/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, customerSvc customers.CustomerUseCase, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(customerSvc, flightSvc, bookingSvc),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(customerSvc customers.CustomerUseCase, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.Default()

	api.NewAuthHandler(customerSvc).Register(router.Group("/api/v1"))
	api.NewFlightHandler(flightSvc).Register(router.Group("/api/v1/flights"))
	api.NewReservationHandler(bookingSvc, flightSvc).Register(router.Group("/api/v1"))

	return router
}
