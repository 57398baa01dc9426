package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/Domenick1991/flightres/internal/repository"
	"github.com/Domenick1991/flightres/internal/service/booking"
	"github.com/Domenick1991/flightres/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	bookings booking.BookingUseCase
	flights  flights.FlightUseCase
}

type reservationRequest struct {
	CustomerID int64   `json:"customer_id"`
	FlightIDs  []int64 `json:"flight_ids"`
}

type bookingResponse struct {
	Result    string  `json:"result"`
	FlightIDs []int64 `json:"flight_ids,omitempty"`
}

func NewReservationHandler(bookings booking.BookingUseCase, flights flights.FlightUseCase) *ReservationHandler {
	return &ReservationHandler{bookings: bookings, flights: flights}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/reservations", h.book)
	router.DELETE("/reservations", h.cancel)
	router.GET("/customers/:id/reservations", h.list)
}

func (h *ReservationHandler) book(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CustomerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id is required"})
		return
	}

	itinerary := make(domain.Itinerary, 0, len(req.FlightIDs))
	for _, id := range req.FlightIDs {
		flight, err := h.flights.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrFlightNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown flight %d", id)})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		itinerary = append(itinerary, *flight)
	}

	result, err := h.bookings.Book(c.Request.Context(), req.CustomerID, itinerary)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := bookingResponse{Result: string(result), FlightIDs: req.FlightIDs}
	switch result {
	case domain.BookingAdded:
		c.JSON(http.StatusCreated, resp)
	case domain.BookingFlightFull, domain.BookingDayFull:
		c.JSON(http.StatusConflict, resp)
	default:
		c.JSON(http.StatusServiceUnavailable, resp)
	}
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CustomerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id is required"})
		return
	}
	if len(req.FlightIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "flight_ids are required"})
		return
	}

	if err := h.bookings.Cancel(c.Request.Context(), req.CustomerID, req.FlightIDs); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) list(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	reserved, err := h.bookings.ListReservations(c.Request.Context(), customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]flightResponse, 0, len(reserved))
	for _, f := range reserved {
		resp = append(resp, toFlightResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}
