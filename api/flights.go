package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightres/internal/domain"
	"github.com/Domenick1991/flightres/internal/repository"
	"github.com/Domenick1991/flightres/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type flightResponse struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Carrier string `json:"carrier"`
	Number  string `json:"number"`
	Origin  string `json:"origin"`
	Dest    string `json:"dest"`
	Minutes int    `json:"minutes"`
}

type itineraryResponse struct {
	Flights      []flightResponse `json:"flights"`
	TotalMinutes int              `json:"total_minutes"`
}

func toFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		ID:      f.ID,
		Date:    f.Date.String(),
		Carrier: f.Carrier,
		Number:  f.Number,
		Origin:  f.OriginCity,
		Dest:    f.DestCity,
		Minutes: f.DurationMinutes,
	}
}

func toItineraryResponse(itinerary domain.Itinerary) itineraryResponse {
	resp := itineraryResponse{Flights: make([]flightResponse, 0, len(itinerary))}
	for _, f := range itinerary {
		resp.Flights = append(resp.Flights, toFlightResponse(f))
		resp.TotalMinutes += f.DurationMinutes
	}
	return resp
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.GET("/:id", h.get)
}

func (h *FlightHandler) search(c *gin.Context) {
	origin := c.Query("origin")
	dest := c.Query("dest")
	if origin == "" || dest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and dest are required"})
		return
	}
	date, err := domain.ParseFlightDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	itineraries, err := h.service.Search(c.Request.Context(), date, origin, dest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]itineraryResponse, 0, len(itineraries))
	for _, itinerary := range itineraries {
		resp = append(resp, toItineraryResponse(itinerary))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}
