package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightres/internal/repository"
	"github.com/Domenick1991/flightres/internal/service/customers"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service customers.CustomerUseCase
}

type loginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type loginResponse struct {
	CustomerID int64  `json:"customer_id"`
	Handle     string `json:"handle"`
	FullName   string `json:"fullname"`
}

func NewAuthHandler(service customers.CustomerUseCase) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.service.LogIn(c.Request.Context(), req.Handle, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		CustomerID: customer.ID,
		Handle:     customer.Handle,
		FullName:   customer.FullName,
	})
}
