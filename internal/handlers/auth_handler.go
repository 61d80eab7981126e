package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/services"
)

// AuthService is satisfied by *services.AuthService.
type AuthService interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// CredentialsRequest represents the register and login payload
// @Description Username and password
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=64" example:"alice"`    // Username
	Password string `json:"password" validate:"required,min=6" example:"hunter22"` // Password
}

// TokenResponse represents the authentication response
// @Description Bearer token for the authenticated identity
type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
}

type AuthHandler struct {
	service   AuthService
	validator *services.ValidationHelper
}

func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request, op string) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] %s failed - invalid request: %v", op, err)
		services.SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return req, false
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] %s validation failed: %v", op, err)
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return req, false
	}
	return req, true
}

// Register handles user registration
// @Summary Register a new user
// @Description Register an Owner identity and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Registration request"
// @Success 200 {object} TokenResponse "Registration successful"
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	req, ok := h.readCredentials(w, r, "Registration")
	if !ok {
		return
	}

	token, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Login handles user authentication
// @Summary Login user
// @Description Exchange username and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Login request"
// @Success 200 {object} TokenResponse "Login successful"
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	req, ok := h.readCredentials(w, r, "Login")
	if !ok {
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
