package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/services"
)

const maxBodyBytes = 1_048_576 // 1 MB

var errMultipleObjects = errors.New("request body must only contain a single JSON object")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errMultipleObjects
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrDuplicateIdentity):
		services.SendErrorResponse(w, "Username already exists", http.StatusConflict, nil)
	case errors.Is(err, models.ErrInvalidCredentials):
		services.SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
	case errors.Is(err, models.ErrTokenInvalid):
		services.SendErrorResponse(w, "Invalid token", http.StatusUnauthorized, nil)
	case errors.Is(err, models.ErrNotFound):
		services.SendErrorResponse(w, "Expense not found", http.StatusNotFound, nil)
	case errors.Is(err, models.ErrTooManyAttempts):
		services.SendErrorResponse(w, "Too many failed login attempts", http.StatusTooManyRequests, nil)
	case errors.Is(err, models.ErrStoreUnavailable):
		services.SendErrorResponse(w, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	default:
		services.SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
	}
}
