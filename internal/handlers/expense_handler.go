package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/middleware"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/services"
)

// ExpenseService is satisfied by *services.ExpenseService.
type ExpenseService interface {
	ListVisible(ctx context.Context, identity string, isAdmin bool) ([]models.Expense, error)
	GetOne(ctx context.Context, id int64, identity string, isAdmin bool) (*models.Expense, error)
	Create(ctx context.Context, draft models.ExpenseDraft, identity string) (*models.Expense, error)
	Update(ctx context.Context, id int64, draft models.ExpenseDraft, identity string, isAdmin bool) (*models.Expense, error)
	Delete(ctx context.Context, id int64, identity string, isAdmin bool) (bool, error)
}

// ExpenseRequest represents the create and update payload
// @Description Expense fields supplied by the caller
type ExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gte=0" swaggertype:"string" example:"12.50"` // Amount
	Category    string          `json:"category" validate:"required,max=100" example:"Food"`          // Category
	Description string          `json:"description" validate:"max=500" example:"Lunch"`               // Free text, stored HTML-escaped
	Date        time.Time       `json:"date" validate:"required" example:"2024-01-15T00:00:00Z"`      // Date of the expense
}

func (req ExpenseRequest) draft() models.ExpenseDraft {
	return models.ExpenseDraft{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	}
}

type ExpenseHandler struct {
	service   ExpenseService
	validator *services.ValidationHelper
}

func NewExpenseHandler(service ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

func caller(w http.ResponseWriter, r *http.Request) (string, bool, bool) {
	identity, isAdmin, ok := middleware.Caller(r.Context())
	if !ok || identity == "" {
		log.Printf("[EXPENSE] Unauthorized: caller missing from context")
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return "", false, false
	}
	return identity, isAdmin, true
}

func expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid expense id", http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}

func (h *ExpenseHandler) readExpense(w http.ResponseWriter, r *http.Request) (ExpenseRequest, bool) {
	var req ExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Printf("[EXPENSE] Decode error: %v", err)
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return req, false
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		log.Printf("[EXPENSE] Validation error: %v", err)
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return req, false
	}
	return req, true
}

// List returns the expenses visible to the caller
// @Summary List expenses
// @Description Administrators see every expense, owners see their own
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Expense
// @Failure 401 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /expenses [get]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, isAdmin, ok := caller(w, r)
	if !ok {
		return
	}

	expenses, err := h.service.ListVisible(r.Context(), identity, isAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// Get returns a single expense
// @Summary Get expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} models.Expense
// @Failure 404 {object} services.ErrorResponse
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, isAdmin, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	e, err := h.service.GetOne(r.Context(), id, identity, isAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Create records an expense owned by the caller
// @Summary Create expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "Expense"
// @Success 201 {object} models.Expense
// @Failure 400 {object} services.ErrorResponse
// @Router /expenses [post]
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := h.readExpense(w, r)
	if !ok {
		return
	}

	e, err := h.service.Create(r.Context(), req.draft(), identity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/expenses/%d", e.ID))
	writeJSON(w, http.StatusCreated, e)
}

// Update replaces the caller-supplied fields of an expense
// @Summary Update expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param request body ExpenseRequest true "Expense"
// @Success 200 {object} models.Expense
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, isAdmin, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := expenseID(w, r)
	if !ok {
		return
	}
	req, ok := h.readExpense(w, r)
	if !ok {
		return
	}

	e, err := h.service.Update(r.Context(), id, req.draft(), identity, isAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Delete removes an expense
// @Summary Delete expense
// @Tags expenses
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, isAdmin, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	deleted, err := h.service.Delete(r.Context(), id, identity, isAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		writeServiceError(w, models.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the expense endpoints on r.
func (h *ExpenseHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}
