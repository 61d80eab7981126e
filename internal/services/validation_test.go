package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Same tags as the handlers' request payloads.
type credentials struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,min=6"`
}

type expenseInput struct {
	Amount      decimal.Decimal `validate:"gte=0"`
	Category    string          `validate:"required,max=100"`
	Description string          `validate:"max=500"`
	Date        time.Time       `validate:"required"`
}

func validExpense() expenseInput {
	return expenseInput{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    "Food",
		Description: "Lunch",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	validationErrors, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	tags := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func TestValidationHelper_Credentials(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, vh.ValidateStruct(&credentials{Username: "alice", Password: "secret1"}))
	})

	t.Run("missing fields", func(t *testing.T) {
		tags := failedTags(t, vh.ValidateStruct(&credentials{}))
		assert.Equal(t, map[string]string{"Username": "required", "Password": "required"}, tags)
	})

	t.Run("short password", func(t *testing.T) {
		tags := failedTags(t, vh.ValidateStruct(&credentials{Username: "alice", Password: "abc"}))
		assert.Equal(t, map[string]string{"Password": "min"}, tags)
	})

	t.Run("six character password is enough", func(t *testing.T) {
		assert.NoError(t, vh.ValidateStruct(&credentials{Username: "alice", Password: "abcdef"}))
	})

	t.Run("long username", func(t *testing.T) {
		tags := failedTags(t, vh.ValidateStruct(&credentials{Username: strings.Repeat("a", 65), Password: "secret1"}))
		assert.Equal(t, map[string]string{"Username": "max"}, tags)
	})
}

func TestValidationHelper_Expense(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid", func(t *testing.T) {
		e := validExpense()
		assert.NoError(t, vh.ValidateStruct(&e))
	})

	t.Run("zero amount and empty description pass", func(t *testing.T) {
		e := validExpense()
		e.Amount = decimal.Zero
		e.Description = ""
		assert.NoError(t, vh.ValidateStruct(&e))
	})

	t.Run("negative amount", func(t *testing.T) {
		e := validExpense()
		e.Amount = decimal.RequireFromString("-0.01")
		assert.Equal(t, map[string]string{"Amount": "gte"}, failedTags(t, vh.ValidateStruct(&e)))
	})

	t.Run("missing category and date", func(t *testing.T) {
		e := validExpense()
		e.Category = ""
		e.Date = time.Time{}
		tags := failedTags(t, vh.ValidateStruct(&e))
		assert.Equal(t, map[string]string{"Category": "required", "Date": "required"}, tags)
	})

	t.Run("oversized text", func(t *testing.T) {
		e := validExpense()
		e.Category = strings.Repeat("c", 101)
		e.Description = strings.Repeat("d", 501)
		tags := failedTags(t, vh.ValidateStruct(&e))
		assert.Equal(t, map[string]string{"Category": "max", "Description": "max"}, tags)
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("plain error has no details", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Expense not found", http.StatusNotFound, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Expense not found", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("validation errors become per-field details", func(t *testing.T) {
		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&credentials{Username: "alice", Password: "abc"})
		require.Error(t, validationErr)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Validation failed", response.Error)
		assert.Equal(t, map[string]string{"Password": "Field Validation Failed on 'min' tag"}, response.Details)
	})

	t.Run("non-validation error adds no details", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Username already exists", http.StatusConflict, assert.AnError)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Nil(t, response.Details)
	})
}
