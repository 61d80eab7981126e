package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single ledger entry. UserID is fixed at creation.
type Expense struct {
	ID          int64           `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"` // HTML-escaped
	Date        time.Time       `json:"date" db:"date"`
}

// ExpenseDraft carries the caller-supplied fields of a create or update.
type ExpenseDraft struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}
