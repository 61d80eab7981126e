// Package store holds the database/sql adapters for ledger entries and
// identities.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/database"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

// LedgerStore persists expenses. FindByID returns models.ErrNotFound when no
// row has the id; every other failure is a *models.StoreError.
type LedgerStore interface {
	ListAll(ctx context.Context) ([]models.Expense, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Expense, error)
	FindByID(ctx context.Context, id int64) (*models.Expense, error)
	Insert(ctx context.Context, e models.Expense) (models.Expense, error)
	Update(ctx context.Context, e models.Expense) error
	Remove(ctx context.Context, id int64) error
}

// CredentialStore persists identities. FindByUsername returns
// models.ErrNotFound for an unknown name and Insert returns
// models.ErrDuplicateIdentity when the username is taken.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func rebind(d database.Dialect, query string) string {
	if d != database.Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
