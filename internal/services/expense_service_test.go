package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/audit"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/cache"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

var anyCtx = mock.Anything

func newExpenseService(t *testing.T, policy InvalidationPolicy) (*ExpenseService, *MockLedgerStore, *cache.ScopedCache) {
	t.Helper()
	ledger := new(MockLedgerStore)
	scoped := cache.New(time.Minute)
	svc := NewExpenseService(ledger, scoped, ExpenseServiceConfig{
		Policy:       policy,
		StoreTimeout: time.Second,
		Audit:        audit.NewLoggerTo(io.Discard),
	})
	return svc, ledger, scoped
}

func expense(id int64, owner, category string) models.Expense {
	return models.Expense{
		ID:       id,
		UserID:   owner,
		Amount:   decimal.RequireFromString("10.00"),
		Category: category,
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func lunchDraft() models.ExpenseDraft {
	return models.ExpenseDraft{
		Amount:      decimal.RequireFromString("12.50"),
		Category:    "Food",
		Description: "<b>Lunch</b>",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestParseInvalidationPolicy(t *testing.T) {
	p, err := ParseInvalidationPolicy("owner_aware")
	assert.NoError(t, err)
	assert.Equal(t, OwnerAwareInvalidation, p)

	p, err = ParseInvalidationPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, OwnerAwareInvalidation, p)

	p, err = ParseInvalidationPolicy("legacy")
	assert.NoError(t, err)
	assert.Equal(t, LegacyInvalidation, p)

	_, err = ParseInvalidationPolicy("sometimes")
	assert.Error(t, err)
}

func TestExpenseService_ListVisible(t *testing.T) {
	t.Run("owner sees own entries and second read is a hit", func(t *testing.T) {
		svc, ledger, scoped := newExpenseService(t, OwnerAwareInvalidation)
		own := []models.Expense{expense(1, "alice", "Food")}
		ledger.On("ListByOwner", anyCtx, "alice").Return(own, nil).Once()

		first, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		second, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)

		assert.Equal(t, own, first)
		assert.Equal(t, first, second)
		assert.Equal(t, uint64(1), scoped.Stats().Hits)
		ledger.AssertExpectations(t)
	})

	t.Run("administrator reads the aggregate scope", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		all := []models.Expense{expense(1, "alice", "Food"), expense(2, "bob", "Travel")}
		ledger.On("ListAll", anyCtx).Return(all, nil).Once()

		got, err := svc.ListVisible(context.Background(), "root", true)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		ledger.AssertNotCalled(t, "ListByOwner", anyCtx, mock.Anything)
	})

	t.Run("owners are isolated from each other", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{expense(1, "alice", "Food")}, nil).Once()
		ledger.On("ListByOwner", anyCtx, "bob").Return([]models.Expense{}, nil).Once()

		alice, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		bob, err := svc.ListVisible(context.Background(), "bob", false)
		require.NoError(t, err)

		assert.Len(t, alice, 1)
		assert.Empty(t, bob)
		ledger.AssertExpectations(t)
	})

	t.Run("store reads carry a deadline", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})
		ledger.On("ListByOwner", hasDeadline, "alice").Return([]models.Expense{}, nil).Once()

		_, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		ledger.AssertExpectations(t)
	})

	t.Run("store failure is reported and not cached", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		ledger.On("ListByOwner", anyCtx, "alice").Return(nil, errors.New("connection refused")).Once()
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{}, nil).Once()

		_, err := svc.ListVisible(context.Background(), "alice", false)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)

		got, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		assert.NotNil(t, got)
		ledger.AssertExpectations(t)
	})
}

func TestExpenseService_GetOne(t *testing.T) {
	svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
	e := expense(7, "alice", "Food")
	ledger.On("FindByID", anyCtx, int64(7)).Return(&e, nil)
	ledger.On("FindByID", anyCtx, int64(8)).Return(nil, models.ErrNotFound)

	t.Run("owner reads own entry", func(t *testing.T) {
		got, err := svc.GetOne(context.Background(), 7, "alice", false)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.UserID)
	})

	t.Run("other owner gets not found", func(t *testing.T) {
		_, err := svc.GetOne(context.Background(), 7, "bob", false)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("administrator reads any entry", func(t *testing.T) {
		got, err := svc.GetOne(context.Background(), 7, "root", true)
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := svc.GetOne(context.Background(), 8, "root", true)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestExpenseService_Create(t *testing.T) {
	t.Run("escapes description and stamps owner", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		ledger.On("Insert", anyCtx, mock.MatchedBy(func(e models.Expense) bool {
			return e.UserID == "alice" && e.Description == "&lt;b&gt;Lunch&lt;/b&gt;" && e.ID == 0
		})).Return(models.Expense{
			ID:          1,
			UserID:      "alice",
			Amount:      decimal.RequireFromString("12.50"),
			Category:    "Food",
			Description: "&lt;b&gt;Lunch&lt;/b&gt;",
		}, nil).Once()

		got, err := svc.Create(context.Background(), lunchDraft(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "&lt;b&gt;Lunch&lt;/b&gt;", got.Description)
		ledger.AssertExpectations(t)
	})

	t.Run("read your write after create", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		created := expense(1, "alice", "Food")
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{}, nil).Once()
		ledger.On("ListAll", anyCtx).Return([]models.Expense{}, nil).Once()
		ledger.On("Insert", anyCtx, mock.Anything).Return(created, nil).Once()
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{created}, nil).Once()
		ledger.On("ListAll", anyCtx).Return([]models.Expense{created}, nil).Once()

		before, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		assert.Empty(t, before)
		_, err = svc.ListVisible(context.Background(), "root", true)
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), lunchDraft(), "alice")
		require.NoError(t, err)

		after, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		assert.Len(t, after, 1)
		all, err := svc.ListVisible(context.Background(), "root", true)
		require.NoError(t, err)
		assert.Len(t, all, 1)
		ledger.AssertExpectations(t)
	})

	t.Run("legacy policy leaves the aggregate scope stale", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, LegacyInvalidation)
		created := expense(1, "alice", "Food")
		ledger.On("ListAll", anyCtx).Return([]models.Expense{}, nil).Once()
		ledger.On("Insert", anyCtx, mock.Anything).Return(created, nil).Once()

		_, err := svc.ListVisible(context.Background(), "root", true)
		require.NoError(t, err)
		_, err = svc.Create(context.Background(), lunchDraft(), "alice")
		require.NoError(t, err)

		all, err := svc.ListVisible(context.Background(), "root", true)
		require.NoError(t, err)
		assert.Empty(t, all)
		ledger.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		ledger.On("Insert", anyCtx, mock.Anything).Return(models.Expense{}, errors.New("disk full")).Once()

		_, err := svc.Create(context.Background(), lunchDraft(), "alice")
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	})
}

func TestExpenseService_Update(t *testing.T) {
	t.Run("owner updates own entry", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(3, "alice", "Food")
		ledger.On("FindByID", anyCtx, int64(3)).Return(&e, nil).Once()
		ledger.On("Update", anyCtx, mock.MatchedBy(func(u models.Expense) bool {
			return u.ID == 3 && u.UserID == "alice" && u.Category == "Food" && u.Description == "&lt;b&gt;Lunch&lt;/b&gt;"
		})).Return(nil).Once()

		got, err := svc.Update(context.Background(), 3, lunchDraft(), "alice", false)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.50")))
		ledger.AssertExpectations(t)
	})

	t.Run("other owner cannot update", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(3, "alice", "Food")
		ledger.On("FindByID", anyCtx, int64(3)).Return(&e, nil).Once()

		_, err := svc.Update(context.Background(), 3, lunchDraft(), "bob", false)
		assert.ErrorIs(t, err, models.ErrNotFound)
		ledger.AssertNotCalled(t, "Update", anyCtx, mock.Anything)
	})

	t.Run("entry vanishes between find and update", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(3, "alice", "Food")
		ledger.On("FindByID", anyCtx, int64(3)).Return(&e, nil).Once()
		ledger.On("Update", anyCtx, mock.Anything).Return(models.ErrNotFound).Once()

		_, err := svc.Update(context.Background(), 3, lunchDraft(), "alice", false)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("administrator update refreshes the owner scope", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(3, "alice", "Food")
		updated := e
		updated.Category = "Travel"
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{e}, nil).Once()
		ledger.On("FindByID", anyCtx, int64(3)).Return(&e, nil).Once()
		ledger.On("Update", anyCtx, mock.Anything).Return(nil).Once()
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{updated}, nil).Once()

		_, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)

		draft := lunchDraft()
		draft.Category = "Travel"
		_, err = svc.Update(context.Background(), 3, draft, "root", true)
		require.NoError(t, err)

		got, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Travel", got[0].Category)
		ledger.AssertExpectations(t)
	})

	t.Run("legacy administrator update leaves the owner scope stale", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, LegacyInvalidation)
		e := expense(3, "alice", "Food")
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{e}, nil).Once()
		ledger.On("FindByID", anyCtx, int64(3)).Return(&e, nil).Once()
		ledger.On("Update", anyCtx, mock.Anything).Return(nil).Once()

		_, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)

		draft := lunchDraft()
		draft.Category = "Travel"
		_, err = svc.Update(context.Background(), 3, draft, "root", true)
		require.NoError(t, err)

		got, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Food", got[0].Category)
		ledger.AssertExpectations(t)
	})
}

func TestExpenseService_Delete(t *testing.T) {
	t.Run("missing entry reports false", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		ledger.On("FindByID", anyCtx, int64(9)).Return(nil, models.ErrNotFound).Once()

		ok, err := svc.Delete(context.Background(), 9, "alice", false)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other owner cannot delete", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(4, "alice", "Food")
		ledger.On("FindByID", anyCtx, int64(4)).Return(&e, nil).Once()

		ok, err := svc.Delete(context.Background(), 4, "bob", false)
		assert.NoError(t, err)
		assert.False(t, ok)
		ledger.AssertNotCalled(t, "Remove", anyCtx, mock.Anything)
	})

	t.Run("administrator delete is visible to the owner", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(4, "alice", "Food")
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{e}, nil).Once()
		ledger.On("FindByID", anyCtx, int64(4)).Return(&e, nil).Once()
		ledger.On("Remove", anyCtx, int64(4)).Return(nil).Once()
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{}, nil).Once()

		_, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)

		ok, err := svc.Delete(context.Background(), 4, "root", true)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		assert.Empty(t, got)
		ledger.AssertExpectations(t)
	})

	t.Run("legacy administrator delete is not visible to the owner", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, LegacyInvalidation)
		e := expense(4, "alice", "Food")
		ledger.On("ListByOwner", anyCtx, "alice").Return([]models.Expense{e}, nil).Once()
		ledger.On("FindByID", anyCtx, int64(4)).Return(&e, nil).Once()
		ledger.On("Remove", anyCtx, int64(4)).Return(nil).Once()

		_, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)

		ok, err := svc.Delete(context.Background(), 4, "root", true)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := svc.ListVisible(context.Background(), "alice", false)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		ledger.AssertExpectations(t)
	})

	t.Run("store failure on remove", func(t *testing.T) {
		svc, ledger, _ := newExpenseService(t, OwnerAwareInvalidation)
		e := expense(4, "alice", "Food")
		ledger.On("FindByID", anyCtx, int64(4)).Return(&e, nil).Once()
		ledger.On("Remove", anyCtx, int64(4)).Return(errors.New("connection reset")).Once()

		ok, err := svc.Delete(context.Background(), 4, "alice", false)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
		assert.False(t, ok)
	})
}
