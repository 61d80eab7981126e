package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) ListAll(ctx context.Context) ([]models.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Expense), args.Error(1)
}

func (m *MockLedgerStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Expense, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Expense), args.Error(1)
}

func (m *MockLedgerStore) FindByID(ctx context.Context, id int64) (*models.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	e := *args.Get(0).(*models.Expense)
	return &e, args.Error(1)
}

func (m *MockLedgerStore) Insert(ctx context.Context, e models.Expense) (models.Expense, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(models.Expense), args.Error(1)
}

func (m *MockLedgerStore) Update(ctx context.Context, e models.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockLedgerStore) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	u := *args.Get(0).(*models.User)
	return &u, args.Error(1)
}

func (m *MockCredentialStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) Insert(ctx context.Context, u models.User) (models.User, error) {
	args := m.Called(ctx, u)
	if fn, ok := args.Get(0).(func(context.Context, models.User) models.User); ok {
		return fn(ctx, u), args.Error(1)
	}
	return args.Get(0).(models.User), args.Error(1)
}
