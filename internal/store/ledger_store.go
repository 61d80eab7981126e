package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/database"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

const expenseColumns = "id, user_id, amount, category, description, date"

type SQLLedgerStore struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLLedgerStore(db *sql.DB, dialect database.Dialect) *SQLLedgerStore {
	return &SQLLedgerStore{db: db, dialect: dialect}
}

func (s *SQLLedgerStore) ListAll(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT `+expenseColumns+`
		FROM expenses
		ORDER BY date DESC, id DESC`))
	if err != nil {
		return nil, models.NewStoreError("list all expenses", err)
	}
	expenses, err := scanExpenses(rows)
	return expenses, models.NewStoreError("list all expenses", err)
}

func (s *SQLLedgerStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE user_id = ?
		ORDER BY date DESC, id DESC`), ownerID)
	if err != nil {
		return nil, models.NewStoreError("list expenses by owner", err)
	}
	expenses, err := scanExpenses(rows)
	return expenses, models.NewStoreError("list expenses by owner", err)
}

func (s *SQLLedgerStore) FindByID(ctx context.Context, id int64) (*models.Expense, error) {
	var e models.Expense
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE id = ?`), id).Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewStoreError("find expense", err)
	}
	return &e, nil
}

func (s *SQLLedgerStore) Insert(ctx context.Context, e models.Expense) (models.Expense, error) {
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		INSERT INTO expenses (user_id, amount, category, description, date)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		e.UserID, e.Amount, e.Category, e.Description, e.Date).Scan(&e.ID)
	if err != nil {
		return models.Expense{}, models.NewStoreError("insert expense", err)
	}
	return e, nil
}

func (s *SQLLedgerStore) Update(ctx context.Context, e models.Expense) error {
	result, err := s.db.ExecContext(ctx, rebind(s.dialect, `
		UPDATE expenses
		SET amount = ?, category = ?, description = ?, date = ?
		WHERE id = ?`),
		e.Amount, e.Category, e.Description, e.Date, e.ID)
	if err != nil {
		return models.NewStoreError("update expense", err)
	}
	return checkAffected("update expense", result)
}

func (s *SQLLedgerStore) Remove(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, rebind(s.dialect, `DELETE FROM expenses WHERE id = ?`), id)
	if err != nil {
		return models.NewStoreError("remove expense", err)
	}
	return checkAffected("remove expense", result)
}

func checkAffected(op string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return models.NewStoreError(op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanExpenses(rows *sql.Rows) ([]models.Expense, error) {
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.Date); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
