package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/database"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

type SQLCredentialStore struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLCredentialStore(db *sql.DB, dialect database.Dialect) *SQLCredentialStore {
	return &SQLCredentialStore{db: db, dialect: dialect}
}

func (s *SQLCredentialStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = ?`), username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewStoreError("find user", err)
	}
	return &u, nil
}

func (s *SQLCredentialStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT COUNT(*) FROM users WHERE username = ?`), username).Scan(&count)
	if err != nil {
		return false, models.NewStoreError("check username", err)
	}
	return count > 0, nil
}

func (s *SQLCredentialStore) Insert(ctx context.Context, u models.User) (models.User, error) {
	_, err := s.db.ExecContext(ctx, rebind(s.dialect, `
		INSERT INTO users (id, username, password_hash, role)
		VALUES (?, ?, ?, ?)`),
		u.ID, u.Username, u.PasswordHash, string(u.Role))
	if isUniqueViolation(err) {
		return models.User{}, models.ErrDuplicateIdentity
	}
	if err != nil {
		return models.User{}, models.NewStoreError("insert user", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
