package database

import (
	"database/sql"
	"fmt"
)

var migrations = map[Dialect][]string{
	Postgres: {
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'Owner'
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			amount NUMERIC(14, 2) NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses (user_id)`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'Owner'
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES users(id),
			amount TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			date DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses (user_id)`,
	},
}

// Migrate creates the users and expenses tables when they are missing.
func Migrate(db *sql.DB, dialect Dialect) error {
	stmts, ok := migrations[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	for _, m := range stmts {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
