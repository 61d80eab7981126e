package database

import (
	"database/sql"
	"fmt"
	"log"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// OpenSQLite opens a file-backed (or ":memory:") sqlite database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	log.Printf("[STORE] SQLite database opened at %s", path)
	return db, nil
}
