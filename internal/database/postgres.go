package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
)

// Dialect names the SQL flavour a connection speaks.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// OpenPostgres opens and pings a postgres connection pool.
func OpenPostgres(cfg config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Println("[STORE] Postgres connection established")
	return db, nil
}

// Open opens the configured driver and brings the schema up to date.
func Open(cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch Dialect(cfg.Driver) {
	case Postgres, "":
		dialect = Postgres
		db, err = OpenPostgres(cfg)
	case SQLite:
		dialect = SQLite
		db, err = OpenSQLite(cfg.Path)
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, "", err
	}

	if err := Migrate(db, dialect); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("error migrating database: %w", err)
	}
	return db, dialect, nil
}
