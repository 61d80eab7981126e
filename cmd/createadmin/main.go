// Command createadmin provisions an Administrator identity. Registration
// over HTTP only ever creates Owners.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/auth"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/database"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/services"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/store"
)

const minPasswordLength = 6

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	envFile := fs.String("env", ".env", "Path to .env configuration file")
	sqlitePath := fs.String("sqlite", "", "Use the sqlite database at this path instead of the configured store")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: createadmin -user <username> [-password <password>] [-env <file>] [-sqlite <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	v := config.New(*envFile)
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(stderr, "Config file not found, using defaults: %v\n", err)
	}
	cfg := config.Load(v)
	if *sqlitePath != "" {
		cfg.Database.Driver = string(database.SQLite)
		cfg.Database.Path = *sqlitePath
	}

	db, dialect, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	svc := services.NewAuthService(
		store.NewSQLCredentialStore(db, dialect),
		auth.NewBcryptHasher(cfg.BcryptCost),
		nil,
		services.AuthServiceConfig{StoreTimeout: cfg.Database.QueryTimeout},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := svc.CreateUser(ctx, *username, password, models.RoleAdministrator)
	if errors.Is(err, models.ErrDuplicateIdentity) {
		return fmt.Errorf("user %s already exists", *username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "Administrator %s created successfully with ID %s\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
