package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/api"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/audit"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/auth"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/cache"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/database"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/handlers"
	mW "github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/middleware"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/services"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/store"
)

type app struct {
	router http.Handler
	cache  *cache.ScopedCache
	tokens *auth.TokenIssuer
}

// newApp builds the services and the chi router. rdb may be nil.
func newApp(cfg *config.Config, db *sql.DB, dialect database.Dialect, rdb *redis.Client) (*app, error) {
	tokens, err := auth.NewTokenIssuer(cfg.JWT)
	if err != nil {
		return nil, err
	}
	policy, err := services.ParseInvalidationPolicy(cfg.Cache.Invalidation)
	if err != nil {
		return nil, err
	}

	auditLogger := audit.NewLogger()
	scoped := cache.New(cfg.Cache.TTL)

	expenseService := services.NewExpenseService(store.NewSQLLedgerStore(db, dialect), scoped, services.ExpenseServiceConfig{
		Policy:       policy,
		StoreTimeout: cfg.Database.QueryTimeout,
		Audit:        auditLogger,
	})
	authService := services.NewAuthService(store.NewSQLCredentialStore(db, dialect), auth.NewBcryptHasher(cfg.BcryptCost), tokens, services.AuthServiceConfig{
		Limiter:      services.NewLoginLimiter(rdb, cfg.Login),
		StoreTimeout: cfg.Database.QueryTimeout,
		Audit:        auditLogger,
	})

	authHandler := handlers.NewAuthHandler(authService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	r.Get("/openapi.yaml", api.ServeOpenAPI)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware(tokens))
			r.Route("/expenses", expenseHandler.Routes)
		})
	})

	return &app{router: r, cache: scoped, tokens: tokens}, nil
}
