package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/database"
)

// @title Expense Tracker API
// @version 1.0
// @description Expense ledger with owner and administrator visibility
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	v := config.New(".env")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
	cfg := config.Load(v)

	db, dialect, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	redisClient := database.InitRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Println("Redis unavailable, login throttling disabled")
	}

	a, err := newApp(cfg, db, dialect, redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	ctx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go a.cache.Run(ctx, cfg.Cache.SweepInterval)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (database: %s)", cfg.Server.Port, dialect)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
