package database

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
)

// InitRedis connects to redis. It returns nil when redis is unreachable so
// callers can run without the features that depend on it.
func InitRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		rdb.Close()
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}
