package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	SecretKey string
	Issuer    string
	Audience  string
	Expiry    time.Duration
}

type CacheConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Invalidation  string
}

type LoginConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	BcryptCost int
	Cache      CacheConfig
	Login      LoginConfig
}

var envBindings = map[string]string{
	"server.port":            "PORT",
	"database.driver":        "DATABASE_DRIVER",
	"database.host":          "DATABASE_HOST",
	"database.port":          "DATABASE_PORT",
	"database.user":          "DATABASE_USER",
	"database.password":      "DATABASE_PASSWORD",
	"database.name":          "DATABASE_NAME",
	"database.ssl_mode":      "DATABASE_SSL_MODE",
	"database.path":          "DATABASE_PATH",
	"database.query_timeout": "DATABASE_QUERY_TIMEOUT",
	"redis.host":             "REDIS_HOST",
	"redis.port":             "REDIS_PORT",
	"redis.password":         "REDIS_PASSWORD",
	"redis.db":               "REDIS_DB",
	"jwt.secret_key":         "JWT_SECRET_KEY",
	"jwt.issuer":             "JWT_ISSUER",
	"jwt.audience":           "JWT_AUDIENCE",
	"jwt.expiry_minutes":     "JWT_EXPIRY_MINUTES",
	"bcrypt.cost":            "BCRYPT_COST",
	"cache.ttl":              "CACHE_TTL",
	"cache.sweep_interval":   "CACHE_SWEEP_INTERVAL",
	"cache.invalidation":     "CACHE_INVALIDATION",
	"login.max_attempts":     "LOGIN_MAX_ATTEMPTS",
	"login.window":           "LOGIN_WINDOW",
}

// SetDefaults registers the default for every key Load reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "expenses")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "expenses.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.query_timeout", 5*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.issuer", "expense-tracker")
	v.SetDefault("jwt.audience", "expense-tracker-clients")
	v.SetDefault("jwt.expiry_minutes", 5)

	v.SetDefault("bcrypt.cost", 12)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.sweep_interval", time.Minute)
	v.SetDefault("cache.invalidation", "owner_aware")

	v.SetDefault("login.max_attempts", 5)
	v.SetDefault("login.window", 15*time.Minute)
}

// New returns a viper instance reading the given .env file (if present)
// with environment variables taking precedence.
func New(envFile string) *viper.Viper {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()
	for key, env := range envBindings {
		v.BindEnv(key, env)
	}
	SetDefaults(v)
	return v
}

// Load reads the full configuration out of v.
func Load(v *viper.Viper) *Config {
	cost := v.GetInt("bcrypt.cost")
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			QueryTimeout:    v.GetDuration("database.query_timeout"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
			Issuer:    v.GetString("jwt.issuer"),
			Audience:  v.GetString("jwt.audience"),
			Expiry:    time.Duration(v.GetInt("jwt.expiry_minutes")) * time.Minute,
		},
		BcryptCost: cost,
		Cache: CacheConfig{
			TTL:           v.GetDuration("cache.ttl"),
			SweepInterval: v.GetDuration("cache.sweep_interval"),
			Invalidation:  strings.ToLower(v.GetString("cache.invalidation")),
		},
		Login: LoginConfig{
			MaxAttempts: v.GetInt("login.max_attempts"),
			Window:      v.GetDuration("login.window"),
		},
	}
}
