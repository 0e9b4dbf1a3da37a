package config

import (
	"time"

	"github.com/gamma-omg/lexi-spell/internal/pkg/env"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	MasteryThreshold int
	Auth             authConfig
	Store            storeConfig
	DB               dbConfig
	Session          sessionConfig
	Redis            redisConfig
	UsersCache       cacheConfig
	Http             httpConfig
}

type authConfig struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

type storeConfig struct {
	Backend string
}

type dbConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	Migrations string
}

type sessionConfig struct {
	Backend string
	TTL     time.Duration
}

type redisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type cacheConfig struct {
	MaxKeys int64
	MaxCost int64
}

type httpConfig struct {
	ListenAddr      string
	IdleTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func FromEnv() Config {
	return Config{
		MasteryThreshold: env.Int("MASTERY_THRESHOLD", 4),
		Auth: authConfig{
			Secret:   env.RequireString("AUTH_SECRET"),
			Issuer:   env.String("AUTH_ISSUER", "lexi-spell"),
			TokenTTL: env.Duration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Store: storeConfig{
			Backend: env.OneOf("STORE_BACKEND", BackendMemory, BackendMemory, BackendPostgres),
		},
		DB: dbConfig{
			Host:       env.String("DB_HOST", "localhost"),
			Port:       env.String("DB_PORT", "5432"),
			User:       env.String("DB_USER", "postgres"),
			Password:   env.String("DB_PASSWORD", "password"),
			Name:       env.String("DB_NAME", "vocab_service"),
			Migrations: env.String("DB_MIGRATIONS", ""),
		},
		Session: sessionConfig{
			Backend: env.OneOf("SESSION_BACKEND", BackendMemory, BackendMemory, BackendRedis),
			TTL:     env.Duration("SESSION_TTL", 2*time.Hour),
		},
		Redis: redisConfig{
			Host:     env.String("REDIS_HOST", "localhost"),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
		},
		UsersCache: cacheConfig{
			MaxKeys: env.Int64("USERS_CACHE_KEYS", 10000),
			MaxCost: env.Int64("USERS_CACHE_COST", 10000),
		},
		Http: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8080"),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
	}
}
