// Package config loads runtime configuration from the environment, with an
// optional .env file for local development, mirroring the teacher's
// DB_*/REDIS_* env surface implied by its database/cache packages.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide runtime configuration.
type Config struct {
	ListenAddr string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	TurnTimeout time.Duration
}

// Load reads a .env file if present (missing is not an error — production
// deployments set real environment variables instead) and then populates
// Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Config{
		ListenAddr:    envOr("KARATA_LISTEN_ADDR", ":8080"),
		DatabaseURL:   envOr("KARATA_DATABASE_URL", ""),
		RedisAddr:     envOr("KARATA_REDIS_ADDR", "localhost:6379"),
		RedisPassword: envOr("KARATA_REDIS_PASSWORD", ""),
		JWTSecret:     envOr("KARATA_JWT_SECRET", ""),
	}

	redisDB, err := strconv.Atoi(envOr("KARATA_REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("config: KARATA_REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	timeoutSec, err := strconv.Atoi(envOr("KARATA_TURN_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return Config{}, fmt.Errorf("config: KARATA_TURN_TIMEOUT_SECONDS: %w", err)
	}
	cfg.TurnTimeout = time.Duration(timeoutSec) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: KARATA_DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: KARATA_JWT_SECRET is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
