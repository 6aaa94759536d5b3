package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort         int
	DatabasePath       string
	ImagesPath         string // Base path for uploaded image assets
	JWTSecret          string
	TokenTTL           time.Duration
	AssetSweepSchedule string // Standard cron expression for the orphan sweep
	AppEnv             string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ttlStr := getEnv("TOKEN_TTL", "1h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, err
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		ServerPort:         port,
		DatabasePath:       getEnv("DATABASE_PATH", "./feed.db"),
		ImagesPath:         getEnv("IMAGES_PATH", "./images"),
		JWTSecret:          secret,
		TokenTTL:           ttl,
		AssetSweepSchedule: getEnv("ASSET_SWEEP_SCHEDULE", "0 * * * *"),
		AppEnv:             getEnv("APP_ENV", "development"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
