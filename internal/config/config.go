package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the Karma client core.
type Config struct {
	APIBaseURL      string
	RequestTimeout  time.Duration
	StorePath       string
	StoreSecret     string
	LogLevel        string
	RequestsPerSec  float64
	RequestBurst    int
	RefreshSchedule string
}

// ErrMissingBaseURL is returned when no backend target is configured.
// There is deliberately no default network target.
var ErrMissingBaseURL = errors.New("KARMA_API_URL must be set")

// Load reads configuration from the environment, consulting a local .env
// file first so development setups work without exported variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIBaseURL:      os.Getenv("KARMA_API_URL"),
		RequestTimeout:  getDuration("KARMA_REQUEST_TIMEOUT", 30*time.Second),
		StorePath:       getString("KARMA_STORE_PATH", "karma.db"),
		StoreSecret:     os.Getenv("KARMA_STORE_SECRET"),
		LogLevel:        getString("KARMA_LOG_LEVEL", "info"),
		RequestsPerSec:  getFloat("KARMA_REQUESTS_PER_SEC", 10),
		RequestBurst:    getInt("KARMA_REQUEST_BURST", 5),
		RefreshSchedule: getString("KARMA_REFRESH_SCHEDULE", "@every 1m"),
	}

	if cfg.APIBaseURL == "" {
		return Config{}, ErrMissingBaseURL
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
