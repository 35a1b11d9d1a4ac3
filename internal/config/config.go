// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogPretty bool

	RequestTimeout time.Duration

	FinnhubAPIKey       string
	FinnhubMaxPerMinute int

	AlphaVantageAPIKey    string
	AlphaVantageMaxPerDay int

	BrandfetchClientID string

	QuoteCacheTTL time.Duration
	QuoteCacheMax int
	RefreshSpec   string
}

// Load reads configuration from environment variables, loading a .env file
// first if one exists. Provider keys are optional; a provider without a key
// is simply skipped by the fallback chain.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8000"),
		DBPath:    getEnv("DB_PATH", "./data/finledger.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SEC", 10)) * time.Second,

		FinnhubAPIKey:       getEnv("FINNHUB_API_KEY", ""),
		FinnhubMaxPerMinute: getEnvAsInt("FINNHUB_MAX_CALLS_PER_MINUTE", 60),

		AlphaVantageAPIKey:    getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageMaxPerDay: getEnvAsInt("ALPHA_VANTAGE_MAX_CALLS_PER_DAY", 25),

		BrandfetchClientID: getEnv("BRANDFETCH_CLIENT_ID", ""),

		QuoteCacheTTL: time.Duration(getEnvAsInt("QUOTE_CACHE_TTL_SEC", 60)) * time.Second,
		QuoteCacheMax: getEnvAsInt("QUOTE_CACHE_MAX_ITEMS", 1000),
		RefreshSpec:   getEnv("REFRESH_CRON_SPEC", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that must be sane for the process to start.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.FinnhubMaxPerMinute <= 0 {
		return fmt.Errorf("FINNHUB_MAX_CALLS_PER_MINUTE must be positive")
	}
	if c.AlphaVantageMaxPerDay <= 0 {
		return fmt.Errorf("ALPHA_VANTAGE_MAX_CALLS_PER_DAY must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SEC must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
