// Package config provides configuration management for the reward scanner.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default artifact names, written to and read from FILES_DIR
const (
	DefaultRawActivityFile    = "reward_activity_original.csv"
	DefaultDollarPerBlockFile = "reward_activity_with_dollar_per_block.csv"
	DefaultRewardsOnlyFile    = "rewards_only.csv"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig
	Files   FilesConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

// APIConfig holds ledger API configuration
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitDelay time.Duration // Fixed delay between consecutive API calls
}

// FilesConfig holds the locations of the tabular artifacts.
// The raw activity and dollar-per-block files double as caches: the stage that
// produces a file reads it back on the next run instead of calling the API.
type FilesConfig struct {
	Dir            string
	RawActivity    string
	DollarPerBlock string
	RewardsOnly    string
}

// RawActivityPath returns the full path of the raw activity artifact
func (f FilesConfig) RawActivityPath() string {
	return filepath.Join(f.Dir, f.RawActivity)
}

// DollarPerBlockPath returns the full path of the price-enriched artifact
func (f FilesConfig) DollarPerBlockPath() string {
	return filepath.Join(f.Dir, f.DollarPerBlock)
}

// RewardsOnlyPath returns the full path of the slim rewards export
func (f FilesConfig) RewardsOnlyPath() string {
	return filepath.Join(f.Dir, f.RewardsOnly)
}

// RedisConfig holds the optional price cache configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PriceTTL time.Duration // Zero keeps prices forever; historical quotes never change
}

// Enabled reports whether a Redis price cache was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional, environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		API: APIConfig{
			BaseURL:        getEnv("HELIUM_API_URL", "https://api.helium.io/v1"),
			Timeout:        getEnvAsDuration("HELIUM_API_TIMEOUT", 30*time.Second),
			RateLimitDelay: getEnvAsDuration("RATE_LIMIT_DELAY", 500*time.Millisecond),
		},
		Files: FilesConfig{
			Dir:            getEnv("FILES_DIR", "."),
			RawActivity:    getEnv("RAW_ACTIVITY_FILE", DefaultRawActivityFile),
			DollarPerBlock: getEnv("DOLLAR_PER_BLOCK_FILE", DefaultDollarPerBlockFile),
			RewardsOnly:    getEnv("REWARDS_ONLY_FILE", DefaultRewardsOnlyFile),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PriceTTL: getEnvAsDuration("PRICE_CACHE_TTL", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
