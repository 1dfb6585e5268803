// Package config reads run settings from the environment. Command-line flags
// override these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matrufsc/cagr-scrape/internal/cache"
	"github.com/matrufsc/cagr-scrape/internal/scraper"
	"github.com/matrufsc/cagr-scrape/internal/storage"
)

// DefaultSemesters is how many of the newest semesters are scraped
const DefaultSemesters = 3

// Config holds the settings of a scrape run
type Config struct {
	BaseURL        string
	DataDir        string
	Semesters      int
	Timeout        time.Duration
	CacheThreshold time.Duration
	LogLevel       string
	DatabaseURL    string
}

// Load reads the configuration from the environment. Only malformed values
// fail here; ranges are checked by Validate once flags have been applied.
func Load() (Config, error) {
	var cfg Config
	var err error

	cfg.BaseURL = getEnv("CAGR_URL", scraper.CAGRURL)
	cfg.DataDir = getEnv("CAGR_DATA_DIR", storage.DefaultDataDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if cfg.Semesters, err = getEnvInt("CAGR_SEMESTERS", DefaultSemesters); err != nil {
		return cfg, err
	}
	if cfg.Timeout, err = getEnvDuration("CAGR_TIMEOUT", scraper.Timeout); err != nil {
		return cfg, err
	}
	if cfg.CacheThreshold, err = getEnvDuration("CAGR_CACHE_THRESHOLD", cache.DefaultThreshold); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.Semesters < 1 {
		return &configError{message: "semester count must be at least 1, got " + strconv.Itoa(c.Semesters)}
	}
	if c.Timeout < 0 {
		return &configError{message: "timeout must not be negative"}
	}
	if c.CacheThreshold < 0 {
		return &configError{message: "cache threshold must not be negative"}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return &configError{message: "base URL is required"}
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, &configError{message: "invalid int for " + key + ": " + err.Error()}
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, &configError{message: "invalid duration for " + key + ": " + err.Error()}
	}
	return parsed, nil
}

type configError struct {
	message string
}

func (e *configError) Error() string {
	return e.message
}

var _ error = (*configError)(nil)
