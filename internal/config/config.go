// Package config loads run settings from the environment.
//
// An optional .env file in the working directory is read first; variables already set
// in the process environment take precedence over it. Command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultURL         = "https://www.espn.com/nba/schedule"
	DefaultProvider    = "ollama/deepseek-r1:14b"
	DefaultAPIToken    = "no-token"
	DefaultPageTimeout = 80 * time.Second
	DefaultDataDir     = "~/.local/share/nba-schedule"
	DefaultCacheTTL    = time.Hour
)

// Config holds settings sourced from the environment
type Config struct {
	URL         string
	LLMProvider string
	LLMAPIToken string
	LLMBaseURL  string
	DataDir     string
	Proxy       string
	RedisURL    string
	LogLevel    string
	PageTimeout time.Duration
	CacheTTL    time.Duration
}

// Load reads .env (if present) and the NBA_SCHEDULE_* variables.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return &Config{
		URL:         getEnv("NBA_SCHEDULE_URL", DefaultURL),
		LLMProvider: getEnv("NBA_SCHEDULE_LLM_PROVIDER", DefaultProvider),
		LLMAPIToken: getEnv("NBA_SCHEDULE_LLM_API_TOKEN", DefaultAPIToken),
		LLMBaseURL:  getEnv("NBA_SCHEDULE_LLM_BASE_URL", ""),
		DataDir:     getEnv("NBA_SCHEDULE_DATA_DIR", DefaultDataDir),
		Proxy:       getEnv("NBA_SCHEDULE_PROXY", ""),
		RedisURL:    getEnv("NBA_SCHEDULE_REDIS_URL", ""),
		LogLevel:    getEnv("NBA_SCHEDULE_LOG_LEVEL", "info"),
		PageTimeout: getEnvDuration("NBA_SCHEDULE_PAGE_TIMEOUT", DefaultPageTimeout),
		CacheTTL:    getEnvDuration("NBA_SCHEDULE_CACHE_TTL", DefaultCacheTTL),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvDuration accepts a Go duration ("80s") or a bare number of milliseconds ("80000").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
