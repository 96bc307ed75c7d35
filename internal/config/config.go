package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds portal configuration
type Config struct {
	APIBaseURL  string
	TokenFile   string
	HTTPTimeout time.Duration
	LogLevel    string
	PageSize    int

	// Retry policy for idempotent API reads. A single attempt means
	// failures surface immediately without retrying.
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		APIBaseURL:       strings.TrimRight(getEnv("VETCLINIC_API_URL", "http://localhost:8000"), "/"),
		TokenFile:        getEnv("VETCLINIC_TOKEN_FILE", defaultTokenFile()),
		HTTPTimeout:      getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PageSize:         getEnvAsInt("PAGE_SIZE", 10),
		RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 1),
		RetryBaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vetcare-token"
	}
	return home + "/.vetcare/token"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
