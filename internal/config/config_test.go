package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VETCLINIC_API_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "")
	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Fatalf("expected default api url, got %s", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %s", cfg.LogLevel)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("expected default page size, got %d", cfg.PageSize)
	}
	if cfg.RetryMaxAttempts != 1 {
		t.Fatalf("expected retries disabled by default, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.HTTPTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VETCLINIC_API_URL", "https://api.clinic.example/")
	t.Setenv("VETCLINIC_TOKEN_FILE", "/tmp/tok")
	t.Setenv("HTTP_TIMEOUT", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("RETRY_BASE_DELAY", "2s")
	cfg := Load()
	if cfg.APIBaseURL != "https://api.clinic.example" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.TokenFile != "/tmp/tok" {
		t.Fatalf("expected token file override, got %s", cfg.TokenFile)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.HTTPTimeout)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("expected page size override, got %d", cfg.PageSize)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected retry override, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != 2*time.Second {
		t.Fatalf("expected retry delay override, got %s", cfg.RetryBaseDelay)
	}
}
