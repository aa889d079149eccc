package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal time.Duration
		expected   time.Duration
	}{
		{"parses duration", "TEST_DUR_1", "45s", time.Second, 45 * time.Second},
		{"uses default for empty", "TEST_DUR_2", "", time.Second, time.Second},
		{"uses default for garbage", "TEST_DUR_3", "soon", time.Second, time.Second},
		{"uses default for negative", "TEST_DUR_4", "-5s", time.Second, time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsDurationOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"gemini with key", Config{GenerationProvider: "gemini", GeminiAPIKey: "k", UpstreamMaxAttempts: 3, AIRateLimitPerMin: 20}, false},
		{"gemini without key", Config{GenerationProvider: "gemini", UpstreamMaxAttempts: 3, AIRateLimitPerMin: 20}, true},
		{"openai with key", Config{GenerationProvider: "openai", OpenAIAPIKey: "k", UpstreamMaxAttempts: 1, AIRateLimitPerMin: 20}, false},
		{"openai without key", Config{GenerationProvider: "openai", GeminiAPIKey: "k", UpstreamMaxAttempts: 1, AIRateLimitPerMin: 20}, true},
		{"unknown provider", Config{GenerationProvider: "palm", UpstreamMaxAttempts: 1, AIRateLimitPerMin: 20}, true},
		{"zero attempts", Config{GenerationProvider: "gemini", GeminiAPIKey: "k", AIRateLimitPerMin: 20}, true},
		{"zero rate limit", Config{GenerationProvider: "gemini", GeminiAPIKey: "k", UpstreamMaxAttempts: 3}, true},
		{"lock outlives generation", Config{GenerationProvider: "gemini", GeminiAPIKey: "k", UpstreamMaxAttempts: 3, AIRateLimitPerMin: 20,
			ContentFetchTimeout: 30 * time.Second, UpstreamTimeout: 60 * time.Second, UpstreamMaxBackoff: 8 * time.Second,
			GenerationLockTTL: 4 * time.Minute}, false},
		{"lock expires mid generation", Config{GenerationProvider: "gemini", GeminiAPIKey: "k", UpstreamMaxAttempts: 3, AIRateLimitPerMin: 20,
			ContentFetchTimeout: 30 * time.Second, UpstreamTimeout: 60 * time.Second, UpstreamMaxBackoff: 8 * time.Second,
			GenerationLockTTL: 3 * time.Minute}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_DefaultLockTTLCoversGeneration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg := Load()
	if cfg.GenerationLockTTL < cfg.WorstCaseGeneration() {
		t.Fatalf("Lock TTL %v expires before worst-case generation %v", cfg.GenerationLockTTL, cfg.WorstCaseGeneration())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
}
