package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port    string
	Env     string
	LogMode string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Generation provider: "gemini" or "openai"
	GenerationProvider string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiBaseURL        string
	GeminiConcurrentReqs int

	// OpenAI-compatible
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Upstream call policy
	UpstreamTimeout        time.Duration
	UpstreamMaxAttempts    int
	UpstreamInitialBackoff time.Duration
	UpstreamMaxBackoff     time.Duration

	// Per-document generation lock
	GenerationLockTTL  time.Duration
	GenerationLockWait time.Duration

	// Document content download
	ContentFetchTimeout time.Duration
	ContentMaxBytes     int

	// AI endpoints rate limit (per IP per minute)
	AIRateLimitPerMin int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                   getEnvOrDefault("PORT", "8080"),
		Env:                    getEnvOrDefault("ENV", "development"),
		DatabaseURL:            mustGetEnv("DATABASE_URL"),
		RedisURL:               mustGetEnv("REDIS_URL"),
		JWTSecret:              mustGetEnv("JWT_SECRET"),
		GenerationProvider:     getEnvOrDefault("GENERATION_PROVIDER", "gemini"),
		GeminiAPIKey:           getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:            getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:          getEnvOrDefault("GEMINI_BASE_URL", ""),
		GeminiConcurrentReqs:   getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		OpenAIAPIKey:           getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:            getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		UpstreamTimeout:        getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", 60*time.Second),
		UpstreamMaxAttempts:    getEnvAsIntOrDefault("UPSTREAM_MAX_ATTEMPTS", 3),
		UpstreamInitialBackoff: getEnvAsDurationOrDefault("UPSTREAM_INITIAL_BACKOFF", 500*time.Millisecond),
		UpstreamMaxBackoff:     getEnvAsDurationOrDefault("UPSTREAM_MAX_BACKOFF", 8*time.Second),
		GenerationLockTTL:      getEnvAsDurationOrDefault("GENERATION_LOCK_TTL", 5*time.Minute),
		GenerationLockWait:     getEnvAsDurationOrDefault("GENERATION_LOCK_WAIT", 30*time.Second),
		ContentFetchTimeout:    getEnvAsDurationOrDefault("CONTENT_FETCH_TIMEOUT", 30*time.Second),
		ContentMaxBytes:        getEnvAsIntOrDefault("CONTENT_MAX_BYTES", 50*1024*1024),
		AIRateLimitPerMin:      getEnvAsIntOrDefault("AI_RATE_LIMIT_PER_MIN", 20),
		FrontendURL:            getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}
	cfg.LogMode = getEnvOrDefault("LOG_MODE", cfg.Env)

	return cfg
}

// Validate checks cross-field requirements that single lookups cannot express.
func (c *Config) Validate() error {
	switch c.GenerationProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when GENERATION_PROVIDER=gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when GENERATION_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown GENERATION_PROVIDER %q", c.GenerationProvider)
	}
	if c.UpstreamMaxAttempts < 1 {
		return fmt.Errorf("UPSTREAM_MAX_ATTEMPTS must be at least 1")
	}
	if c.AIRateLimitPerMin < 1 {
		return fmt.Errorf("AI_RATE_LIMIT_PER_MIN must be at least 1")
	}
	if worst := c.WorstCaseGeneration(); c.GenerationLockTTL < worst {
		return fmt.Errorf("GENERATION_LOCK_TTL %s is shorter than the worst-case generation %s", c.GenerationLockTTL, worst)
	}
	return nil
}

// WorstCaseGeneration bounds one generation: the content download plus every
// upstream attempt and the longest backoff between them.
func (c *Config) WorstCaseGeneration() time.Duration {
	return c.ContentFetchTimeout + time.Duration(c.UpstreamMaxAttempts)*(c.UpstreamTimeout+c.UpstreamMaxBackoff)
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
