package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "feynman-dev-secret"

type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	StorageDriver string // "memory" | "postgres"
	DatabaseURL   string
	MigrationsDir string
	SeedDemoData  bool

	// Redis (optional)
	RedisURL string

	// JWT
	JWTSecret string

	// AI
	AIProvider           string // "openai" | "gemini" | "anthropic" | "heuristic"
	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	GeminiAPIKey         string
	GeminiModel          string
	AnthropicAPIKey      string
	AnthropicModel       string
	AIConcurrentRequests int
	AITimeout            time.Duration

	// Workers
	WorkerCount int

	// Uploads and quizzes
	MaxUploadBytes   int64
	QuizAdvanceDelay time.Duration

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnvOrDefault("ENV", "development")

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  env,
		StorageDriver:        strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", "memory")),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "./migrations"),
		SeedDemoData:         getEnvAsBoolOrDefault("SEED_DEMO_DATA", env != "production"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		OpenAIAPIKey:         getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:        getEnvOrDefault("OPENAI_BASE_URL", ""),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey:      getEnvOrDefault("ANTHROPIC_API_KEY", ""),
		AnthropicModel:       getEnvOrDefault("ANTHROPIC_MODEL", "claude-haiku"),
		AIConcurrentRequests: getEnvAsIntOrDefault("AI_CONCURRENT_REQUESTS", 5),
		AITimeout:            getEnvAsDurationOrDefault("AI_TIMEOUT", 60*time.Second),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 3),
		MaxUploadBytes:       int64(getEnvAsIntOrDefault("MAX_UPLOAD_BYTES", 20<<20)),
		QuizAdvanceDelay:     getEnvAsDurationOrDefault("QUIZ_ADVANCE_DELAY", time.Second),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.StorageDriver == "postgres" {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	}

	if cfg.IsProduction() {
		cfg.JWTSecret = mustGetEnv("JWT_SECRET")
	} else {
		cfg.JWTSecret = getEnvOrDefault("JWT_SECRET", devJWTSecret)
	}

	cfg.AIProvider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", cfg.defaultAIProvider()))

	return cfg
}

// defaultAIProvider picks the first provider with a key configured.
func (c *Config) defaultAIProvider() string {
	switch {
	case c.OpenAIAPIKey != "":
		return "openai"
	case c.GeminiAPIKey != "":
		return "gemini"
	case c.AnthropicAPIKey != "":
		return "anthropic"
	default:
		return "heuristic"
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AIProvider {
	case "heuristic":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for AI_PROVIDER=openai")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for AI_PROVIDER=gemini")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for AI_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider)
	}

	if c.AIConcurrentRequests < 1 {
		return fmt.Errorf("AI_CONCURRENT_REQUESTS must be at least 1")
	}
	return nil
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

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
