package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
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
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvAsIntOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DUR_1", "250ms")
	t.Setenv("TEST_DUR_2", "soon")

	assert.Equal(t, 250*time.Millisecond, getEnvAsDurationOrDefault("TEST_DUR_1", time.Second))
	assert.Equal(t, time.Second, getEnvAsDurationOrDefault("TEST_DUR_2", time.Second))
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	t.Setenv("TEST_BOOL_1", "false")
	t.Setenv("TEST_BOOL_2", "maybe")

	assert.False(t, getEnvAsBoolOrDefault("TEST_BOOL_1", true))
	assert.True(t, getEnvAsBoolOrDefault("TEST_BOOL_2", true))
}

func TestMustGetEnv_Panics(t *testing.T) {
	t.Setenv("NONEXISTENT_REQUIRED_VAR", "")
	assert.Panics(t, func() { mustGetEnv("NONEXISTENT_REQUIRED_VAR") })
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "value123")
	assert.Equal(t, "value123", mustGetEnv("TEST_REQUIRED"))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "STORAGE_DRIVER", "DATABASE_URL", "JWT_SECRET", "AI_PROVIDER",
		"OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "SEED_DEMO_DATA",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, "heuristic", cfg.AIProvider)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.True(t, cfg.SeedDemoData)
	assert.Equal(t, time.Second, cfg.QuizAdvanceDelay)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PicksProviderFromKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := Load()
	assert.Equal(t, "gemini", cfg.AIProvider)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "postgres")

	assert.Panics(t, func() { Load() })
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	assert.Panics(t, func() { Load() })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"unknown storage", func(c *Config) { c.StorageDriver = "sqlite" }, true},
		{"unknown provider", func(c *Config) { c.AIProvider = "llama" }, true},
		{"openai without key", func(c *Config) { c.AIProvider = "openai" }, true},
		{"openai with key", func(c *Config) { c.AIProvider = "openai"; c.OpenAIAPIKey = "k" }, false},
		{"zero concurrency", func(c *Config) { c.AIConcurrentRequests = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{StorageDriver: "memory", AIProvider: "heuristic", AIConcurrentRequests: 5}
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
