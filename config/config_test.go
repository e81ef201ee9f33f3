package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("VERRE_SERVER_PORT")
		os.Unsetenv("VERRE_SERVER_ENVIRONMENT")
		os.Unsetenv("VERRE_SERVER_ALLOWED_ORIGINS")
		os.Unsetenv("VERRE_GOOGLE_API_KEY")
		os.Unsetenv("VERRE_GOOGLE_PLACES_BASE_URL")
		os.Unsetenv("VERRE_LLM_API_KEY")
		os.Unsetenv("VERRE_LLM_TEXT_MODEL")
		os.Unsetenv("VERRE_CACHE_TYPE")
		os.Unsetenv("VERRE_CACHE_TTL")
		os.Unsetenv("VERRE_RATELIMIT_PER_IP")
		os.Unsetenv("VERRE_PROBE_TIMEOUT")
		os.Unsetenv("VERRE_PROBE_BATCH_SIZE")
		os.Unsetenv("VERRE_RETAIL_TIMEOUT")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Google.PlacesBaseURL != "https://places.googleapis.com/v1" {
			t.Errorf("Google.PlacesBaseURL = %s, want https://places.googleapis.com/v1", cfg.Google.PlacesBaseURL)
		}
		if cfg.Google.APIKey != "" {
			t.Errorf("Google.APIKey = %q, want empty", cfg.Google.APIKey)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Cache.MaxEntries != 10000 {
			t.Errorf("Cache.MaxEntries = %d, want 10000", cfg.Cache.MaxEntries)
		}
		if cfg.Probe.Timeout != 3500*time.Millisecond {
			t.Errorf("Probe.Timeout = %v, want 3.5s", cfg.Probe.Timeout)
		}
		if cfg.Probe.BatchSize != 5 {
			t.Errorf("Probe.BatchSize = %d, want 5", cfg.Probe.BatchSize)
		}
		if cfg.Probe.MaxCandidates != 20 {
			t.Errorf("Probe.MaxCandidates = %d, want 20", cfg.Probe.MaxCandidates)
		}
		if cfg.Retail.Timeout != 9*time.Second {
			t.Errorf("Retail.Timeout = %v, want 9s", cfg.Retail.Timeout)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("VERRE_SERVER_PORT", "9090")
		os.Setenv("VERRE_SERVER_ENVIRONMENT", "production")
		os.Setenv("VERRE_GOOGLE_API_KEY", "maps-key")
		os.Setenv("VERRE_GOOGLE_PLACES_BASE_URL", "https://places.example.com")
		os.Setenv("VERRE_LLM_API_KEY", "llm-key")
		os.Setenv("VERRE_LLM_TEXT_MODEL", "gemini-test")
		os.Setenv("VERRE_CACHE_TTL", "1h")
		os.Setenv("VERRE_RATELIMIT_PER_IP", "200")
		os.Setenv("VERRE_PROBE_TIMEOUT", "2s")
		os.Setenv("VERRE_RETAIL_TIMEOUT", "5s")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Google.APIKey != "maps-key" {
			t.Errorf("Google.APIKey = %s, want maps-key", cfg.Google.APIKey)
		}
		if cfg.Google.PlacesBaseURL != "https://places.example.com" {
			t.Errorf("Google.PlacesBaseURL = %s, want https://places.example.com", cfg.Google.PlacesBaseURL)
		}
		if cfg.LLM.APIKey != "llm-key" {
			t.Errorf("LLM.APIKey = %s, want llm-key", cfg.LLM.APIKey)
		}
		if cfg.LLM.TextModel != "gemini-test" {
			t.Errorf("LLM.TextModel = %s, want gemini-test", cfg.LLM.TextModel)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Probe.Timeout != 2*time.Second {
			t.Errorf("Probe.Timeout = %v, want 2s", cfg.Probe.Timeout)
		}
		if cfg.Retail.Timeout != 5*time.Second {
			t.Errorf("Retail.Timeout = %v, want 5s", cfg.Retail.Timeout)
		}
	})

	t.Run("missing provider keys do not fail validation", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.LLM.APIKey != "" || cfg.Google.APIKey != "" {
			t.Errorf("expected empty provider keys")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("VERRE_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for unsupported cache type")
		}
	})

	t.Run("fails validation for zero batch size", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("VERRE_PROBE_BATCH_SIZE", "0")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for zero batch size")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		err := loadEnvFile()
		if err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		envContent := `
# Comment line
TEST_VAR_1=value1
TEST_VAR_2=value2

# Another comment
TEST_VAR_3=value3
`
		err := os.WriteFile(".env", []byte(envContent), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_VAR_3") != "value3" {
			t.Errorf("TEST_VAR_3 = %s, want value3", os.Getenv("TEST_VAR_3"))
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_VAR_3")
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		tempDir := t.TempDir()
		os.Chdir(tempDir)

		os.Setenv("TEST_OVERRIDE", "existing-value")

		err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644)
		if err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		err = loadEnvFile()
		if err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}

		os.Unsetenv("TEST_OVERRIDE")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Google: GoogleConfig{RequestTimeout: 10 * time.Second},
			LLM:    LLMConfig{RequestTimeout: 30 * time.Second},
			Cache:  CacheConfig{Type: "memory", TTL: time.Hour},
			Probe:  ProbeConfig{Timeout: time.Second, BatchSize: 5},
			Retail: RetailConfig{Timeout: time.Second},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("fails for invalid cache type", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Type = "invalid-type"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails for non-positive cache TTL", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.TTL = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero TTL")
		}
	})

	t.Run("fails for non-positive probe timeout", func(t *testing.T) {
		cfg := valid()
		cfg.Probe.Timeout = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero probe timeout")
		}
	})

	t.Run("fails for missing provider timeouts", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.RequestTimeout = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero LLM timeout")
		}
	})
}
