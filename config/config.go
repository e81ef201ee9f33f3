package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Google    GoogleConfig
	LLM       LLMConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Probe     ProbeConfig
	Retail    RetailConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GoogleConfig holds geocoding/places provider configuration
type GoogleConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	GeocodeBaseURL      string        `mapstructure:"geocode_base_url"`
	PlacesBaseURL       string        `mapstructure:"places_base_url"`
	LegacyPlacesBaseURL string        `mapstructure:"legacy_places_base_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig holds language-model provider configuration
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	TextModel      string        `mapstructure:"text_model"`
	VisionModel    string        `mapstructure:"vision_model"`
	AdvisorModel   string        `mapstructure:"advisor_model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // only "memory" for now
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"` // requests per minute per client IP
	Places int `mapstructure:"places"` // outbound places requests per second
}

// ProbeConfig controls the wine-menu prober
type ProbeConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	BatchSize     int           `mapstructure:"batch_size"`
	MaxCandidates int           `mapstructure:"max_candidates"`
}

// RetailConfig controls the retailer scrapers
type RetailConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	CatalogPath string        `mapstructure:"catalog_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/verre/")

	// Environment variable settings
	v.SetEnvPrefix("VERRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Google defaults
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.geocode_base_url", "https://maps.googleapis.com/maps/api/geocode")
	v.SetDefault("google.places_base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.legacy_places_base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("google.request_timeout", "10s")

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.text_model", "gemini-1.5-pro")
	v.SetDefault("llm.vision_model", "gemini-1.5-flash")
	v.SetDefault("llm.advisor_model", "gemini-1.5-flash")
	v.SetDefault("llm.request_timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 10000)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.places", 10)

	// Menu probe defaults
	v.SetDefault("probe.timeout", "3500ms")
	v.SetDefault("probe.batch_size", 5)
	v.SetDefault("probe.max_candidates", 20)

	// Retail scraper defaults
	v.SetDefault("retail.timeout", "9s")
	v.SetDefault("retail.catalog_path", "")
}

// validate validates the configuration. Missing provider keys are allowed:
// the affected features degrade instead of refusing to start.
func validate(config *Config) error {
	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Probe.Timeout <= 0 || config.Retail.Timeout <= 0 {
		return fmt.Errorf("probe and retail timeouts must be positive")
	}

	if config.Probe.BatchSize < 1 {
		return fmt.Errorf("probe batch size must be at least 1, got: %d", config.Probe.BatchSize)
	}

	if config.Google.RequestTimeout <= 0 || config.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("provider request timeouts must be positive")
	}

	return nil
}
