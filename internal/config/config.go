// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/factchecker/veridex/internal/models"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Translation TranslationConfig `yaml:"translation"`
	RateLimits  RateLimitConfig   `yaml:"rate_limits"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	TTLSeconds             int `yaml:"ttl_seconds"`
	CleanupIntervalSeconds int `yaml:"cleanup_interval_seconds"`
}

// TTL returns the memory-cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CleanupInterval returns the memory-cache sweep interval as a duration.
func (c CacheConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

type ProvidersConfig struct {
	TimeoutSeconds  int                    `yaml:"timeout_seconds"`
	Registry        RegistryConfig         `yaml:"registry"`
	OfficialSources []OfficialSourceConfig `yaml:"official_sources"`
	ImageMatch      ImageMatchConfig       `yaml:"image_match"`
}

// Timeout returns the per-provider deadline as a duration.
func (p ProvidersConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RegistryConfig configures the public fact-check registry provider
// (Fact Check Tools claims:search API).
type RegistryConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// OfficialSourceConfig describes one official-source registry entry.
type OfficialSourceConfig struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Category    string `yaml:"category"`
	Language    string `yaml:"language"`
	APIEndpoint string `yaml:"api_endpoint"`
	AuthMethod  string `yaml:"auth_method"` // "" or "api_key"
	APIKey      string `yaml:"api_key"`
}

type ImageMatchConfig struct {
	Enabled        bool     `yaml:"enabled"`
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	TrustedSources []string `yaml:"trusted_sources"`
}

type TranslationConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"default_requests_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/veridex.db",
		},
		Cache: CacheConfig{
			TTLSeconds:             3600,
			CleanupIntervalSeconds: 600,
		},
		Providers: ProvidersConfig{
			TimeoutSeconds: 5,
			Registry: RegistryConfig{
				Enabled: true,
				BaseURL: "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			},
			ImageMatch: ImageMatchConfig{
				TrustedSources: []string{"NCDC", "INEC", "Government"},
			},
		},
		Translation: TranslationConfig{
			BaseURL: "http://localhost:5000",
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run with --generate-config to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# Veridex Configuration
# See documentation for all options

server:
  port: 8080

database:
  path: ./data/veridex.db

cache:
  ttl_seconds: 3600
  cleanup_interval_seconds: 600

providers:
  timeout_seconds: 5

  registry:
    enabled: true
    base_url: https://factchecktools.googleapis.com/v1alpha1/claims:search
    api_key: ${FACTCHECK_API_KEY}

  official_sources:
    - name: NCDC
      url: https://ncdc.gov.ng
      category: health
      language: en
      api_endpoint: https://api.ncdc.gov.ng/factcheck
      auth_method: api_key
      api_key: ${NCDC_API_KEY}
    # - name: INEC
    #   url: https://inecnigeria.org
    #   category: politics
    #   language: en
    #   api_endpoint: https://api.inecnigeria.org/claims

  image_match:
    enabled: false
    base_url: ${IMAGE_MATCH_URL}
    api_key: ${IMAGE_MATCH_API_KEY}
    trusted_sources: [NCDC, INEC, Government]

translation:
  enabled: false
  base_url: http://localhost:5000  # LibreTranslate

rate_limits:
  default_requests_per_minute: 60

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Providers.TimeoutSeconds <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}

	if c.Providers.Registry.Enabled && c.Providers.Registry.APIKey == "" {
		return fmt.Errorf("registry API key is required when the registry provider is enabled")
	}

	for _, src := range c.Providers.OfficialSources {
		if src.Name == "" {
			return fmt.Errorf("official source name is required")
		}
		if !models.ValidCategory(models.Category(src.Category)) {
			return fmt.Errorf("official source %s: unsupported category: %s", src.Name, src.Category)
		}
		if src.AuthMethod == "api_key" && src.APIKey == "" {
			return fmt.Errorf("official source %s: missing API key", src.Name)
		}
	}

	if c.Providers.ImageMatch.Enabled && c.Providers.ImageMatch.BaseURL == "" {
		return fmt.Errorf("image match base URL is required when the image provider is enabled")
	}

	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if not set
	})
}
