package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the query state service configuration.
type Config struct {
	HTTP          HTTPConfig            `yaml:"http"`
	Database      DatabaseConfig        `yaml:"database"`
	Auth          AuthConfig            `yaml:"auth"`
	Storage       StorageConfig         `yaml:"storage"`
	Saved         SavedConfig           `yaml:"saved"`
	TemplateCache TemplateCacheConfig   `yaml:"template_cache"`
	Logging       LoggingConfig         `yaml:"logging"`
	Views         map[string]ViewConfig `yaml:"views"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis/Valkey connection settings. Empty addrs
// disables saved searches.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SavedConfig holds saved-search settings.
type SavedConfig struct {
	TTLHours   int `yaml:"ttl_hours"`    // 0 = keep forever
	MaxPerView int `yaml:"max_per_view"` // 0 = unlimited
	ListLimit  int `yaml:"list_limit"`   // default page size for list requests
}

// TemplateCacheConfig sizes the parsed template LRU.
type TemplateCacheConfig struct {
	Size int `yaml:"size"`
}

// ViewConfig describes one named search view.
type ViewConfig struct {
	Template    string            `yaml:"template"`
	Enforced    []string          `yaml:"enforced"`
	APIParams   map[string]string `yaml:"api_params"`
	IDField     string            `yaml:"id_field"`
	AnchorField string            `yaml:"anchor_field"`
}

// SavedEnabled reports whether a database is configured for saved searches.
func (c *Config) SavedEnabled() bool {
	return len(c.Database.Addrs) > 0
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "querystate:"
	}
	if c.Saved.ListLimit <= 0 {
		c.Saved.ListLimit = 100
	}
	if c.TemplateCache.Size <= 0 {
		c.TemplateCache.Size = 256
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Views) == 0 {
		return fmt.Errorf("at least one view is required")
	}
	for name, v := range c.Views {
		for _, n := range v.Enforced {
			if n == "" {
				return fmt.Errorf("views.%s.enforced contains an empty name", name)
			}
		}
		for k := range v.APIParams {
			if k == "" {
				return fmt.Errorf("views.%s.api_params contains an empty name", name)
			}
		}
	}
	if c.Saved.TTLHours < 0 {
		return fmt.Errorf("saved.ttl_hours must not be negative, got %d", c.Saved.TTLHours)
	}
	if c.Saved.MaxPerView < 0 {
		return fmt.Errorf("saved.max_per_view must not be negative, got %d", c.Saved.MaxPerView)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
