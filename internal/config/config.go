// internal/config/config.go
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultUserHeader   = "X-User-ID"
	defaultQueryTimeout = 5 * time.Second
	defaultShutdown     = 10 * time.Second
	defaultLimitWindow  = time.Minute
	defaultInventory    = "*/5 * * * *"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type AuthConfig struct {
	// UserHeader carries the acting user id set by the fronting auth proxy.
	UserHeader string `yaml:"user_header"`
}

type ThemesConfig struct {
	QueryTimeout time.Duration   `yaml:"query_timeout"`
	SeedOnStart  *bool           `yaml:"seed_on_start"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	// InventoryCron schedules the stored theme gauges. It only runs when
	// metrics are enabled.
	InventoryCron string `yaml:"inventory_cron"`
}

// RateLimitConfig bounds theme writes. Zero limits disable throttling.
type RateLimitConfig struct {
	Window     time.Duration `yaml:"window"`
	MaxPerUser int           `yaml:"max_per_user"`
	MaxPerIP   int           `yaml:"max_per_ip"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

func (r RateLimitConfig) Enabled() bool {
	return r.MaxPerUser > 0 || r.MaxPerIP > 0
}

// ShouldSeed reports whether system themes are seeded at startup. It
// defaults to true.
func (t ThemesConfig) ShouldSeed() bool {
	return t.SeedOnStart == nil || *t.SeedOnStart
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		BaseURL         string        `yaml:"base_url"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Themes   ThemesConfig   `yaml:"themes"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and fills defaults. It does not read the
// environment or validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.ShutdownTimeout == 0 {
		c.App.ShutdownTimeout = defaultShutdown
	}
	if c.Auth.UserHeader == "" {
		c.Auth.UserHeader = defaultUserHeader
	}
	if c.Themes.QueryTimeout == 0 {
		c.Themes.QueryTimeout = defaultQueryTimeout
	}
	if c.Themes.InventoryCron == "" {
		c.Themes.InventoryCron = defaultInventory
	}
	if c.Themes.RateLimit.Window == 0 {
		c.Themes.RateLimit.Window = defaultLimitWindow
	}
}

// applyEnv lets deployments override selected values without editing YAML.
func applyEnv(c *Config) {
	if env := os.Getenv("APP_ENV"); env != "" {
		c.App.Environment = env
	}
	if filename := os.Getenv("DATABASE_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if header := os.Getenv("AUTH_USER_HEADER"); header != "" {
		c.Auth.UserHeader = header
	}
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		return fmt.Errorf("app port %d is out of range", c.App.Port)
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	// Validate based on database driver
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if http.CanonicalHeaderKey(c.Auth.UserHeader) == "" {
		return fmt.Errorf("auth user_header is required")
	}
	if c.Themes.QueryTimeout < 0 {
		return fmt.Errorf("themes query_timeout must be positive")
	}
	if limit := c.Themes.RateLimit; limit.Window < 0 || limit.MaxPerUser < 0 || limit.MaxPerIP < 0 {
		return fmt.Errorf("themes rate_limit values must not be negative")
	}
	if _, err := cron.ParseStandard(c.Themes.InventoryCron); err != nil {
		return fmt.Errorf("themes inventory_cron: %w", err)
	}

	return nil
}
