package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
	} `yaml:"app"`

	Upstream UpstreamConfig `yaml:"upstream"`

	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`

	Refresh struct {
		Cron            string `yaml:"cron"`
		WatchTTLMinutes int    `yaml:"watch_ttl_minutes"`

		// FallbackToken authenticates refresh runs for watches whose
		// caller token has expired out. Comes from the environment, never
		// from the config file.
		FallbackToken string `yaml:"-"`
	} `yaml:"refresh"`

	Proxy struct {
		MaxRequestsPerMinute int `yaml:"max_requests_per_minute"`
	} `yaml:"proxy"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Load sensitive and deploy-specific values from environment
	if baseURL := os.Getenv("UPSTREAM_BASE_URL"); baseURL != "" {
		cfg.Upstream.BaseURL = baseURL
	}
	cfg.Refresh.FallbackToken = os.Getenv("REFRESH_BEARER_TOKEN")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 15
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 4096
	}
	if c.Refresh.Cron == "" {
		c.Refresh.Cron = "*/5 * * * *"
	}
	if c.Refresh.WatchTTLMinutes == 0 {
		c.Refresh.WatchTTLMinutes = 30
	}
	if c.Proxy.MaxRequestsPerMinute == 0 {
		c.Proxy.MaxRequestsPerMinute = 120
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base_url is required")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache size must be positive")
	}
	return nil
}
