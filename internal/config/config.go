package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "1h" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Providers struct {
		AlphaVantage struct {
			APIKey      string   `yaml:"api_key"`
			Quota       int      `yaml:"quota"`
			Window      Duration `yaml:"window"`
		} `yaml:"alphavantage"`
		Finnhub struct {
			APIKey string   `yaml:"api_key"`
			Quota  int      `yaml:"quota"`
			Window Duration `yaml:"window"`
		} `yaml:"finnhub"`
	} `yaml:"providers"`
	Cache struct {
		Freshness   Duration `yaml:"freshness"`
		Retention   Duration `yaml:"retention"`
		CleanupCron string   `yaml:"cleanup_cron"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CACHE_FRESHNESS"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.Freshness = Duration(parsed)
		}
	}
	if v := os.Getenv("CACHE_RETENTION"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Cache.Retention = Duration(parsed)
		}
	}

	// Defaults. Provider quotas match the free tiers: Alpha Vantage allows
	// 25 requests per day, Finnhub 60 per minute.
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Providers.AlphaVantage.Quota == 0 {
		cfg.Providers.AlphaVantage.Quota = 25
	}
	if cfg.Providers.AlphaVantage.Window == 0 {
		cfg.Providers.AlphaVantage.Window = Duration(24 * time.Hour)
	}
	if cfg.Providers.Finnhub.Quota == 0 {
		cfg.Providers.Finnhub.Quota = 60
	}
	if cfg.Providers.Finnhub.Window == 0 {
		cfg.Providers.Finnhub.Window = Duration(time.Minute)
	}
	if cfg.Cache.Freshness == 0 {
		cfg.Cache.Freshness = Duration(time.Hour)
	}
	if cfg.Cache.Retention == 0 {
		cfg.Cache.Retention = Duration(168 * time.Hour)
	}
	if cfg.Cache.CleanupCron == "" {
		cfg.Cache.CleanupCron = "0 0 3 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/divtracker.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Providers.AlphaVantage.APIKey == "" && c.Providers.Finnhub.APIKey == "" {
		return fmt.Errorf("at least one provider api key is required")
	}
	if c.Cache.Freshness <= 0 {
		return fmt.Errorf("cache.freshness must be positive")
	}
	if c.Cache.Retention <= 0 {
		return fmt.Errorf("cache.retention must be positive")
	}
	return nil
}
