package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider      string `yaml:"provider"`
		YahooBaseURL  string `yaml:"yahoo_base_url"`
		PolygonAPIKey string `yaml:"polygon_api_key"`
	} `yaml:"data_source"`
	Fetch struct {
		Timeout       time.Duration `yaml:"timeout"`
		ExpiryWorkers int           `yaml:"expiry_workers"`
	} `yaml:"fetch"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Watch struct {
		Cron string `yaml:"cron"`
	} `yaml:"watch"`
	UI struct {
		Symbol    string `yaml:"symbol"`
		StartDate string `yaml:"start_date"`
		EndDate   string `yaml:"end_date"`
	} `yaml:"ui"`
	Proxy string `yaml:"proxy"`
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
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
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.YahooBaseURL = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.PolygonAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Fetch.Timeout = d
		}
	}
	if v := os.Getenv("EXPIRY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Fetch.ExpiryWorkers = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Watch.Cron = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.ExpiryWorkers == 0 {
		cfg.Fetch.ExpiryWorkers = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "tickerdesk.log"
	}
	if cfg.Watch.Cron == "" {
		cfg.Watch.Cron = "0 */5 * * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "polygon":
		if c.DataSource.PolygonAPIKey == "" {
			return fmt.Errorf("data_source.polygon_api_key is required for the polygon provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, polygon, mock", c.DataSource.Provider)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.ExpiryWorkers < 1 {
		return fmt.Errorf("fetch.expiry_workers must be at least 1")
	}
	return nil
}
