// backend/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// SourceConfig configures one ad-platform adapter. Delay bounds drive that
// adapter's rate limiter.
type SourceConfig struct {
	Enabled     bool     `yaml:"enabled"`
	BaseURL     string   `yaml:"base_url"`
	MinDelayStr string   `yaml:"min_delay"`
	MaxDelayStr string   `yaml:"max_delay"`
	Queries     []string `yaml:"queries"` // product-search sources run one fetch per query

	MinDelay time.Duration `yaml:"-"` // parsed
	MaxDelay time.Duration `yaml:"-"` // parsed
}

type ScrapeConfig struct {
	Query     string                  `yaml:"query"`
	MaxLeads  int                     `yaml:"max_leads"`
	SinceDays int                     `yaml:"since_days"`
	Region    string                  `yaml:"region"`
	Sources   map[string]SourceConfig `yaml:"sources"` // keyed by ad source tag
}

type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	DelayStr    string  `yaml:"delay"`
	Backoff     float64 `yaml:"backoff"`

	Delay time.Duration `yaml:"-"` // parsed
}

type EnrichmentConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ClearbitAPIKey string `yaml:"clearbit_api_key"`
	MinDelayStr    string `yaml:"min_delay"`
	MaxDelayStr    string `yaml:"max_delay"`
	TimeoutStr     string `yaml:"timeout"`

	MinDelay time.Duration `yaml:"-"` // parsed
	MaxDelay time.Duration `yaml:"-"` // parsed
	Timeout  time.Duration `yaml:"-"` // parsed
}

type ExportConfig struct {
	Directory string `yaml:"directory"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Scrape     ScrapeConfig     `yaml:"scrape"`
	Retry      RetryConfig      `yaml:"retry"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Export     ExportConfig     `yaml:"export"`
}

// Load reads and validates the YAML configuration at path. Secrets can come
// from the environment instead of the file: LEADS_DB_PASSWORD and
// CLEARBIT_API_KEY override their YAML counterparts when set.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Scrape.MaxLeads <= 0 {
		cfg.Scrape.MaxLeads = 100
	}
	if cfg.Scrape.SinceDays <= 0 {
		cfg.Scrape.SinceDays = 30
	}
	if cfg.Scrape.Region == "" {
		cfg.Scrape.Region = "US"
	}

	for name, src := range cfg.Scrape.Sources {
		src.MinDelay, err = parseDurationOr(src.MinDelayStr, 2*time.Second)
		if err != nil {
			return nil, fmt.Errorf("source %s: bad min_delay: %w", name, err)
		}
		src.MaxDelay, err = parseDurationOr(src.MaxDelayStr, 4*time.Second)
		if err != nil {
			return nil, fmt.Errorf("source %s: bad max_delay: %w", name, err)
		}
		cfg.Scrape.Sources[name] = src
	}

	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.Backoff < 1 {
		cfg.Retry.Backoff = 2.0
	}
	cfg.Retry.Delay, err = parseDurationOr(cfg.Retry.DelayStr, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("bad retry delay: %w", err)
	}

	cfg.Enrichment.MinDelay, err = parseDurationOr(cfg.Enrichment.MinDelayStr, time.Second)
	if err != nil {
		return nil, fmt.Errorf("bad enrichment min_delay: %w", err)
	}
	cfg.Enrichment.MaxDelay, err = parseDurationOr(cfg.Enrichment.MaxDelayStr, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("bad enrichment max_delay: %w", err)
	}
	cfg.Enrichment.Timeout, err = parseDurationOr(cfg.Enrichment.TimeoutStr, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("bad enrichment timeout: %w", err)
	}

	if pw := os.Getenv("LEADS_DB_PASSWORD"); pw != "" {
		cfg.Database.Password = pw
	}
	if key := os.Getenv("CLEARBIT_API_KEY"); key != "" {
		cfg.Enrichment.ClearbitAPIKey = key
	}

	if cfg.Export.Directory == "" {
		cfg.Export.Directory = "."
	}

	return &cfg, nil
}

// Source returns the configuration for one ad source tag, with delay
// defaults applied even when the source is absent from the file.
func (c *Config) Source(name string) SourceConfig {
	if src, ok := c.Scrape.Sources[name]; ok {
		return src
	}
	return SourceConfig{MinDelay: 2 * time.Second, MaxDelay: 4 * time.Second}
}

func parseDurationOr(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
