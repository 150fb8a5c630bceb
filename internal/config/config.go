package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Providers struct {
		AlphaVantageKey string `yaml:"alphavantage_api_key"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
	} `yaml:"providers"`
	Pricing struct {
		CacheTTLHours int `yaml:"cache_ttl_hours"`
	} `yaml:"pricing"`
	Portfolio struct {
		RiskFreeRate   float64 `yaml:"risk_free_rate"`
		LookbackMonths int     `yaml:"lookback_months"`
		RiskTolerance  string  `yaml:"risk_tolerance"`
	} `yaml:"portfolio"`
	Fraud struct {
		LargeAmountThreshold float64 `yaml:"large_amount_threshold"`
		OddHourStart         int     `yaml:"odd_hour_start"`
		OddHourEnd           int     `yaml:"odd_hour_end"`
		ZScoreThreshold      float64 `yaml:"zscore_threshold"`
		MinHistory           int     `yaml:"min_history"`
	} `yaml:"fraud"`
	Schedule struct {
		RefreshCron  string   `yaml:"refresh_cron"`
		PruneCron    string   `yaml:"prune_cron"`
		WatchSymbols []string `yaml:"watch_symbols"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// defaults returns a Config with every field at its baseline value.
// Seeding these before the YAML is parsed lets an explicit zero in the
// file (e.g. risk_free_rate: 0) stand instead of being mistaken for
// unset.
func defaults() *Config {
	cfg := &Config{}
	cfg.Providers.TimeoutSeconds = 10
	cfg.Pricing.CacheTTLHours = 1
	cfg.Portfolio.RiskFreeRate = 0.0425
	cfg.Portfolio.LookbackMonths = 6
	cfg.Portfolio.RiskTolerance = "moderate"
	cfg.Fraud.LargeAmountThreshold = 5000
	cfg.Fraud.OddHourEnd = 5
	cfg.Fraud.ZScoreThreshold = 2.5
	cfg.Fraud.MinHistory = 3
	cfg.Schedule.RefreshCron = "0 */30 * * * *"
	cfg.Schedule.PruneCron = "0 0 * * * *"
	cfg.Database.SQLitePath = "data/finsentinel.db"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

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
		cfg.Providers.AlphaVantageKey = v
	}
	if v := os.Getenv("CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pricing.CacheTTLHours = n
		}
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Portfolio.RiskFreeRate = f
		}
	}
	if v := os.Getenv("RISK_TOLERANCE"); v != "" {
		cfg.Portfolio.RiskTolerance = v
	}
	if v := os.Getenv("FRAUD_LARGE_AMOUNT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Fraud.LargeAmountThreshold = f
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// ProviderTimeout returns the per-provider attempt timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

// CacheTTL returns the price cache time-to-live.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Pricing.CacheTTLHours) * time.Hour
}

// Validate checks that all required fields are sane.
func (c *Config) Validate() error {
	if c.Providers.TimeoutSeconds <= 0 {
		return fmt.Errorf("providers.timeout_seconds must be positive")
	}
	if c.Pricing.CacheTTLHours <= 0 {
		return fmt.Errorf("pricing.cache_ttl_hours must be positive")
	}
	if c.Portfolio.LookbackMonths <= 0 {
		return fmt.Errorf("portfolio.lookback_months must be positive")
	}
	if c.Fraud.LargeAmountThreshold <= 0 {
		return fmt.Errorf("fraud.large_amount_threshold must be positive")
	}
	if c.Fraud.OddHourStart < 0 || c.Fraud.OddHourStart > 23 ||
		c.Fraud.OddHourEnd < 0 || c.Fraud.OddHourEnd > 23 {
		return fmt.Errorf("fraud odd-hour window must be within 0-23")
	}
	if c.Fraud.ZScoreThreshold <= 0 {
		return fmt.Errorf("fraud.zscore_threshold must be positive")
	}
	if c.Fraud.MinHistory < 2 {
		return fmt.Errorf("fraud.min_history must be at least 2")
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	return nil
}
