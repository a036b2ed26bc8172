package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the backninescrape collector.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Source   Source   `yaml:"source"`
	Collect  Collect  `yaml:"collect"`
	Schedule Schedule `yaml:"schedule"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// Storage holds paths and backend selection for data persistence.
type Storage struct {
	DataDir       string `yaml:"data_dir"`
	Backend       string `yaml:"backend"` // "csv" (default) or "sqlite"
	RawCSV        string `yaml:"raw_csv"`
	DailyMaxCSV   string `yaml:"daily_max_csv"`
	SQLitePath    string `yaml:"sqlite_path"`
	ArchiveEvents bool   `yaml:"archive_events"`
}

// Source holds the booking-site endpoint configuration.
type Source struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Collect controls a single collection run.
type Collect struct {
	MaxWorkers      int    `yaml:"max_workers"`
	RunTimeoutSecs  int    `yaml:"run_timeout_secs"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	ExcludeTitle    string `yaml:"exclude_title"`
	Gate            Gate   `yaml:"gate"`
}

// Gate is the local-time scheduling gate: when enabled, a location is only
// collected within ±ToleranceMins of Hour:Minute in its own timezone.
type Gate struct {
	Enabled       bool `yaml:"enabled"`
	Hour          int  `yaml:"hour"`
	Minute        int  `yaml:"minute"`
	ToleranceMins int  `yaml:"tolerance_mins"`
}

// Schedule configures the daemon's run cadence.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Server holds the read-only HTTP API listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Timeout returns the per-request HTTP timeout.
func (s Source) Timeout() time.Duration {
	if s.TimeoutSecs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(s.TimeoutSecs) * time.Second
}

// RunTimeout returns the whole-run deadline. Locations still pending at the
// deadline are treated as failed for that run.
func (c Collect) RunTimeout() time.Duration {
	if c.RunTimeoutSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.RunTimeoutSecs) * time.Second
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, applies defaults, and then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a usable configuration without a config file, for the
// common case of running the collector with no setup at all.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "csv"
	}
	if cfg.Storage.RawCSV == "" {
		cfg.Storage.RawCSV = "booked_hours_raw.csv"
	}
	if cfg.Storage.DailyMaxCSV == "" {
		cfg.Storage.DailyMaxCSV = "booked_hours_daily_max.csv"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "backnine.db"
	}
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = "https://book.b9.golf"
	}
	if cfg.Collect.MaxWorkers <= 0 {
		cfg.Collect.MaxWorkers = 8
	}
	if cfg.Collect.RateLimitPerMin <= 0 {
		cfg.Collect.RateLimitPerMin = 120
	}
	if cfg.Collect.ExcludeTitle == "" {
		cfg.Collect.ExcludeTitle = "clean"
	}
	if cfg.Collect.Gate.Hour == 0 && cfg.Collect.Gate.Minute == 0 {
		cfg.Collect.Gate.Hour = 23
		cfg.Collect.Gate.Minute = 45
	}
	if cfg.Collect.Gate.ToleranceMins <= 0 {
		cfg.Collect.Gate.ToleranceMins = 7
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "*/15 * * * *"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8745
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("B9_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
