package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `fineasy init`.
const FileName = "fineasy.yaml"

// Environment overrides.
const (
	EnvDatabaseURL         = "FINEASY_DATABASE_URL"
	// EnvDatabaseURLFallback is the conventional DATABASE_URL, read when
	// EnvDatabaseURL is unset.
	EnvDatabaseURLFallback = "DATABASE_URL"
	EnvLogLevel            = "FINEASY_LOG_LEVEL"
	EnvKafkaBrokers        = "FINEASY_KAFKA_BROKERS"
)

// Config represents the top-level fineasy.yaml configuration.
type Config struct {
	Business    BusinessConfig    `yaml:"business"`
	Database    DatabaseConfig    `yaml:"database"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Adjustments AdjustmentsConfig `yaml:"adjustments"`
	Intake      IntakeConfig      `yaml:"intake"`
	Events      EventsConfig      `yaml:"events"`
	Log         LogConfig         `yaml:"log"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// DatabaseConfig selects the journal store: a postgres:// URL or a
// SQLite path (optionally sqlite://path).
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// MonitorConfig tunes the integrity audits.
type MonitorConfig struct {
	KeyAccounts       []string `yaml:"key_accounts"`
	AnomalyWindowDays int      `yaml:"anomaly_window_days"`
	Tolerance         string   `yaml:"tolerance"`
	ZScoreThreshold   float64  `yaml:"zscore_threshold"`
	Concurrency       int      `yaml:"concurrency"`
}

// ToleranceDecimal parses Tolerance.
func (m MonitorConfig) ToleranceDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(m.Tolerance)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing monitor tolerance %q: %w", m.Tolerance, err)
	}
	return d, nil
}

// AdjustmentsConfig names the offset accounts used by adjusting entries.
type AdjustmentsConfig struct {
	RetainedEarnings string `yaml:"retained_earnings"`
	Cash             string `yaml:"cash"`
}

// IntakeConfig controls raw-transaction processing.
type IntakeConfig struct {
	CashAccount    string `yaml:"cash_account"`
	DefaultAccount string `yaml:"default_account"`
	BatchSize      int    `yaml:"batch_size"`
}

// EventsConfig enables EntryPosted publishing when Brokers is set.
type EventsConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads a fineasy.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name: businessName,
		},
		Database: DatabaseConfig{
			URL: "fineasy.db",
		},
		Monitor: MonitorConfig{
			KeyAccounts:       []string{"1000", "1100", "2000", "1200", "4000", "5100"},
			AnomalyWindowDays: 30,
			Tolerance:         "0.01",
			ZScoreThreshold:   2,
			Concurrency:       4,
		},
		Adjustments: AdjustmentsConfig{
			RetainedEarnings: "3100",
			Cash:             "1000",
		},
		Intake: IntakeConfig{
			CashAccount:    "1000",
			DefaultAccount: "5100",
			BatchSize:      100,
		},
		Events: EventsConfig{
			Topic: "ledger.entry_posted",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnv loads envPath (or ./.env when empty, ignoring a missing file)
// and overrides fields from the environment.
func (c *Config) ApplyEnv(envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	} else if v := os.Getenv(EnvDatabaseURLFallback); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Events.Brokers = brokers
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Monitor.AnomalyWindowDays <= 0 {
		errs = append(errs, errors.New("monitor.anomaly_window_days must be positive"))
	}
	if tol, err := c.Monitor.ToleranceDecimal(); err != nil {
		errs = append(errs, err)
	} else if !tol.IsPositive() {
		errs = append(errs, errors.New("monitor.tolerance must be positive"))
	}
	if c.Monitor.ZScoreThreshold <= 0 {
		errs = append(errs, errors.New("monitor.zscore_threshold must be positive"))
	}
	if c.Monitor.Concurrency < 1 {
		errs = append(errs, errors.New("monitor.concurrency must be at least 1"))
	}
	if c.Adjustments.RetainedEarnings == "" || c.Adjustments.Cash == "" {
		errs = append(errs, errors.New("adjustments accounts are required"))
	}
	if c.Intake.CashAccount == "" || c.Intake.DefaultAccount == "" {
		errs = append(errs, errors.New("intake accounts are required"))
	}
	return errors.Join(errs...)
}
