package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"45s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	SheetsEndpoint string        `envconfig:"SHEETS_ENDPOINT" required:"true"`
	SheetsTimeout  time.Duration `envconfig:"SHEETS_TIMEOUT" default:"30s"`
	UploadTimeout  time.Duration `envconfig:"UPLOAD_TIMEOUT" default:"10s"`
	LoadTimeout    time.Duration `envconfig:"LEDGER_LOAD_TIMEOUT" default:"60s"`
	UploadFolderID string        `envconfig:"UPLOAD_FOLDER_ID"`

	PendingSheet   string `envconfig:"PENDING_SHEET" default:"INVENTORY"`
	HistorySheet   string `envconfig:"HISTORY_SHEET" default:"INVENTORY History"`
	LookupSheet    string `envconfig:"LOOKUP_SHEET" default:"Master Drop-Down"`
	LedgerTimezone string `envconfig:"LEDGER_TIMEZONE" default:"Asia/Kolkata"`

	SessionIdle time.Duration `envconfig:"SESSION_IDLE" default:"2h"`

	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CommitTTL time.Duration `envconfig:"COMMIT_TTL" default:"72h"`

	LowStockScanCron  string `envconfig:"LOW_STOCK_SCAN_CRON" default:"0 7 * * *"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	location *time.Location
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first when present; real environment
// variables win over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SheetsEndpoint == "" {
		return errors.New("sheets endpoint must be provided")
	}
	if c.UploadTimeout <= 0 {
		return errors.New("upload timeout must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("rate limit must be positive")
	}
	loc, err := time.LoadLocation(c.LedgerTimezone)
	if err != nil {
		return fmt.Errorf("ledger timezone %q: %w", c.LedgerTimezone, err)
	}
	c.location = loc
	if c.LowStockScanCron != "" {
		if _, err := cron.ParseStandard(c.LowStockScanCron); err != nil {
			return fmt.Errorf("low stock scan cron %q: %w", c.LowStockScanCron, err)
		}
	}
	return nil
}

// Location returns the ledger timezone, UTC when unset.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c != nil && c.RedisAddr != ""
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
