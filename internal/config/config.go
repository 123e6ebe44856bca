package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Data backends understood by the backend factory.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var validBackends = []string{BackendMemory, BackendJSON, BackendSQLite, BackendRedis}

type Config struct {
	// HTTP Server
	Port               string `envconfig:"PORT" default:"3000"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	DataBackend      string        `envconfig:"DATA_BACKEND" default:"json"`
	DataFile         string        `envconfig:"DATA_FILE" default:"./data/data.json"`
	SQLiteDBPath     string        `envconfig:"SQLITE_DB_PATH" default:"./data/cablebill.db"`
	RedisAddr        string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	BackupFile       string        `envconfig:"BACKUP_FILE"`
	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`

	// Monthly billing; day 0 disables the scheduler
	BillingDay           int           `envconfig:"BILLING_DAY" default:"0"`
	BillingCheckInterval time.Duration `envconfig:"BILLING_CHECK_INTERVAL" default:"1h"`

	// Remote sync server
	SyncEnabled   bool          `envconfig:"SYNC_ENABLED" default:"false"`
	RemoteURL     string        `envconfig:"REMOTE_URL"`
	RemoteTimeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"5s"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"cablebill"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"ledger_events"`

	// Google Sheets export
	GoogleSpreadsheetID string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName     string `envconfig:"GOOGLE_SHEET_NAME" default:"Payments"`

	// Messaging gateways
	SMSAPIURL      string `envconfig:"SMS_API_URL"`
	SMSAPIKey      string `envconfig:"SMS_API_KEY"`
	WhatsAppAPIURL string `envconfig:"WHATSAPP_API_URL"`
	WhatsAppAPIKey string `envconfig:"WHATSAPP_API_KEY"`
	BusinessName   string `envconfig:"BUSINESS_NAME" default:"MS Digital Cable TV"`
}

// Load reads the configuration from the environment. It does not validate.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

// BillingEnabled reports whether the monthly invoice scheduler should run.
func (c *Config) BillingEnabled() bool {
	return c.BillingDay > 0
}

// AMQPEnabled reports whether ledger events should be published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// RemoteEnabled reports whether the repository should create records on
// the sync server.
func (c *Config) RemoteEnabled() bool {
	return c.SyncEnabled && strings.TrimSpace(c.RemoteURL) != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Validate data backend
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendJSON:
		if c.DataFile == "" {
			errors = append(errors, "data file cannot be empty when using json backend")
		} else if msg := ensureDir(c.DataFile); msg != "" {
			errors = append(errors, msg)
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath); msg != "" {
			errors = append(errors, msg)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
	}

	if c.BackupFile != "" {
		if c.DataBackend == BackendJSON && filepath.Clean(c.BackupFile) == filepath.Clean(c.DataFile) {
			errors = append(errors, "backup file must differ from the data file")
		} else if msg := ensureDir(c.BackupFile); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.AutosaveInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at least 1 second", c.AutosaveInterval))
	} else if c.AutosaveInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at most 24 hours", c.AutosaveInterval))
	}

	if c.BillingDay < 0 || c.BillingDay > 28 {
		errors = append(errors, fmt.Sprintf("invalid billing day %d: must be between 0 and 28", c.BillingDay))
	}
	if c.BillingDay > 0 && c.BillingCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid billing check interval %v: must be at least 1 minute", c.BillingCheckInterval))
	}

	// Remote sync
	if c.SyncEnabled && c.RemoteURL == "" {
		errors = append(errors, "REMOTE_URL is required when SYNC_ENABLED is true")
	}
	if c.RemoteURL != "" {
		if msg := checkHTTPURL("remote URL", c.RemoteURL); msg != "" {
			errors = append(errors, msg)
		}
	}
	if c.RemoteTimeout <= 0 || c.RemoteTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must be between 0 and 1 minute", c.RemoteTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Messaging gateways need both halves
	if (c.SMSAPIURL == "") != (c.SMSAPIKey == "") {
		errors = append(errors, "SMS_API_URL and SMS_API_KEY must be set together")
	}
	if (c.WhatsAppAPIURL == "") != (c.WhatsAppAPIKey == "") {
		errors = append(errors, "WHATSAPP_API_URL and WHATSAPP_API_KEY must be set together")
	}
	if c.SMSAPIURL != "" {
		if msg := checkHTTPURL("SMS API URL", c.SMSAPIURL); msg != "" {
			errors = append(errors, msg)
		}
	}
	if c.WhatsAppAPIURL != "" {
		if msg := checkHTTPURL("WhatsApp API URL", c.WhatsAppAPIURL); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings the sheets export worker needs on
// top of Validate.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sync worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sync worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ensureDir creates the parent directory of path if needed.
func ensureDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
}

func checkHTTPURL(name, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid %s '%s': %v", name, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("invalid %s scheme '%s': must be 'http' or 'https'", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Sprintf("invalid %s '%s': missing host", name, raw)
	}
	return ""
}
