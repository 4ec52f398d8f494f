package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	// Health server
	HealthPort string

	// Discord
	DiscordBotToken  string
	DiscordChannelID string
	HandlerTimeout   time.Duration

	// Backend selection
	DataBackend string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// SQLite
	SQLiteDBPath string
	MirrorDBPath string

	// AMQP, optional for the bot
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Conversation
	SessionTTL         time.Duration
	SessionMaxActive   int
	CacheSweepInterval time.Duration
	// RateLimitPerMinute caps events per user. Zero disables the limit.
	RateLimitPerMinute int

	// Ledger
	LedgerYearPrefix bool
	LedgerRows       int
	LedgerCols       int
	Timezone         string

	LogLevel string
}

var validBackends = []string{"memory", "sheets", "sqlite"}

func Load() *Config {
	return &Config{
		HealthPort: getEnv("HEALTH_PORT", "8080"),

		DiscordBotToken:  getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
		HandlerTimeout:   getEnvDuration("HANDLER_TIMEOUT", 30*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		// SHEET_URL is accepted for deployments that only know the sheet link.
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", getEnv("SHEET_URL", "")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "credentials.json"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pengeluaran.db"),
		MirrorDBPath: getEnv("MIRROR_DB_PATH", "./data/mirror.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pengeluaran"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entry_recorded"),

		SessionTTL:         getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMaxActive:   getEnvInt("SESSION_MAX_ACTIVE", 10000),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		LedgerYearPrefix: getEnvBool("LEDGER_YEAR_PREFIX", false),
		LedgerRows:       getEnvInt("LEDGER_ROWS", 1000),
		LedgerCols:       getEnvInt("LEDGER_COLS", 100),
		Timezone:         getEnv("TIMEZONE", "Asia/Jakarta"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the configuration of the chat bot.
func (c *Config) Validate() error {
	errors := c.validateCommon()

	if strings.TrimSpace(c.DiscordBotToken) == "" {
		errors = append(errors, "DISCORD_BOT_TOKEN is required")
	}
	if c.HandlerTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid handler timeout %v: must be positive", c.HandlerTimeout))
	}
	if c.SessionTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must not be negative", c.SessionTTL))
	}
	if c.SessionMaxActive < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max active %d: must be at least 1", c.SessionMaxActive))
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	if c.CacheSweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache sweep interval %v: must be at least 1 second", c.CacheSweepInterval))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		errors = append(errors, checkDBPath("SQLite database", c.SQLiteDBPath)...)
	case "sheets":
		if strings.TrimSpace(c.GoogleSpreadsheetID) == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID or SHEET_URL is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			if c.GoogleServiceAccountFile == "" {
				errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
			} else if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.AMQPURL != "" {
		errors = append(errors, c.validateAMQP()...)
	}

	return joinErrors(errors)
}

// ValidateWorker checks the configuration of the ledger mirror worker.
func (c *Config) ValidateWorker() error {
	errors := c.validateCommon()
	errors = append(errors, checkDBPath("mirror database", c.MirrorDBPath)...)
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the ledger worker")
	} else {
		errors = append(errors, c.validateAMQP()...)
	}
	return joinErrors(errors)
}

func (c *Config) validateCommon() []string {
	var errors []string

	if port, err := strconv.Atoi(c.HealthPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.HealthPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.LedgerRows < 1 || c.LedgerCols < 4 {
		errors = append(errors, fmt.Sprintf("invalid ledger size %dx%d: need at least 1 row and 4 columns", c.LedgerRows, c.LedgerCols))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	return errors
}

func (c *Config) validateAMQP() []string {
	var errors []string
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
	return errors
}

func checkDBPath(label, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("%s path cannot be empty", label)}
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return []string{fmt.Sprintf("cannot create %s directory '%s': %v", label, dir, err)}
			}
		}
	}
	return nil
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
