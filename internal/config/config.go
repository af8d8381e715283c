package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"subtrack/internal/core"
)

// ConfigFileEnv names the optional TOML file read before environment overrides.
const ConfigFileEnv = "SUBTRACK_CONFIG_FILE"

// Config is resolved from defaults, then the TOML file, then the environment.
type Config struct {
	// HTTP Server
	Port           string        `toml:"port"`
	PublicURL      string        `toml:"public_url"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	TrustedProxies []string      `toml:"trusted_proxies"`
	RateLimit      int           `toml:"rate_limit_per_minute"`
	ShutdownGrace  time.Duration `toml:"shutdown_grace"`
	LogLevel       string        `toml:"log_level"`

	// Storage
	DataBackend  string `toml:"data_backend"`
	SQLiteDBPath string `toml:"sqlite_db_path"`
	PostgresDSN  string `toml:"postgres_dsn"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Redis change feed and session revocation
	RedisURL     string `toml:"redis_url"`
	RedisChannel string `toml:"redis_channel"`

	// Google sign-in
	GoogleOAuthClientID     string        `toml:"google_oauth_client_id"`
	GoogleOAuthClientSecret string        `toml:"google_oauth_client_secret"`
	GoogleOAuthRedirectURL  string        `toml:"google_oauth_redirect_url"`
	SessionSecret           string        `toml:"session_secret"`
	SessionTTL              time.Duration `toml:"session_ttl"`
	SecureCookies           bool          `toml:"secure_cookies"`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`
	GoogleServiceAccountJSON string `toml:"google_service_account_json"`

	// Alerts
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   int64  `toml:"telegram_chat_id"`
	AlertCronSpec    string `toml:"alert_cron_spec"`
	AlertsInServer   bool   `toml:"alerts_in_server"`

	// Presentation
	DefaultLocale string `toml:"default_locale"`
	Timezone      string `toml:"timezone"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Port:          "8081",
		RateLimit:     120,
		ShutdownGrace: 10 * time.Second,
		LogLevel:      "info",

		DataBackend:  "memory",
		SQLiteDBPath: "./data/subtrack.db",

		AMQPExchange: "subtrack",
		AMQPQueue:    "subscription_snapshots",

		RedisChannel: "subtrack:changes",

		SessionTTL: 7 * 24 * time.Hour,

		AlertCronSpec: "0 9 * * *",

		DefaultLocale: string(core.DefaultLocale),
		Timezone:      "UTC",
	}
}

// Load resolves the configuration. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.PublicURL = getEnv("PUBLIC_URL", c.PublicURL)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.TrustedProxies = getEnvList("TRUSTED_PROXIES", c.TrustedProxies)
	c.RateLimit = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimit)
	c.ShutdownGrace = getEnvDuration("SHUTDOWN_GRACE", c.ShutdownGrace)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisChannel = getEnv("REDIS_CHANNEL", c.RedisChannel)

	c.GoogleOAuthClientID = getEnv("GOOGLE_OAUTH_CLIENT_ID", c.GoogleOAuthClientID)
	c.GoogleOAuthClientSecret = getEnv("GOOGLE_OAUTH_CLIENT_SECRET", c.GoogleOAuthClientSecret)
	c.GoogleOAuthRedirectURL = getEnv("GOOGLE_OAUTH_REDIRECT_URL", c.GoogleOAuthRedirectURL)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SecureCookies = getEnvBool("SECURE_COOKIES", c.SecureCookies)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", c.TelegramChatID)
	c.AlertCronSpec = getEnv("ALERT_CRON_SPEC", c.AlertCronSpec)
	c.AlertsInServer = getEnvBool("ALERTS_IN_SERVER", c.AlertsInServer)

	c.DefaultLocale = getEnv("DEFAULT_LOCALE", c.DefaultLocale)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
}

// OAuthConfigured reports whether Google sign-in can be offered.
func (c *Config) OAuthConfigured() bool {
	return c.GoogleOAuthClientID != "" && c.GoogleOAuthClientSecret != "" && c.GoogleOAuthRedirectURL != ""
}

// SheetsConfigured reports whether the spreadsheet mirror has credentials.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != "" && (c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != "")
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
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

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" && c.PostgresDSN == "" {
		errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
	}

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

	if c.RedisURL != "" {
		if parsedURL, err := url.Parse(c.RedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL '%s': %v", c.RedisURL, err))
		} else if parsedURL.Scheme != "redis" && parsedURL.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", parsedURL.Scheme))
		}
	}

	oauthFields := 0
	for _, v := range []string{c.GoogleOAuthClientID, c.GoogleOAuthClientSecret, c.GoogleOAuthRedirectURL} {
		if v != "" {
			oauthFields++
		}
	}
	if oauthFields > 0 && oauthFields < 3 {
		errors = append(errors, "GOOGLE_OAUTH_CLIENT_ID, GOOGLE_OAUTH_CLIENT_SECRET and GOOGLE_OAUTH_REDIRECT_URL must be set together")
	}
	if c.OAuthConfigured() && len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters when sign-in is enabled")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	for _, origin := range c.AllowedOrigins {
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid allowed origin '%s': must be scheme://host", origin))
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets mirror")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		errors = append(errors, "TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	if _, err := cron.ParseStandard(c.AlertCronSpec); err != nil {
		errors = append(errors, fmt.Sprintf("invalid alert cron spec '%s': %v", c.AlertCronSpec, err))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if !core.Locale(c.DefaultLocale).IsValid() {
		errors = append(errors, fmt.Sprintf("invalid default locale '%s': must be one of %v", c.DefaultLocale, core.Locales))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
