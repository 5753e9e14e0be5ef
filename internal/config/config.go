// Package config provides application configuration management.
// It loads settings from environment variables (with optional .env file)
// and validates that the LINE channel credentials are present at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LINE API constraints.
// References: https://developers.line.biz/en/reference/messaging-api/
const (
	LINEMaxMessagesPerReply   = 5
	LINEMaxPostbackDataLength = 300
	LINEMaxQuickReplyLabel    = 20
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Data directory for the SQLite record database

	// Dialogue Configuration
	StateTTL       time.Duration // How long a pending dialogue survives without input
	WebhookTimeout time.Duration // Per-event processing timeout

	// Feature Configuration
	VoiceLiffURL string // LIFF deep link replied to the voice-to-text trigger
	ProbeUserID  string // Optional user ID for the startup push probe

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)

	// Sentry (Better Stack Errors) Configuration
	SentryToken       string
	SentryHost        string
	SentryEnvironment string

	// Object storage for report chart images (any S3-compatible store;
	// Cloudflare R2 in production). All four R2_* values plus the public
	// base URL must be set for reports to work; otherwise report requests
	// reply with an error text.
	R2Endpoint      string
	R2AccessKeyID   string
	R2SecretKey     string
	R2Bucket        string
	R2PublicBaseURL string

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	MaxMessagesPerReply int // Maximum messages per reply (LINE API limit: 5)
	MaxEventsPerWebhook int // Maximum events per webhook delivery (default: 100)
	MinReplyTokenLength int // Minimum reply token length (default: 10)
	MaxPostbackDataSize int // Maximum postback data size (LINE API limit: 300)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),

		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataDir: getEnv("DATA_DIR", getDefaultDataDir()),

		StateTTL:       getDurationEnv("STATE_TTL", 30*time.Minute),
		WebhookTimeout: getDurationEnv("WEBHOOK_TIMEOUT", 30*time.Second),

		VoiceLiffURL: getEnv("VOICE_LIFF_URL", "https://liff.line.me/2007818922-W21zlONn"),
		ProbeUserID:  getEnv("PROBE_USER_ID", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		SentryToken:       getEnv("SENTRY_TOKEN", ""),
		SentryHost:        getEnv("SENTRY_HOST", "errors.betterstack.com"),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),

		R2Endpoint:      getEnv("R2_ENDPOINT", ""),
		R2AccessKeyID:   getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretKey:     getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:        getEnv("R2_BUCKET", ""),
		R2PublicBaseURL: getEnv("R2_PUBLIC_BASE_URL", ""),

		Bot: BotConfig{
			MaxMessagesPerReply: LINEMaxMessagesPerReply,
			MaxEventsPerWebhook: getIntEnv("MAX_EVENTS_PER_WEBHOOK", 100),
			MinReplyTokenLength: getIntEnv("MIN_REPLY_TOKEN_LENGTH", 10),
			MaxPostbackDataSize: LINEMaxPostbackDataLength,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_ACCESS_TOKEN is required"))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, errors.New("LINE_CHANNEL_SECRET is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.StateTTL <= 0 {
		errs = append(errs, fmt.Errorf("STATE_TTL must be positive, got %v", c.StateTTL))
	}
	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %v", c.WebhookTimeout))
	}
	if c.Bot.MaxEventsPerWebhook <= 0 {
		errs = append(errs, fmt.Errorf("MAX_EVENTS_PER_WEBHOOK must be positive, got %d", c.Bot.MaxEventsPerWebhook))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// UploadsConfigured reports whether the object storage for report charts is
// fully configured.
func (c *Config) UploadsConfigured() bool {
	return c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretKey != "" &&
		c.R2Bucket != "" && c.R2PublicBaseURL != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "records.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
