package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramToken    string
	DatabaseURL      string
	SQLitePath       string
	LogLevel         string
	Port             string
	AppEnv           string
	AdminIDs         []int64
	AnalyticsEnabled bool
}

// Load loads configuration from environment variables. All validation
// problems are collected so a broken deployment reports everything at once.
func Load() (*Config, error) {
	// Missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnvOrDefault("SQLITE_PATH", "tastings.db"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		Port:             getEnvOrDefault("PORT", "8080"),
		AppEnv:           getEnvOrDefault("APP_ENV", "production"),
		AnalyticsEnabled: true,
	}

	var errs *multierror.Error

	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		errs = multierror.Append(errs, fmt.Errorf("TELEGRAM_TOKEN environment variable is required"))
	}

	if raw := os.Getenv("ADMIN_IDS"); raw != "" {
		ids, err := parseAdminIDs(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("invalid ADMIN_IDS: %w", err))
		}
		cfg.AdminIDs = ids
	}

	if raw := os.Getenv("ANALYTICS_ENABLED"); raw != "" {
		cfg.AnalyticsEnabled = isTruthy(raw)
	}

	return cfg, errs.ErrorOrNil()
}

// IsAdmin reports whether the given Telegram user id is on the diagnostics
// allow-list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// UseSQLite reports whether the sqlite fallback is in effect (no
// DATABASE_URL configured).
func (c *Config) UseSQLite() bool {
	return c.DatabaseURL == ""
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a numeric user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
