package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"
)

type Config struct {
	// Database
	StorageDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string

	// Application
	AppEnv      string
	MetricsPort string
	LogLevel    string

	// Sessions
	SessionIdleTimeoutMinutes   int
	SessionSweepIntervalSeconds int
	HistoryDepth                int
	UndoWindowSeconds           int

	// Rate Limiting
	MaxSwipesPerWindow int
	SwipeWindowMinutes int

	// Match events
	AMQPURL       string
	MatchExchange string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		StorageDriver: getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "matchengine"),
		DBPassword:    getEnv("DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", "match_engine"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "match_engine.db"),

		AppEnv:      getEnv("APP_ENV", "development"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SessionIdleTimeoutMinutes:   getEnvInt("SESSION_IDLE_TIMEOUT_MINUTES", 30),
		SessionSweepIntervalSeconds: getEnvInt("SESSION_SWEEP_INTERVAL_SECONDS", 60),
		HistoryDepth:                getEnvInt("HISTORY_DEPTH", 50),
		UndoWindowSeconds:           getEnvInt("UNDO_WINDOW_SECONDS", 30),

		MaxSwipesPerWindow: getEnvInt("MAX_SWIPES_PER_WINDOW", 100),
		SwipeWindowMinutes: getEnvInt("SWIPE_WINDOW_MINUTES", 60),

		AMQPURL:       getEnv("AMQP_URL", ""),
		MatchExchange: getEnv("MATCH_EXCHANGE", "match_events"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of %q, %q or %q", StorageDriverPostgres, StorageDriverSQLite, StorageDriverMemory)
	}
	if c.SessionIdleTimeoutMinutes <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT_MINUTES must be positive")
	}
	if c.SessionSweepIntervalSeconds <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL_SECONDS must be positive")
	}
	if c.HistoryDepth <= 0 {
		return fmt.Errorf("HISTORY_DEPTH must be positive")
	}
	if c.UndoWindowSeconds < 0 {
		return fmt.Errorf("UNDO_WINDOW_SECONDS cannot be negative")
	}
	if c.MaxSwipesPerWindow < 0 {
		return fmt.Errorf("MAX_SWIPES_PER_WINDOW cannot be negative")
	}
	if c.MaxSwipesPerWindow > 0 && c.SwipeWindowMinutes <= 0 {
		return fmt.Errorf("SWIPE_WINDOW_MINUTES must be positive when swipes are limited")
	}
	if c.AMQPURL != "" && c.MatchExchange == "" {
		return fmt.Errorf("MATCH_EXCHANGE is required when AMQP_URL is set")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.StorageDriver != StorageDriverPostgres {
		return fmt.Errorf("STORAGE_DRIVER must be %q in production", StorageDriverPostgres)
	}
	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.DBPassword == "change_me" {
		return fmt.Errorf("DB_PASSWORD must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetSessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutMinutes) * time.Minute
}

func (c *Config) GetSessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalSeconds) * time.Second
}

func (c *Config) GetSwipeWindow() time.Duration {
	return time.Duration(c.SwipeWindowMinutes) * time.Minute
}

func (c *Config) GetUndoWindow() time.Duration {
	return time.Duration(c.UndoWindowSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
