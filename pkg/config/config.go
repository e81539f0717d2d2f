package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// SSOT: every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Stooq data source
	Stooq StooqConfig

	// ETL pipeline behaviour
	ETL ETLConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StooqConfig holds stooq.com data source configuration.
type StooqConfig struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	RequestDelay time.Duration // pacing between symbol downloads
}

// ETLConfig holds pipeline thresholds and defaults.
//
// StaleAfterDays (instrument staleness) and BackfillAfterDays (how far in
// the past a scheduled date must be before the run flips to backfill) both
// default to 7 but are deliberately independent settings.
type ETLConfig struct {
	DefaultSchema     string
	StaleAfterDays    int
	BackfillAfterDays int
	MinHistoryRecords int
	CalendarFromYear  int
	CalendarToYear    int
}

// Load reads configuration from environment variables.
// SSOT: this is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8085"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "gpw_data"),
			User:            getEnv("DB_USER", "gpw_etl"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Stooq
		Stooq: StooqConfig{
			BaseURL:      getEnv("STOOQ_BASE_URL", "https://stooq.com/q/d/l/"),
			UserAgent:    getEnv("STOOQ_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
			Timeout:      getEnvAsDuration("STOOQ_TIMEOUT", "30s"),
			RequestDelay: getEnvAsDuration("STOOQ_REQUEST_DELAY", "2s"),
		},

		// ETL
		ETL: ETLConfig{
			DefaultSchema:     getEnv("ETL_TARGET_SCHEMA", "prod_stock_data"),
			StaleAfterDays:    getEnvAsInt("ETL_STALE_AFTER_DAYS", 7),
			BackfillAfterDays: getEnvAsInt("ETL_BACKFILL_AFTER_DAYS", 7),
			MinHistoryRecords: getEnvAsInt("ETL_MIN_HISTORY_RECORDS", 30),
			CalendarFromYear:  getEnvAsInt("ETL_CALENDAR_FROM_YEAR", 1990),
			CalendarToYear:    getEnvAsInt("ETL_CALENDAR_TO_YEAR", 2030),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.ETL.StaleAfterDays <= 0 {
		return fmt.Errorf("ETL_STALE_AFTER_DAYS must be positive")
	}
	if c.ETL.BackfillAfterDays <= 0 {
		return fmt.Errorf("ETL_BACKFILL_AFTER_DAYS must be positive")
	}
	if c.ETL.CalendarFromYear >= c.ETL.CalendarToYear {
		return fmt.Errorf("ETL_CALENDAR_FROM_YEAR must be before ETL_CALENDAR_TO_YEAR")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
