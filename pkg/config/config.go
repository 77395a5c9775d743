package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: persistence is off when URL is empty)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Quandl QuandlConfig

	// Scheduler
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// QuandlConfig holds the dataset API settings and request defaults
type QuandlConfig struct {
	APIKey    string
	BaseURL   string
	Database  string // e.g. FSE
	Ticker    string // e.g. AFX_X
	Order     string // asc, desc
	Format    string // json, csv
	Timeout   time.Duration
	RateLimit int // requests per second
}

// ScheduleConfig holds the periodic refresh settings
type ScheduleConfig struct {
	Cron         string // six-field cron (with seconds)
	LookbackDays int
	Watchlist    string // optional YAML file listing datasets to refresh
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "1h"),
		},

		// External APIs
		Quandl: QuandlConfig{
			APIKey:    getEnv("QUANDL_API_KEY", ""),
			BaseURL:   getEnv("QUANDL_BASE_URL", "https://www.quandl.com/api/v3"),
			Database:  getEnv("QUANDL_DATABASE", "FSE"),
			Ticker:    getEnv("QUANDL_TICKER", "AFX_X"),
			Order:     getEnv("QUANDL_ORDER", "asc"),
			Format:    getEnv("QUANDL_FORMAT", "json"),
			Timeout:   getEnvAsDuration("QUANDL_TIMEOUT", "30s"),
			RateLimit: getEnvAsInt("QUANDL_RATE_LIMIT", 5),
		},

		Schedule: ScheduleConfig{
			Cron:         getEnv("SCHEDULE_CRON", "0 0 18 * * 1-5"),
			LookbackDays: getEnvAsInt("SCHEDULE_LOOKBACK_DAYS", 365),
			Watchlist:    getEnv("SCHEDULE_WATCHLIST", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
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
	if c.Quandl.APIKey == "" {
		return fmt.Errorf("QUANDL_API_KEY is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Quandl.Format != "json" && c.Quandl.Format != "csv" {
		return fmt.Errorf("QUANDL_FORMAT must be one of: json, csv")
	}

	if c.Quandl.Order != "asc" && c.Quandl.Order != "desc" {
		return fmt.Errorf("QUANDL_ORDER must be one of: asc, desc")
	}

	if c.Quandl.RateLimit <= 0 {
		return fmt.Errorf("QUANDL_RATE_LIMIT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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
