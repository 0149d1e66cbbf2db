package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	API        APIConfig
	Worker     WorkerConfig
	Delivery   DeliveryConfig
	Retry      RetryConfig
	Auth       AuthConfig
	Logging    LoggingConfig
	Engagement EngagementConfig
}

// DatabaseConfig holds database connection and pool settings.
// Zero pool values fall back to the database package defaults.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// APIConfig holds API server settings
type APIConfig struct {
	Port string
	Host string
}

// WorkerConfig holds worker settings
type WorkerConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// DeliveryConfig holds settings for the provider that sends scheduled actions
type DeliveryConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// RetryConfig holds retry logic settings
type RetryConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	Enabled      bool
	SharedSecret string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string
	Format string
}

// EngagementConfig holds settings for classification, scoring and automation
type EngagementConfig struct {
	ScoringModelPath string // optional; heuristic scoring when empty
	FollowUpAfter    time.Duration
	DefaultLanguage  string
	CustomRulesFile  string // optional JSON array of automation rules
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5433"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lead_engage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "0"), 0),
			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "0"), 0),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "0s"), 0),
		},
		API: APIConfig{
			Port: getEnv("API_PORT", "8080"),
			Host: getEnv("API_HOST", "0.0.0.0"),
		},
		Worker: WorkerConfig{
			PollInterval: parseDuration(getEnv("WORKER_POLL_INTERVAL", "5s"), 5*time.Second),
			Concurrency:  parseInt(getEnv("WORKER_CONCURRENCY", "5"), 5),
		},
		Delivery: DeliveryConfig{
			URL:     getEnv("DELIVERY_API_URL", ""),
			Token:   getEnv("DELIVERY_API_TOKEN", ""),
			Timeout: parseDuration(getEnv("DELIVERY_API_TIMEOUT", "30s"), 30*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts: parseInt(getEnv("MAX_RETRY_ATTEMPTS", "5"), 5),
			BackoffBase: parseDuration(getEnv("RETRY_BACKOFF_BASE", "30s"), 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled:      parseBool(getEnv("ENABLE_AUTH", "false")),
			SharedSecret: getEnv("SHARED_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Engagement: EngagementConfig{
			ScoringModelPath: getEnv("SCORING_MODEL_PATH", ""),
			FollowUpAfter:    parseDuration(getEnv("FOLLOW_UP_AFTER", "24h"), 24*time.Hour),
			DefaultLanguage:  getEnv("DEFAULT_LANGUAGE", "en"),
			CustomRulesFile:  getEnv("CUSTOM_RULES_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks settings every process needs
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.SharedSecret == "" {
		return fmt.Errorf("SHARED_SECRET is required when ENABLE_AUTH is true")
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must not be negative")
	}
	if c.Engagement.FollowUpAfter <= 0 {
		return fmt.Errorf("FOLLOW_UP_AFTER must be positive")
	}
	if c.Engagement.ScoringModelPath != "" {
		if _, err := os.Stat(c.Engagement.ScoringModelPath); err != nil {
			return fmt.Errorf("SCORING_MODEL_PATH is not readable: %w", err)
		}
	}
	return nil
}

// ValidateWorker checks the extra settings the delivery worker needs
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Delivery.URL == "" {
		return fmt.Errorf("DELIVERY_API_URL is required")
	}
	if c.Delivery.Token == "" {
		return fmt.Errorf("DELIVERY_API_TOKEN is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("MAX_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(value string, defaultValue int) int {
	var result int
	_, err := fmt.Sscanf(value, "%d", &result)
	if err != nil {
		return defaultValue
	}
	return result
}

func parseBool(value string) bool {
	return value == "true" || value == "1" || value == "yes"
}
