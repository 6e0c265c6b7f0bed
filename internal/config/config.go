package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Database   DatabaseConfig
	Gateway    GatewayConfig
	Settlement SettlementConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// GatewayConfig holds mobile-money gateway client configuration
type GatewayConfig struct {
	BaseURL               string
	Provider              string
	Username              string
	Password              string
	Timeout               time.Duration
	MaxAttempts           int
	BackoffBase           time.Duration
	BackoffCap            time.Duration
	TokenRefreshThreshold time.Duration
}

// SettlementConfig holds settlement monitor configuration
type SettlementConfig struct {
	MaxAttempts int
	SweepSpec   string // cron spec for the unsettled-transaction sweep
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "wallet"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Gateway: GatewayConfig{
			BaseURL:               getEnv("GATEWAY_BASE_URL", "https://api.gateway.example"),
			Provider:              getEnv("GATEWAY_PROVIDER", "CAMPAY"),
			Username:              getEnv("GATEWAY_USERNAME", ""),
			Password:              getEnv("GATEWAY_PASSWORD", ""),
			Timeout:               getEnvAsDuration("GATEWAY_TIMEOUT", "30s"),
			MaxAttempts:           getEnvAsInt("GATEWAY_MAX_ATTEMPTS", 3),
			BackoffBase:           getEnvAsDuration("GATEWAY_BACKOFF_BASE", "1s"),
			BackoffCap:            getEnvAsDuration("GATEWAY_BACKOFF_CAP", "10s"),
			TokenRefreshThreshold: getEnvAsDuration("GATEWAY_TOKEN_REFRESH_THRESHOLD", "5m"),
		},
		Settlement: SettlementConfig{
			MaxAttempts: getEnvAsInt("SETTLEMENT_MAX_ATTEMPTS", 10),
			SweepSpec:   getEnv("SETTLEMENT_SWEEP_SPEC", "@every 15m"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL cannot be empty")
	}
	if c.Gateway.MaxAttempts < 1 {
		return fmt.Errorf("gateway max attempts must be at least 1, got %d", c.Gateway.MaxAttempts)
	}
	if c.Gateway.BackoffCap < c.Gateway.BackoffBase {
		return fmt.Errorf("gateway backoff cap (%s) must be >= backoff base (%s)",
			c.Gateway.BackoffCap, c.Gateway.BackoffBase)
	}

	if c.Settlement.MaxAttempts < 1 {
		return fmt.Errorf("settlement max attempts must be at least 1, got %d", c.Settlement.MaxAttempts)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logger.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
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

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
