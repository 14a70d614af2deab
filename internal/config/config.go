package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port     string
	LivePort string

	// Database configuration
	DBType            string // sqlite, sqlite-nocgo, mysql, postgres, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Logging
	LogLevel string
	LogSQL   bool

	// Sessions and chat
	SessionCookie    string
	ChatHistoryLimit int

	// Media publishing, S3 is used only when MediaS3Bucket is set
	MediaS3Bucket      string
	MediaS3Region      string
	MediaS3Endpoint    string
	MediaPublicBaseURL string
}

// Load loads configuration from an optional env file and the environment
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		LivePort:           getEnv("LIVE_PORT", "3001"),
		DBType:             strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBHost:             getEnv("DB_HOST", ""),
		DBPort:             getEnv("DB_PORT", ""),
		DBDatabase:         getEnv("DB_DATABASE", "sitedb.sqlite3"),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:  getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogSQL:             getEnvAsBool("LOG_SQL", false),
		SessionCookie:      getEnv("SESSION_COOKIE", "areiqi_session"),
		ChatHistoryLimit:   getEnvAsInt("CHAT_HISTORY_LIMIT", 50),
		MediaS3Bucket:      getEnv("MEDIA_S3_BUCKET", ""),
		MediaS3Region:      getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3Endpoint:    getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaPublicBaseURL: getEnv("MEDIA_PUBLIC_BASE_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields for the configured database type
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.IsNetworkDB() {
		if cfg.DBHost == "" {
			return fmt.Errorf("DB_HOST is required for DB_TYPE %s", cfg.DBType)
		}
		if cfg.DBUser == "" {
			return fmt.Errorf("DB_USER is required for DB_TYPE %s", cfg.DBType)
		}
	}
	if cfg.ChatHistoryLimit <= 0 {
		return fmt.Errorf("CHAT_HISTORY_LIMIT must be positive")
	}
	return nil
}

// IsNetworkDB reports whether the database type needs a server connection
func (cfg *Config) IsNetworkDB() bool {
	switch cfg.DBType {
	case "sqlite", "sqlite3", "sqlite-nocgo":
		return false
	}
	return true
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
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

// getEnvAsBool gets an environment variable as a bool or returns a default value
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
