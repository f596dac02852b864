package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	JWT       JWTConfig
	Store     StoreConfig
	Mongo     MongoConfig
	NATS      NATSConfig
	S3        S3Config
	Reports   ReportsConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host string
	Port string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Backend string // "mongo" or "memory"
}

// MongoConfig holds MongoDB connection details
type MongoConfig struct {
	URI        string
	Host       string
	Port       string
	Database   string
	Username   string
	Password   string
	AuthSource string
}

// NATSConfig holds the worker dispatch connection details
type NATSConfig struct {
	URL     string
	Subject string
}

// S3Config holds object storage connection details
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for S3-compatible services like MinIO
}

// ReportsConfig holds report queue behavior settings
type ReportsConfig struct {
	DefaultMaxRetries int
}

// ReconcileConfig holds the dispatch reconciliation sweep settings
type ReconcileConfig struct {
	Schedule     string        // cron spec with seconds
	StalledAfter time.Duration // queued entries older than this get re-dispatched
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Store: StoreConfig{
			Backend: getEnv("STORE_BACKEND", "mongo"),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Host:       getEnv("MONGODB_HOST", "localhost"),
			Port:       getEnv("MONGODB_PORT", "27017"),
			Database:   getEnv("MONGODB_DATABASE", "siteqa"),
			Username:   getEnv("MONGODB_USERNAME", ""),
			Password:   getEnv("MONGODB_PASSWORD", ""),
			AuthSource: getEnv("MONGODB_AUTH_SOURCE", "admin"),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			Subject: getEnv("NATS_REPORT_SUBJECT", "reports.generate"),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Optional for MinIO/custom S3
		},
		Reports: ReportsConfig{
			DefaultMaxRetries: getEnvInt("REPORT_MAX_RETRIES", 3),
		},
		Reconcile: ReconcileConfig{
			Schedule:     getEnv("RECONCILE_SCHEDULE", "0 */2 * * * *"),
			StalledAfter: getEnvDuration("RECONCILE_STALLED_AFTER", 5*time.Minute),
		},
	}

	if cfg.Store.Backend != "mongo" && cfg.Store.Backend != "memory" {
		return nil, fmt.Errorf("STORE_BACKEND must be 'mongo' or 'memory', got %q", cfg.Store.Backend)
	}
	if cfg.Reports.DefaultMaxRetries < 0 {
		return nil, fmt.Errorf("REPORT_MAX_RETRIES must not be negative")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
