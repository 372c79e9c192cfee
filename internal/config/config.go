package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	// SQLite results store
	DatabaseFile  string
	MigrationsDir string

	// S3-compatible document storage
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// Rule catalog
	CatalogDir   string
	WatchCatalog bool

	// Upload limits
	MaxFileSize int64

	// Trend analytics cache
	TrendCacheTTL time.Duration
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DatabaseFile:      getEnv("DATABASE_FILE", "data/validations.db"),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", "internal/db/migrations"),
		S3Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:      getEnv("S3_BUCKET_NAME", "survey-documents"),
		S3UseSSL:          getEnv("S3_USE_SSL", "false") == "true",
		CatalogDir:        getEnv("CATALOG_DIR", ""),
		WatchCatalog:      getEnv("CATALOG_WATCH", "false") == "true",
		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),
		TrendCacheTTL:     getEnvDuration("TREND_CACHE_TTL", 5*time.Minute),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
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
