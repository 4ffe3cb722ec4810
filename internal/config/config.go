package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Persistence
	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	CatalogFile string

	// Redis, optional: distributed workflow locks
	RedisURL string

	// Engine
	FallbackRatio decimal.Decimal

	// Auth0
	Auth0Domain   string
	Auth0Audience string
	// AuthHeaderMode accepts X-User / X-User-Role headers when no bearer token is sent
	AuthHeaderMode bool

	// Server
	Port               string
	CORSOrigins        []string
	Env                string
	RateLimitPerMinute int
	RateLimitBurst     int

	// S3 Storage, optional: exported files
	S3 S3Config
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
	PresignExpiry   time.Duration
}

// Enabled reports whether exports should be uploaded
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	ratio, err := decimal.NewFromString(getEnv("ACTUAL_FALLBACK_RATIO", "0.9"))
	if err != nil {
		return nil, fmt.Errorf("ACTUAL_FALLBACK_RATIO: %w", err)
	}
	perMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 300)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("RATE_LIMIT_BURST", 30)
	if err != nil {
		return nil, err
	}
	expiry, err := time.ParseDuration(getEnv("S3_PRESIGN_EXPIRY", "15m"))
	if err != nil {
		return nil, fmt.Errorf("S3_PRESIGN_EXPIRY: %w", err)
	}

	cfg := &Config{
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "data/salesplan.db"),
		CatalogFile:        getEnv("CATALOG_FILE", "config/catalog.yaml"),
		RedisURL:           getEnv("REDIS_URL", ""),
		FallbackRatio:      ratio,
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AuthHeaderMode:     getEnv("AUTH_HEADER_MODE", "false") == "true",
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		RateLimitPerMinute: perMinute,
		RateLimitBurst:     burst,
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
			PresignExpiry:   expiry,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// JWTEnabled reports whether bearer tokens are validated against Auth0
func (c *Config) JWTEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != ""
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres (got %q)", c.StoreDriver)
	}
	if c.FallbackRatio.IsNegative() || c.FallbackRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("ACTUAL_FALLBACK_RATIO must be between 0 and 1")
	}
	if !c.JWTEnabled() && !c.AuthHeaderMode {
		return fmt.Errorf("AUTH0_DOMAIN and AUTH0_AUDIENCE are required unless AUTH_HEADER_MODE=true")
	}
	if c.AuthHeaderMode && c.IsProduction() {
		return fmt.Errorf("AUTH_HEADER_MODE cannot be used in production")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
