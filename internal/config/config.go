// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all process-wide settings. It is built once at startup and
// never mutated afterwards.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	Database DatabaseConfig
	Storage  StorageConfig
	AI       AIConfig
	Redis    RedisConfig
	Tracing  TracingConfig

	JWTSecret         string
	ModerationEnabled bool
}

// DatabaseConfig selects and addresses the SQL store
type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite"
	URL    string
}

// StorageConfig selects the media backend
type StorageConfig struct {
	Backend string

	// Local backend
	UploadDir       string
	UploadURLPrefix string

	// Object-store backend
	Endpoint  string
	Port      int
	UseSSL    bool
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// AIConfig addresses the OpenAI-compatible model endpoint
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// RedisConfig is optional; an empty Host disables the analysis cache
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SamplingRate float64
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment, applying defaults.
func FromEnv() *Config {
	return &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "postgres")),
			URL:    databaseURL(),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageLocal)),
			UploadDir:       getEnvOrDefault("UPLOAD_DIR", "public/uploads"),
			UploadURLPrefix: getEnvOrDefault("UPLOAD_URL_PREFIX", "/uploads"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			Port:            getEnvInt("S3_PORT", 9000),
			UseSSL:          getEnvBool("S3_USE_SSL", false),
			AccessKey:       os.Getenv("S3_ACCESS_KEY"),
			SecretKey:       os.Getenv("S3_SECRET_KEY"),
			Bucket:          getEnvOrDefault("S3_BUCKET", "snapshare"),
			Region:          getEnvOrDefault("S3_REGION", "us-east-1"),
		},
		AI: AIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.moonshot.cn/v1"),
			Model:   getEnvOrDefault("OPENAI_MODEL", "moonshot-v1-8k"),
			Timeout: getEnvDuration("AI_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TELEMETRY_ENABLED", false),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SamplingRate: getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ModerationEnabled: getEnvBool("MODERATION_ENABLED", false),
	}
}

// Validate fails fast on settings the server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR must not be empty for the local storage backend")
		}
	case StorageS3:
		var missing []string
		if c.Storage.Endpoint == "" {
			missing = append(missing, "S3_ENDPOINT")
		}
		if c.Storage.AccessKey == "" {
			missing = append(missing, "S3_ACCESS_KEY")
		}
		if c.Storage.SecretKey == "" {
			missing = append(missing, "S3_SECRET_KEY")
		}
		if c.Storage.Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("object-store backend requires %s", strings.Join(missing, ", "))
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (want local or s3)", c.Storage.Backend)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	return nil
}

// IsDevelopment reports whether verbose diagnostics should be enabled
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// databaseURL prefers DATABASE_URL and falls back to individual components
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if strings.ToLower(os.Getenv("DATABASE_DRIVER")) == "sqlite" {
		return getEnvOrDefault("DB_NAME", "snapshare.db")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "postgres"),
		getEnvOrDefault("DB_PASSWORD", ""),
		getEnvOrDefault("DB_NAME", "snapshare"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
