// Package config loads server configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the server configuration.
type Config struct {
	Env      string `validate:"required,oneof=development production test"`
	LogLevel string `validate:"required,oneof=debug info warn error"`

	HTTPAddr        string        `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	Storage     string `validate:"required,oneof=memory postgres"`
	DatabaseURL string `validate:"required_if=Storage postgres"`
	DBMaxConns  int    `validate:"gte=0"`
	AutoMigrate bool

	// EquipmentFixture is a JSON file of equipment cards loaded by the memory backend.
	EquipmentFixture string

	TemplatesDir string `validate:"required"`
	DocsRoot     string `validate:"required"`

	AllowedOrigins []string
	IdempotencyTTL time.Duration `validate:"gte=0"`
	CleanupPeriod  time.Duration `validate:"gt=0"`
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// IdempotencyEnabled reports whether mutating requests are deduplicated.
// It requires the postgres backend.
func (c *Config) IdempotencyEnabled() bool {
	return c.Storage == StoragePostgres && c.IdempotencyTTL > 0
}

// Load reads the .env file (if present) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         ":" + getEnv("APP_PORT", "8080"),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Storage:          getEnv("STORAGE", StoragePostgres),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       getEnvInt("DB_MAX_CONNS", 10),
		AutoMigrate:      getEnvBool("DB_AUTO_MIGRATE", true),
		EquipmentFixture: os.Getenv("EQUIPMENT_FIXTURE"),
		TemplatesDir:     getEnv("TEMPLATES_DIR", "templates"),
		DocsRoot:         getEnv("DOCS_ROOT", "docs"),
		AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),
		IdempotencyTTL:   getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		CleanupPeriod:    getEnvDuration("CLEANUP_PERIOD", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
