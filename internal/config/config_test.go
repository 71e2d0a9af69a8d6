package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", StorageMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Development())
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.False(t, cfg.IdempotencyEnabled())
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE", StoragePostgres)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "STORAGE=postgres\n" +
		"DATABASE_URL=postgres://localhost/ebase\n" +
		"APP_PORT=9090\n" +
		"CORS_ALLOWED_ORIGINS= http://a.local , ,http://b.local\n" +
		"IDEMPOTENCY_TTL=2h\n" +
		"EQUIPMENT_FIXTURE=cards.json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv does not override variables that are already set.
	for _, key := range []string{"STORAGE", "DATABASE_URL", "APP_PORT", "CORS_ALLOWED_ORIGINS", "IDEMPOTENCY_TTL", "EQUIPMENT_FIXTURE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres://localhost/ebase", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.True(t, cfg.IdempotencyEnabled())
	assert.Equal(t, "cards.json", cfg.EquipmentFixture)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("STORAGE", StorageMemory)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate_RejectsUnknownValues(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("LOG_LEVEL", "trace")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Storage (oneof)")
	assert.Contains(t, err.Error(), "LogLevel (oneof)")
}
