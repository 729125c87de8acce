package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "CI", "SECRETS_DIR",
		"SERVER_PORT", "SERVER_HOST",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "MEDIA_DIR", "MEDIA_BASE_URL", "S3_BUCKET_NAME",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRETS_DIR", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "foodshare", cfg.DBName)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, "./media", cfg.MediaDir)
	assert.Equal(t, "/media", cfg.MediaBaseURL)
	// Development falls back to a permissive secret.
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "hunter2", cfg.DBPassword)
	assert.Equal(t, "supersecret", cfg.JWTSecret)
	assert.Equal(t, "cache.internal", cfg.RedisHost)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadConfigInvalidRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigReadsDockerSecrets(t *testing.T) {
	clearEnv(t)

	secretsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "db_password"), []byte("fromsecret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, "jwt_secret"), []byte("jwtfromsecret"), 0o600))
	t.Setenv("SECRETS_DIR", secretsDir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "fromsecret", cfg.DBPassword)
	assert.Equal(t, "jwtfromsecret", cfg.JWTSecret)
}

func TestValidateConfigProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	cfg := &Config{DBHost: "db", DBName: "foodshare"}
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.DBPassword = "pw"
	cfg.JWTSecret = "secret"
	assert.NoError(t, ValidateConfig(cfg))
}

func TestGetEnvironment(t *testing.T) {
	clearEnv(t)

	assert.Equal(t, Development, GetEnvironment())
	assert.True(t, IsDevelopment())

	t.Setenv("ENV", "production")
	assert.Equal(t, Production, GetEnvironment())
	assert.True(t, IsProduction())

	t.Setenv("ENV", "test")
	assert.Equal(t, Test, GetEnvironment())

	t.Setenv("CI", "true")
	assert.Equal(t, CI, GetEnvironment())
}
