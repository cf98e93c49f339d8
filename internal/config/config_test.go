package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	origEndpoint := os.Getenv("S3_ENDPOINT")
	defer os.Setenv("S3_ENDPOINT", origEndpoint)

	os.Setenv("S3_ENDPOINT", "minio:9000")
	os.Setenv("S3_USE_SSL", "true")
	os.Setenv("PRESIGN_MAX_EXPIRY_SEC", "86400")

	cfg := Load()

	assert.Equal(t, "minio:9000", cfg.S3.Endpoint)
	assert.True(t, cfg.S3.UseSSL)
	assert.Equal(t, int64(86400), cfg.Presign.MaxExpirySec)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("PRESIGN_MAX_EXPIRY_SEC")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(7*24*3600), cfg.Presign.MaxExpirySec)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, int64(123), getEnvInt64(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, int64(10), getEnvInt64(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, int64(10), getEnvInt64(key, 10))
}
