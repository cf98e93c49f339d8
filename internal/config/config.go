package config

import (
	"os"
	"strconv"
)

// S3Config holds object storage settings for any S3-compatible backend
// (MinIO, AWS S3, etc.).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// PresignConfig holds presigned-URL settings. MaxExpirySec caps the
// normalized expiry accepted for signing; the one-hour default for an
// absent expiry is a literal applied by the service layer, not config.
type PresignConfig struct {
	MaxExpirySec int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost string
	Port    string
	S3      S3Config
	Presign PresignConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", ""),
			UseSSL:    getEnvBool("S3_USE_SSL", false),
		},
		Presign: PresignConfig{
			// 7 days, the S3 V4 signature ceiling.
			MaxExpirySec: getEnvInt64("PRESIGN_MAX_EXPIRY_SEC", 7*24*3600),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
