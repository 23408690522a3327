package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
	StorageS3    = "s3"
)

// Mail drivers accepted by MAIL_DRIVER.
const (
	MailConsole  = "console"
	MailSendGrid = "sendgrid"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int

	LoginMaxAttempts    int
	LoginLockDuration   time.Duration
	AuthRateLimitPerMin int

	StorageDriver  string
	UploadDir      string
	PublicBaseURL  string
	MaxUploadBytes int64

	GCSBucket          string
	GCSCredentialsFile string

	S3Bucket          string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string

	MailDriver      string
	SendGridAPIKey  string
	MailFromName    string
	MailFromAddress string

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "change-this-to-a-secure-random-string")

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "pretty"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "lms"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:        jwtSecret,
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", jwtSecret),
		AccessTokenTTL:   time.Duration(getEnvInt("ACCESS_TOKEN_TTL_SECONDS", 3600)) * time.Second,
		RefreshTokenTTL:  time.Duration(getEnvInt("REFRESH_TOKEN_TTL_SECONDS", 86400)) * time.Second,
		BcryptCost:       getEnvInt("BCRYPT_COST", 10),

		LoginMaxAttempts:    getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockDuration:   time.Duration(getEnvInt("LOGIN_LOCK_MINUTES", 15)) * time.Minute,
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 30),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 25)) * 1024 * 1024,

		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicURL:       strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),

		MailDriver:      strings.ToLower(getEnv("MAIL_DRIVER", MailConsole)),
		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Classroom"),
		MailFromAddress: getEnv("MAIL_FROM_ADDRESS", "no-reply@classroom.local"),

		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
