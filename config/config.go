package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	Env             string // development or production
	MongoURI        string
	DBName          string
	JWTSecret       string
	JWTExpiresIn    time.Duration
	JWTCookieExpiry time.Duration
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	EmailFrom       string
	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	MaxUploadMB     int64
	RateLimit       int
	RateLimitWindow time.Duration
}

func Load() (*Config, error) {
	jwtExpires, err := time.ParseDuration(getEnv("JWT_EXPIRES_IN", "2160h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	cookieDays, err := strconv.Atoi(getEnv("JWT_COOKIE_EXPIRES_IN", "90"))
	if err != nil {
		return nil, fmt.Errorf("JWT_COOKIE_EXPIRES_IN: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("SMTP_PORT: %w", err)
	}
	maxMB := int64(10)
	if v := getEnv("MAX_UPLOAD_MB", "10"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	rateWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1h"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}

	return &Config{
		Port:            getEnv("PORT", "3000"),
		Env:             getEnv("APP_ENV", "development"),
		MongoURI:        getEnv("DATABASE_LOCAL", "mongodb://localhost:27017"),
		DBName:          getEnv("DATABASE_NAME", "tours"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTExpiresIn:    jwtExpires,
		JWTCookieExpiry: time.Duration(cookieDays) * 24 * time.Hour,
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        smtpPort,
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		EmailFrom:       getEnv("EMAIL_FROM", "Trail Tours <hello@trailtours.io>"),
		S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MaxUploadMB:     maxMB,
		RateLimit:       rateLimit,
		RateLimitWindow: rateWindow,
	}, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RequiredEnvVars are checked at startup; the app refuses to start if any are unset.
var RequiredEnvVars = []string{
	"DATABASE_LOCAL",
	"JWT_SECRET",
}

// Validate checks required env vars and rejects weak JWT secrets.
func (c *Config) Validate() error {
	var missing []string
	for _, key := range RequiredEnvVars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s (set these in config.env or the environment)", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}
