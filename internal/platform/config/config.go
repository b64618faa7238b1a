package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates everything the server reads from the environment so main
// stays lean.
type Config struct {
	Addr        string
	Environment string

	// AllowedOrigins is the strict CORS allowlist. Wildcards are never honored.
	AllowedOrigins []string
	FrontendURL    string

	CompanyEmail string

	DatabaseURL string
	Redis       RedisConfig
	S3          S3Config
	SMTP        SMTPConfig
	Kafka       KafkaConfig

	AdminJWTSecret string
	TinifyAPIKey   string
	AuditLogPath   string
}

// RedisConfig mirrors the platform redis client options.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// S3Config configures the registration file object store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for S3-compatible storage
	AccessKey string
	SecretKey string
}

// SMTPConfig configures outbound registration email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// KafkaConfig configures the optional audit event mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Production reports whether the server runs with production hardening (HSTS,
// generic logging).
func (c Config) Production() bool {
	return c.Environment == "production"
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	origins := splitTrim(getenv("ALLOWED_ORIGINS", ""))
	if len(origins) == 0 {
		origins = []string{
			"https://www.novasolidumfinance.com.br",
			"https://novasolidumfinance.com.br",
		}
	}

	return Config{
		Addr:           getenv("ADDR", ":3000"),
		Environment:    getenv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		FrontendURL:    getenv("FRONTEND_URL", "https://www.novasolidumfinance.com.br"),
		CompanyEmail:   getenv("COMPANY_EMAIL", "novasolidum@gmail.com"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     getenvInt("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			From:     os.Getenv("EMAIL_USER"),
			FromName: getenv("EMAIL_FROM_NAME", "Nova Solidum Finances"),
		},
		Kafka: KafkaConfig{
			Brokers: splitTrim(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_AUDIT_TOPIC", "registration-audit"),
		},
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		TinifyAPIKey:   os.Getenv("TINIFY_API_KEY"),
		AuditLogPath:   getenv("AUDIT_LOG_PATH", "data/registrations.jsonl"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && p != "*" {
			out = append(out, p)
		}
	}
	return out
}
