// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetRankingRateLimitPerMinute() int
}

// RedisConfig provides the shared Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// PipelineConfig provides the claim pipeline tuning knobs.
type PipelineConfig interface {
	GetMaxAttempts() int
	GetRetryBaseDelay() time.Duration
	GetRetryMaxDelay() time.Duration
	GetSnapshotTTL() time.Duration
	GetLeaseTTL() time.Duration
	GetLeaseWait() time.Duration
	GetNotFoundPolicy() string
	GetStageMaxRetry() int
	GetPaymentMaxRetry() int
	GetPaymentRetention() time.Duration
	GetStaleAfter() time.Duration
	GetStaleSweepInterval() time.Duration
}

// MinIOConfig provides settings for the dead-letter archive bucket.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketDeadLetters() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for dead-letter alert mail.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetDeadLetterAlertEmail() string
	IsDeadLetterAlertEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	CORSAllowAll              bool
	CORSOrigins               []string
	RankingRateLimitPerMinute int

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	MaxAttempts        int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	SnapshotTTL        time.Duration
	LeaseTTL           time.Duration
	LeaseWait          time.Duration
	NotFoundPolicy     string
	StageMaxRetry      int
	PaymentMaxRetry    int
	PaymentRetention   time.Duration
	StaleAfter         time.Duration
	StaleSweepInterval time.Duration

	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinioBucketDeadLetters string

	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	DeadLetterAlertEmail string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string               { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool             { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string          { return c.CORSOrigins }
func (c *Config) GetRankingRateLimitPerMinute() int { return c.RankingRateLimitPerMinute }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// PipelineConfig implementation
func (c *Config) GetMaxAttempts() int                  { return c.MaxAttempts }
func (c *Config) GetRetryBaseDelay() time.Duration     { return c.RetryBaseDelay }
func (c *Config) GetRetryMaxDelay() time.Duration      { return c.RetryMaxDelay }
func (c *Config) GetSnapshotTTL() time.Duration        { return c.SnapshotTTL }
func (c *Config) GetLeaseTTL() time.Duration           { return c.LeaseTTL }
func (c *Config) GetLeaseWait() time.Duration          { return c.LeaseWait }
func (c *Config) GetNotFoundPolicy() string            { return c.NotFoundPolicy }
func (c *Config) GetStageMaxRetry() int                { return c.StageMaxRetry }
func (c *Config) GetPaymentMaxRetry() int              { return c.PaymentMaxRetry }
func (c *Config) GetPaymentRetention() time.Duration   { return c.PaymentRetention }
func (c *Config) GetStaleAfter() time.Duration         { return c.StaleAfter }
func (c *Config) GetStaleSweepInterval() time.Duration { return c.StaleSweepInterval }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketDeadLetters() string { return c.MinioBucketDeadLetters }
func (c *Config) IsMinIOEnabled() bool              { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string             { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string         { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string         { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string        { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string     { return c.EmailFromAddress }
func (c *Config) GetDeadLetterAlertEmail() string { return c.DeadLetterAlertEmail }
func (c *Config) IsDeadLetterAlertEnabled() bool {
	return c.SMTPHost != "" && c.DeadLetterAlertEmail != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "*"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		RankingRateLimitPerMinute: mustInt(getEnv("RANKING_RATE_LIMIT_PER_MINUTE", "10")),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "claims"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		MaxAttempts:        mustInt(getEnv("PIPELINE_MAX_ATTEMPTS", "5")),
		RetryBaseDelay:     mustDuration(getEnv("PIPELINE_RETRY_BASE_DELAY", "2s")),
		RetryMaxDelay:      mustDuration(getEnv("PIPELINE_RETRY_MAX_DELAY", "5m")),
		SnapshotTTL:        mustDuration(getEnv("PIPELINE_SNAPSHOT_TTL", "72h")),
		LeaseTTL:           mustDuration(getEnv("PIPELINE_LEASE_TTL", "2m")),
		LeaseWait:          mustDuration(getEnv("PIPELINE_LEASE_WAIT", "5s")),
		NotFoundPolicy:     strings.ToLower(getEnv("PIPELINE_NOT_FOUND_POLICY", "retry")),
		StageMaxRetry:      mustInt(getEnv("PIPELINE_STAGE_MAX_RETRY", "3")),
		PaymentMaxRetry:    mustInt(getEnv("PIPELINE_PAYMENT_MAX_RETRY", "3")),
		PaymentRetention:   mustDuration(getEnv("PIPELINE_PAYMENT_RETENTION", "24h")),
		StaleAfter:         mustDuration(getEnv("PIPELINE_STALE_AFTER", "30m")),
		StaleSweepInterval: mustDuration(getEnv("PIPELINE_STALE_SWEEP_INTERVAL", "5m")),

		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketDeadLetters: getEnv("MINIO_BUCKET_DEAD_LETTERS", "claim-dead-letters"),

		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Claims Pipeline"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		DeadLetterAlertEmail: getEnv("DEAD_LETTER_ALERT_EMAIL", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1")
	}
	if c.NotFoundPolicy != "retry" && c.NotFoundPolicy != "fail" {
		return fmt.Errorf("PIPELINE_NOT_FOUND_POLICY must be retry or fail, got %q", c.NotFoundPolicy)
	}
	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("PIPELINE_SNAPSHOT_TTL must be a positive duration")
	}
	if c.LeaseTTL <= 0 {
		return fmt.Errorf("PIPELINE_LEASE_TTL must be a positive duration")
	}
	if c.IsDeadLetterAlertEnabled() && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when DEAD_LETTER_ALERT_EMAIL is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
