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
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSweepInterval() time.Duration
}

// ModelConfig provides settings for the language-model service.
type ModelConfig interface {
	GetModelAPIKey() string
	GetModelBaseURL() string
	GetModelName() string
}

// EmailConfig provides settings for outbound SMTP email.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// MessagingConfig provides settings for the chat and voice providers.
type MessagingConfig interface {
	GetChatAPIURL() string
	GetChatAPIKey() string
	GetVoiceAPIURL() string
	GetVoiceAPIKey() string
}

// WebhookConfig provides settings for inbound reply webhooks.
type WebhookConfig interface {
	GetWebhookAPIKey() string
	GetSubjectTagPrefix() string
}

// PipelineConfig provides the engagement pipeline policy knobs.
type PipelineConfig interface {
	GetQualifyThreshold() float64
	GetAutoApproveThreshold() float64
	GetMaxFollowUpAttempts() int
	GetMaxObjectionCycles() int
	GetReplyTimeout() time.Duration
	GetSubjectTagPrefix() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	SweepInterval    time.Duration

	CORSAllowAll   bool
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	ModelAPIKey  string
	ModelBaseURL string
	ModelName    string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	ChatAPIURL  string
	ChatAPIKey  string
	VoiceAPIURL string
	VoiceAPIKey string

	WebhookAPIKey    string
	SubjectTagPrefix string

	QualifyThreshold     float64
	AutoApproveThreshold float64
	MaxFollowUpAttempts  int
	MaxObjectionCycles   int
	ReplyTimeout         time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string              { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool        { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string        { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int         { return c.AsynqConcurrency }
func (c *Config) GetSweepInterval() time.Duration  { return c.SweepInterval }

// ModelConfig implementation
func (c *Config) GetModelAPIKey() string  { return c.ModelAPIKey }
func (c *Config) GetModelBaseURL() string { return c.ModelBaseURL }
func (c *Config) GetModelName() string    { return c.ModelName }

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.EmailEnabled && c.SMTPHost != "" }

// MessagingConfig implementation
func (c *Config) GetChatAPIURL() string  { return c.ChatAPIURL }
func (c *Config) GetChatAPIKey() string  { return c.ChatAPIKey }
func (c *Config) GetVoiceAPIURL() string { return c.VoiceAPIURL }
func (c *Config) GetVoiceAPIKey() string { return c.VoiceAPIKey }

// WebhookConfig implementation
func (c *Config) GetWebhookAPIKey() string    { return c.WebhookAPIKey }
func (c *Config) GetSubjectTagPrefix() string { return c.SubjectTagPrefix }

// PipelineConfig implementation
func (c *Config) GetQualifyThreshold() float64     { return c.QualifyThreshold }
func (c *Config) GetAutoApproveThreshold() float64 { return c.AutoApproveThreshold }
func (c *Config) GetMaxFollowUpAttempts() int      { return c.MaxFollowUpAttempts }
func (c *Config) GetMaxObjectionCycles() int       { return c.MaxObjectionCycles }
func (c *Config) GetReplyTimeout() time.Duration   { return c.ReplyTimeout }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "engagement"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SweepInterval:    mustDuration(getEnv("SWEEP_INTERVAL", "5m")),

		CORSAllowAll:   strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		RateLimitRPS:   mustFloat(getEnv("RATE_LIMIT_RPS", "10")),
		RateLimitBurst: mustInt(getEnv("RATE_LIMIT_BURST", "20")),

		ModelAPIKey:  getEnv("MOONSHOT_API_KEY", ""),
		ModelBaseURL: getEnv("MOONSHOT_BASE_URL", ""),
		ModelName:    getEnv("MOONSHOT_MODEL", ""),

		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "PermitFlow"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		ChatAPIURL:  getEnv("CHAT_API_URL", ""),
		ChatAPIKey:  getEnv("CHAT_API_KEY", ""),
		VoiceAPIURL: getEnv("VOICE_API_URL", ""),
		VoiceAPIKey: getEnv("VOICE_API_KEY", ""),

		WebhookAPIKey:    getEnv("WEBHOOK_API_KEY", ""),
		SubjectTagPrefix: getEnv("SUBJECT_TAG_PREFIX", "PF"),

		QualifyThreshold:     mustFloat(getEnv("QUALIFY_THRESHOLD", "0.5")),
		AutoApproveThreshold: mustFloat(getEnv("AUTO_APPROVE_THRESHOLD", "0.6")),
		MaxFollowUpAttempts:  mustInt(getEnv("MAX_FOLLOWUP_ATTEMPTS", "2")),
		MaxObjectionCycles:   mustInt(getEnv("MAX_OBJECTION_CYCLES", "3")),
		ReplyTimeout:         mustDuration(getEnv("REPLY_TIMEOUT", "72h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EmailEnabled && cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP is configured")
	}
	if cfg.QualifyThreshold > cfg.AutoApproveThreshold {
		return nil, fmt.Errorf("QUALIFY_THRESHOLD cannot exceed AUTO_APPROVE_THRESHOLD")
	}
	if cfg.MaxFollowUpAttempts < 0 || cfg.MaxObjectionCycles < 0 {
		return nil, fmt.Errorf("attempt limits cannot be negative")
	}

	return cfg, nil
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
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
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
