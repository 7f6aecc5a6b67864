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

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetAdminNotifyEmail() string
}

// SchedulerConfig provides settings for the background scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetReconcileInterval() time.Duration
	GetConflictSweepInterval() time.Duration
}

// PaymentConfig provides settings for the payment gateway client.
type PaymentConfig interface {
	GetPaymentEnabled() bool
	GetPaymentAPIURL() string
	GetPaymentAPIKey() string
}

// EscalationConfig provides the booking escalation thresholds.
type EscalationConfig interface {
	GetAdminReminderAfter() time.Duration
	GetCustomerDelayNoticeAfter() time.Duration
	GetAutoRejectAfter() time.Duration
	GetPaymentCleanupAfter() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	AppBaseURL        string
	AdminNotifyEmail  string
	EmailEnabled      bool
	EmailProvider     string
	BrevoAPIKey       string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	EmailFromName     string
	EmailFromAddress  string
	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	ReconcileInterval time.Duration
	SweepInterval     time.Duration
	PaymentEnabled    bool
	PaymentAPIURL     string
	PaymentAPIKey     string

	// Escalation thresholds for unattended booking requests.
	AdminReminderAfter       time.Duration
	CustomerDelayNoticeAfter time.Duration
	AutoRejectAfter          time.Duration
	PaymentCleanupAfter      time.Duration
}

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	emailProvider := strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp"))
	smtpHost := getEnv("SMTP_HOST", "")

	paymentEnabled := strings.EqualFold(getEnv("PAYMENT_ENABLED", "false"), "true")

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:4200"),
		AdminNotifyEmail:  getEnv("ADMIN_NOTIFY_EMAIL", ""),
		EmailEnabled:      emailEnabled,
		EmailProvider:     emailProvider,
		BrevoAPIKey:       getEnv("BREVO_API_KEY", ""),
		SMTPHost:          smtpHost,
		SMTPPort:          int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Tour Bookings"),
		EmailFromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		ReconcileInterval: mustDuration(getEnv("RECONCILE_INTERVAL", "1h")),
		SweepInterval:     mustDuration(getEnv("CONFLICT_SWEEP_INTERVAL", "6h")),
		PaymentEnabled:    paymentEnabled,
		PaymentAPIURL:     getEnv("PAYMENT_API_URL", ""),
		PaymentAPIKey:     getEnv("PAYMENT_API_KEY", ""),

		AdminReminderAfter:       mustDuration(getEnv("ESCALATION_ADMIN_REMINDER_AFTER", "12h")),
		CustomerDelayNoticeAfter: mustDuration(getEnv("ESCALATION_CUSTOMER_DELAY_AFTER", "24h")),
		AutoRejectAfter:          mustDuration(getEnv("ESCALATION_AUTO_REJECT_AFTER", "48h")),
		PaymentCleanupAfter:      mustDuration(getEnv("ESCALATION_PAYMENT_CLEANUP_AFTER", "72h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled {
		switch cfg.EmailProvider {
		case "smtp":
			if cfg.SMTPHost == "" {
				return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
			}
		case "brevo":
			if cfg.BrevoAPIKey == "" {
				return nil, fmt.Errorf("BREVO_API_KEY is required when EMAIL_PROVIDER is brevo")
			}
		default:
			return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
		}
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.PaymentEnabled && (cfg.PaymentAPIURL == "" || cfg.PaymentAPIKey == "") {
		return nil, fmt.Errorf("PAYMENT_API_URL and PAYMENT_API_KEY are required when PAYMENT_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if err := validateThresholds(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateThresholds rejects corrupt escalation thresholds up front;
// a zero threshold would make requests silently never escalate.
func validateThresholds(cfg *Config) error {
	thresholds := []struct {
		name  string
		value time.Duration
	}{
		{"ESCALATION_ADMIN_REMINDER_AFTER", cfg.AdminReminderAfter},
		{"ESCALATION_CUSTOMER_DELAY_AFTER", cfg.CustomerDelayNoticeAfter},
		{"ESCALATION_AUTO_REJECT_AFTER", cfg.AutoRejectAfter},
		{"ESCALATION_PAYMENT_CLEANUP_AFTER", cfg.PaymentCleanupAfter},
	}
	for _, t := range thresholds {
		if t.value <= 0 {
			return fmt.Errorf("%s must be a positive duration", t.name)
		}
	}
	if cfg.AdminReminderAfter >= cfg.CustomerDelayNoticeAfter ||
		cfg.CustomerDelayNoticeAfter >= cfg.AutoRejectAfter {
		return fmt.Errorf("escalation thresholds must be strictly increasing")
	}
	return nil
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

func (c *Config) GetAppBaseURL() string       { return c.AppBaseURL }
func (c *Config) GetAdminNotifyEmail() string { return c.AdminNotifyEmail }

func (c *Config) GetRedisURL() string                     { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool               { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string               { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                { return c.AsynqConcurrency }
func (c *Config) GetReconcileInterval() time.Duration     { return c.ReconcileInterval }
func (c *Config) GetConflictSweepInterval() time.Duration { return c.SweepInterval }

func (c *Config) GetPaymentEnabled() bool  { return c.PaymentEnabled }
func (c *Config) GetPaymentAPIURL() string { return c.PaymentAPIURL }
func (c *Config) GetPaymentAPIKey() string { return c.PaymentAPIKey }

func (c *Config) GetAdminReminderAfter() time.Duration       { return c.AdminReminderAfter }
func (c *Config) GetCustomerDelayNoticeAfter() time.Duration { return c.CustomerDelayNoticeAfter }
func (c *Config) GetAutoRejectAfter() time.Duration          { return c.AutoRejectAfter }
func (c *Config) GetPaymentCleanupAfter() time.Duration      { return c.PaymentCleanupAfter }

// =============================================================================
// Helpers
// =============================================================================

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

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
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
