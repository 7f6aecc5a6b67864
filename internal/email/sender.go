// Package email delivers the booking notification emails. Two providers are
// supported: direct SMTP via go-mail, and the Brevo transactional API.
package email

import (
	"context"
	"fmt"
	"time"

	"tourbooking_backend/platform/config"
)

// Sender delivers the booking notification emails. Implementations must be
// safe for concurrent use; callers treat every send as best-effort.
type Sender interface {
	SendBookingReceivedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error
	SendAdminReminderEmail(ctx context.Context, toEmail, customerName, reviewURL string, submittedAt time.Time) error
	SendCustomerDelayEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error
	SendBookingApprovedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error
	SendBookingRejectedEmail(ctx context.Context, toEmail, customerName, reason string) error
}

// NoopSender drops every email. Used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendBookingReceivedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
	return nil
}

func (NoopSender) SendAdminReminderEmail(ctx context.Context, toEmail, customerName, reviewURL string, submittedAt time.Time) error {
	return nil
}

func (NoopSender) SendCustomerDelayEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
	return nil
}

func (NoopSender) SendBookingApprovedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
	return nil
}

func (NoopSender) SendBookingRejectedEmail(ctx context.Context, toEmail, customerName, reason string) error {
	return nil
}

// NewSender builds the configured provider. A disabled configuration yields
// the NoopSender; an enabled but incomplete one is an error so a misconfigured
// deployment fails at startup instead of silently dropping mail.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetEmailFromAddress() == "" {
		return nil, fmt.Errorf("email enabled without a from address")
	}

	switch cfg.GetEmailProvider() {
	case "brevo":
		if cfg.GetBrevoAPIKey() == "" {
			return nil, fmt.Errorf("email provider brevo requires an API key")
		}
		return NewBrevoSender(cfg), nil
	case "smtp":
		if cfg.GetSMTPHost() == "" {
			return nil, fmt.Errorf("email provider smtp requires a host")
		}
		return NewSMTPSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}
