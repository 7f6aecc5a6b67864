package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tourbooking_backend/platform/config"
)

// BrevoSender implements the Sender interface using the Brevo transactional
// email API.
type BrevoSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	client    *http.Client
}

// NewBrevoSender creates a new BrevoSender from the email configuration.
func NewBrevoSender(cfg config.EmailConfig) *BrevoSender {
	return &BrevoSender{
		apiKey:    cfg.GetBrevoAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type brevoEmailRequest struct {
	Sender struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender"`
	To []struct {
		Email string `json:"email"`
	} `json:"to"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
}

func (b *BrevoSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	payload := brevoEmailRequest{Subject: subject, HTMLContent: htmlContent}
	payload.Sender.Name = b.fromName
	payload.Sender.Email = b.fromEmail
	payload.To = []struct {
		Email string `json:"email"`
	}{{Email: toEmail}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("brevo marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.brevo.com/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("brevo send: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func (b *BrevoSender) SendBookingReceivedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
	content, err := renderEmailTemplate("booking_received.html", bookingReceivedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Booking request received",
			Heading: "We received your booking request",
		},
		CustomerName: customerName,
		RequestedAt:  formatTimestamp(requestedAt),
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectBookingReceived, content)
}

func (b *BrevoSender) SendAdminReminderEmail(ctx context.Context, toEmail, customerName, reviewURL string, submittedAt time.Time) error {
	content, err := renderEmailTemplate("admin_reminder.html", adminReminderEmailData{
		baseEmailData: baseEmailData{
			Title:    "Booking request awaiting review",
			Heading:  "Booking request awaiting review",
			CTALabel: "Review request",
			CTAURL:   reviewURL,
		},
		CustomerName: customerName,
		SubmittedAt:  formatTimestamp(submittedAt),
		WaitingFor:   formatWaitingFor(submittedAt, time.Now()),
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectAdminReminder, content)
}

func (b *BrevoSender) SendCustomerDelayEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
	content, err := renderEmailTemplate("customer_delay.html", customerDelayEmailData{
		baseEmailData: baseEmailData{
			Title:   "Still being reviewed",
			Heading: "Your booking request is still being reviewed",
		},
		CustomerName: customerName,
		RequestedAt:  formatTimestamp(requestedAt),
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectCustomerDelay, content)
}

func (b *BrevoSender) SendBookingApprovedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
	content, err := renderEmailTemplate("booking_approved.html", bookingApprovedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Booking confirmed",
			Heading: "Your booking is confirmed",
		},
		CustomerName: customerName,
		RequestedAt:  formatTimestamp(requestedAt),
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectBookingApproved, content)
}

func (b *BrevoSender) SendBookingRejectedEmail(ctx context.Context, toEmail, customerName, reason string) error {
	content, err := renderEmailTemplate("booking_rejected.html", bookingRejectedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Booking request update",
			Heading: "Your booking request was not confirmed",
		},
		CustomerName: customerName,
		Reason:       reason,
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectBookingRejected, content)
}

var _ Sender = (*BrevoSender)(nil)
