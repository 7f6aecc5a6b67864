package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"tourbooking_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendBookingReceivedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
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
	return s.send(ctx, toEmail, subjectBookingReceived, content)
}

func (s *SMTPSender) SendAdminReminderEmail(ctx context.Context, toEmail, customerName, reviewURL string, submittedAt time.Time) error {
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
	return s.send(ctx, toEmail, subjectAdminReminder, content)
}

func (s *SMTPSender) SendCustomerDelayEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
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
	return s.send(ctx, toEmail, subjectCustomerDelay, content)
}

func (s *SMTPSender) SendBookingApprovedEmail(ctx context.Context, toEmail, customerName string, requestedAt time.Time) error {
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
	return s.send(ctx, toEmail, subjectBookingApproved, content)
}

func (s *SMTPSender) SendBookingRejectedEmail(ctx context.Context, toEmail, customerName, reason string) error {
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
	return s.send(ctx, toEmail, subjectBookingRejected, content)
}

var _ Sender = (*SMTPSender)(nil)
