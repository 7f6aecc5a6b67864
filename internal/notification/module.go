// Package notification provides event handlers for sending emails in
// response to booking domain events. The module subscribes to events and
// inverts the dependency: the booking module never talks to email providers.
//
// Every send here is best-effort and time-bounded. A failed notification is
// logged and dropped; it is never retried in-process and never affects the
// state transition that triggered it.
package notification

import (
	"context"
	"time"

	"tourbooking_backend/internal/email"
	"tourbooking_backend/internal/events"
	"tourbooking_backend/platform/config"
	"tourbooking_backend/platform/logger"
)

// sendTimeout bounds each outbound notification.
const sendTimeout = 15 * time.Second

// Module dispatches booking events to the email sender.
type Module struct {
	sender email.Sender
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.BookingSubmitted{}.EventName(), m)
	bus.Subscribe(events.AdminReminderDue{}.EventName(), m)
	bus.Subscribe(events.CustomerDelayNoticeDue{}.EventName(), m)
	bus.Subscribe(events.BookingApproved{}.EventName(), m)
	bus.Subscribe(events.BookingRejected{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.BookingSubmitted:
		return m.handleBookingSubmitted(ctx, e)
	case events.AdminReminderDue:
		return m.handleAdminReminderDue(ctx, e)
	case events.CustomerDelayNoticeDue:
		return m.handleCustomerDelayNoticeDue(ctx, e)
	case events.BookingApproved:
		return m.handleBookingApproved(ctx, e)
	case events.BookingRejected:
		return m.handleBookingRejected(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleBookingSubmitted(ctx context.Context, e events.BookingSubmitted) error {
	m.deliver(ctx, "booking received", e.BookingID.String(), func(sendCtx context.Context) error {
		return m.sender.SendBookingReceivedEmail(sendCtx, e.CustomerEmail, e.CustomerName, e.RequestedAt)
	})
	return nil
}

func (m *Module) handleAdminReminderDue(ctx context.Context, e events.AdminReminderDue) error {
	adminEmail := m.cfg.GetAdminNotifyEmail()
	if adminEmail == "" {
		m.log.Warn("admin reminder due but ADMIN_NOTIFY_EMAIL not configured",
			"booking_request_id", e.BookingID.String())
		return nil
	}

	reviewURL := m.cfg.GetAppBaseURL() + "/admin/booking-requests/" + e.BookingID.String()
	m.deliver(ctx, "admin reminder", e.BookingID.String(), func(sendCtx context.Context) error {
		return m.sender.SendAdminReminderEmail(sendCtx, adminEmail, e.CustomerName, reviewURL, e.SubmittedAt)
	})
	return nil
}

func (m *Module) handleCustomerDelayNoticeDue(ctx context.Context, e events.CustomerDelayNoticeDue) error {
	m.deliver(ctx, "customer delay notice", e.BookingID.String(), func(sendCtx context.Context) error {
		return m.sender.SendCustomerDelayEmail(sendCtx, e.CustomerEmail, e.CustomerName, e.SubmittedAt)
	})
	return nil
}

func (m *Module) handleBookingApproved(ctx context.Context, e events.BookingApproved) error {
	m.deliver(ctx, "booking approved", e.BookingID.String(), func(sendCtx context.Context) error {
		return m.sender.SendBookingApprovedEmail(sendCtx, e.CustomerEmail, e.CustomerName, e.RequestedAt)
	})
	return nil
}

func (m *Module) handleBookingRejected(ctx context.Context, e events.BookingRejected) error {
	m.deliver(ctx, "booking rejected", e.BookingID.String(), func(sendCtx context.Context) error {
		return m.sender.SendBookingRejectedEmail(sendCtx, e.CustomerEmail, e.CustomerName, e.Reason)
	})
	return nil
}

// deliver runs one bounded, best-effort send.
func (m *Module) deliver(ctx context.Context, kind, bookingID string, send func(context.Context) error) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := send(sendCtx); err != nil {
		m.log.Warn("notification delivery failed",
			"kind", kind, "booking_request_id", bookingID, "error", err)
	}
}
