package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"tourbooking_backend/internal/events"
	"tourbooking_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	received  []string
	reminders []string
	delays    []string
	approved  []string
	rejected  []string
	lastURL   string
	fail      bool
}

func (f *fakeSender) SendBookingReceivedEmail(_ context.Context, toEmail, _ string, _ time.Time) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.received = append(f.received, toEmail)
	return nil
}

func (f *fakeSender) SendAdminReminderEmail(_ context.Context, toEmail, _, reviewURL string, _ time.Time) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.reminders = append(f.reminders, toEmail)
	f.lastURL = reviewURL
	return nil
}

func (f *fakeSender) SendCustomerDelayEmail(_ context.Context, toEmail, _ string, _ time.Time) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.delays = append(f.delays, toEmail)
	return nil
}

func (f *fakeSender) SendBookingApprovedEmail(_ context.Context, toEmail, _ string, _ time.Time) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.approved = append(f.approved, toEmail)
	return nil
}

func (f *fakeSender) SendBookingRejectedEmail(_ context.Context, toEmail, _, _ string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.rejected = append(f.rejected, toEmail)
	return nil
}

type fakeNotifyConfig struct {
	baseURL    string
	adminEmail string
}

func (c fakeNotifyConfig) GetAppBaseURL() string       { return c.baseURL }
func (c fakeNotifyConfig) GetAdminNotifyEmail() string { return c.adminEmail }

func newTestModule(sender *fakeSender, adminEmail string) *Module {
	return New(sender, fakeNotifyConfig{baseURL: "https://booking.example.com", adminEmail: adminEmail}, logger.New("development"))
}

func TestAdminReminderGoesToConfiguredAddress(t *testing.T) {
	sender := &fakeSender{}
	mod := newTestModule(sender, "ops@example.com")
	bookingID := uuid.New()

	err := mod.Handle(context.Background(), events.AdminReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		BookingID:    bookingID,
		CustomerName: "Dana Miller",
		SubmittedAt:  time.Now().Add(-13 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.reminders) != 1 || sender.reminders[0] != "ops@example.com" {
		t.Fatalf("expected reminder to ops@example.com, got %v", sender.reminders)
	}
	want := "https://booking.example.com/admin/booking-requests/" + bookingID.String()
	if sender.lastURL != want {
		t.Fatalf("expected review URL %s, got %s", want, sender.lastURL)
	}
}

func TestAdminReminderSkippedWithoutConfiguredAddress(t *testing.T) {
	sender := &fakeSender{}
	mod := newTestModule(sender, "")

	err := mod.Handle(context.Background(), events.AdminReminderDue{
		BaseEvent: events.NewBaseEvent(),
		BookingID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.reminders) != 0 {
		t.Fatal("expected no reminder without a configured address")
	}
}

func TestCustomerEmailsGoToTheCustomer(t *testing.T) {
	sender := &fakeSender{}
	mod := newTestModule(sender, "ops@example.com")

	handleEvents := []events.Event{
		events.BookingSubmitted{BaseEvent: events.NewBaseEvent(), BookingID: uuid.New(), CustomerEmail: "dana@example.com"},
		events.CustomerDelayNoticeDue{BaseEvent: events.NewBaseEvent(), BookingID: uuid.New(), CustomerEmail: "dana@example.com"},
		events.BookingApproved{BaseEvent: events.NewBaseEvent(), BookingID: uuid.New(), CustomerEmail: "dana@example.com"},
		events.BookingRejected{BaseEvent: events.NewBaseEvent(), BookingID: uuid.New(), CustomerEmail: "dana@example.com", Reason: "fully booked"},
	}
	for _, ev := range handleEvents {
		if err := mod.Handle(context.Background(), ev); err != nil {
			t.Fatalf("unexpected error for %s: %v", ev.EventName(), err)
		}
	}

	if len(sender.received) != 1 || len(sender.delays) != 1 || len(sender.approved) != 1 || len(sender.rejected) != 1 {
		t.Fatalf("expected one email of each kind, got %+v", sender)
	}
}

func TestSenderFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{fail: true}
	mod := newTestModule(sender, "ops@example.com")

	err := mod.Handle(context.Background(), events.BookingApproved{
		BaseEvent:     events.NewBaseEvent(),
		BookingID:     uuid.New(),
		CustomerEmail: "dana@example.com",
	})
	if err != nil {
		t.Fatalf("notification failure must not propagate: %v", err)
	}
}
