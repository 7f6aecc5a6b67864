// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"tourbooking_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Booking Domain Events
// =============================================================================

// BookingSubmitted is published when a customer submits a new booking request.
type BookingSubmitted struct {
	BaseEvent
	BookingID     uuid.UUID `json:"bookingId"`
	TourID        uuid.UUID `json:"tourId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	RequestedAt   time.Time `json:"requestedAt"`
}

func (e BookingSubmitted) EventName() string { return "booking.submitted" }

// AdminReminderDue is published when a pending request has waited long enough
// to warrant an internal reminder to the review team.
type AdminReminderDue struct {
	BaseEvent
	BookingID    uuid.UUID `json:"bookingId"`
	CustomerName string    `json:"customerName"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

func (e AdminReminderDue) EventName() string { return "booking.admin_reminder_due" }

// CustomerDelayNoticeDue is published when the customer should be told their
// request is still being reviewed.
type CustomerDelayNoticeDue struct {
	BaseEvent
	BookingID     uuid.UUID `json:"bookingId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

func (e CustomerDelayNoticeDue) EventName() string { return "booking.customer_delay_notice_due" }

// BookingApproved is published after an admin approves a request.
type BookingApproved struct {
	BaseEvent
	BookingID     uuid.UUID `json:"bookingId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	RequestedAt   time.Time `json:"requestedAt"`
	AdminID       string    `json:"adminId"`
}

func (e BookingApproved) EventName() string { return "booking.approved" }

// BookingRejected is published after a request reaches the rejected state,
// whether by an admin decision or by the auto-reject escalation.
type BookingRejected struct {
	BaseEvent
	BookingID     uuid.UUID `json:"bookingId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Reason        string    `json:"reason"`
	ReviewedBy    string    `json:"reviewedBy"`
	AutoRejected  bool      `json:"autoRejected"`
}

func (e BookingRejected) EventName() string { return "booking.rejected" }
