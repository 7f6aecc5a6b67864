// Package domain holds the booking request state machine vocabulary shared
// by the repository, policy engine, reconciler, and service layers.
package domain

// Status is the current lifecycle state of a booking request.
type Status string

const (
	// StatusPendingConfirmation is the initial state; an admin review or a
	// timeout escalation decides what happens next.
	StatusPendingConfirmation Status = "pending_confirmation"
	// StatusConfirmed is terminal; reached only through an admin approval.
	StatusConfirmed Status = "confirmed"
	// StatusRejected is terminal; reached through an admin rejection, the
	// auto-reject timeout, or duplicate resolution.
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further status transitions are permitted.
// Clearing the payment method token after a grace window is not a status change.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// EventType identifies one kind of lifecycle audit event.
// Each type occurs at most once per booking request; the event log enforces
// this with a uniqueness guard so concurrent writers cannot duplicate effects.
type EventType string

const (
	EventSubmitted             EventType = "submitted"
	EventAdminReminderSent     EventType = "admin_reminder_sent"
	EventCustomerDelayNotified EventType = "customer_delay_notified"
	EventApproved              EventType = "approved"
	EventRejected              EventType = "rejected"
	EventAutoRejected          EventType = "auto_rejected"
	EventPaymentMethodCleaned  EventType = "payment_method_cleaned"
	EventDuplicateResolved     EventType = "duplicate_resolved"
)

// TerminalTransition reports whether the event records a terminal status change.
// A booking request's event log may contain at most one of these.
func (e EventType) TerminalTransition() bool {
	return e == EventApproved || e == EventRejected || e == EventAutoRejected
}

// SystemActor is the created_by identity for machine-initiated events.
const SystemActor = "system"

// AutoRejectReason is the fixed rejection reason applied by the auto-reject
// escalation. The exact wording is part of the contract with notification
// templates and must not vary per deployment.
const AutoRejectReason = "Booking request was not reviewed in time and has been automatically rejected."
