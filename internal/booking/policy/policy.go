// Package policy implements the escalation timeout decision for booking
// requests. Decide is a pure function: all durable reads and guarded writes
// happen in the reconciler, which keeps this logic trivially testable.
package policy

import (
	"fmt"
	"time"

	"tourbooking_backend/internal/booking/domain"
)

// Thresholds holds the escalation timeouts, static per deployment.
// The first three count from submission; PaymentCleanup counts from the
// moment the request reached a terminal state.
type Thresholds struct {
	AdminReminder       time.Duration
	CustomerDelayNotice time.Duration
	AutoReject          time.Duration
	PaymentCleanup      time.Duration
}

// DefaultThresholds returns the standard deployment values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AdminReminder:       12 * time.Hour,
		CustomerDelayNotice: 24 * time.Hour,
		AutoReject:          48 * time.Hour,
		PaymentCleanup:      72 * time.Hour,
	}
}

// Validate rejects corrupt thresholds. A reconciliation run must abort
// loudly on invalid thresholds instead of silently never escalating.
func (t Thresholds) Validate() error {
	if t.AdminReminder <= 0 || t.CustomerDelayNotice <= 0 || t.AutoReject <= 0 || t.PaymentCleanup <= 0 {
		return fmt.Errorf("escalation thresholds must be positive")
	}
	if t.AdminReminder >= t.CustomerDelayNotice || t.CustomerDelayNotice >= t.AutoReject {
		return fmt.Errorf("escalation thresholds must be strictly increasing")
	}
	return nil
}

// Action is one due-but-unfired escalation step.
type Action struct {
	Type domain.EventType
	// DueAt is when the action became due; the audit payload records it so a
	// delayed catch-up pass is distinguishable from an on-time one.
	DueAt time.Time
}

// Decide returns every action that is due at `now` and has not fired yet,
// in threshold order. Returning all due actions (not just the next one) lets
// a single pass catch up after a long scheduler outage; the per-event-type
// uniqueness guard downstream keeps the catch-up idempotent.
//
// While the request is pending (reviewedAt == nil) the reminder, delay
// notice, and auto-reject are evaluated against submittedAt. Once terminal,
// only payment cleanup remains, evaluated against reviewedAt.
func Decide(t Thresholds, submittedAt time.Time, reviewedAt *time.Time, now time.Time, fired map[domain.EventType]bool) []Action {
	var actions []Action

	if reviewedAt == nil {
		steps := []EventTypeThreshold{
			{domain.EventAdminReminderSent, t.AdminReminder},
			{domain.EventCustomerDelayNotified, t.CustomerDelayNotice},
			{domain.EventAutoRejected, t.AutoReject},
		}
		for _, step := range steps {
			dueAt := submittedAt.Add(step.After)
			if fired[step.Type] || now.Before(dueAt) {
				continue
			}
			actions = append(actions, Action{Type: step.Type, DueAt: dueAt})
		}
		return actions
	}

	dueAt := reviewedAt.Add(t.PaymentCleanup)
	if !fired[domain.EventPaymentMethodCleaned] && !now.Before(dueAt) {
		actions = append(actions, Action{Type: domain.EventPaymentMethodCleaned, DueAt: dueAt})
	}
	return actions
}

// EventTypeThreshold pairs an escalation event with its trigger offset.
type EventTypeThreshold struct {
	Type  domain.EventType
	After time.Duration
}
