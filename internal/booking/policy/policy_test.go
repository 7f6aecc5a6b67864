package policy

import (
	"testing"
	"time"

	"tourbooking_backend/internal/booking/domain"
)

const fmtUnexpectedActions = "unexpected actions: %#v"

func noneFired() map[domain.EventType]bool {
	return map[domain.EventType]bool{domain.EventSubmitted: true}
}

func TestDecideNothingDueBeforeFirstThreshold(t *testing.T) {
	submitted := time.Now()
	actions := Decide(DefaultThresholds(), submitted, nil, submitted.Add(11*time.Hour), noneFired())
	if len(actions) != 0 {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
}

func TestDecideAdminReminderDueAt13Hours(t *testing.T) {
	submitted := time.Now()
	actions := Decide(DefaultThresholds(), submitted, nil, submitted.Add(13*time.Hour), noneFired())
	if len(actions) != 1 || actions[0].Type != domain.EventAdminReminderSent {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
	if !actions[0].DueAt.Equal(submitted.Add(12 * time.Hour)) {
		t.Fatalf("expected dueAt at submission+12h, got %v", actions[0].DueAt)
	}
}

func TestDecideDelayNoticeNotRepeatedAfterReminderFired(t *testing.T) {
	submitted := time.Now()
	fired := noneFired()
	fired[domain.EventAdminReminderSent] = true

	actions := Decide(DefaultThresholds(), submitted, nil, submitted.Add(25*time.Hour), fired)
	if len(actions) != 1 || actions[0].Type != domain.EventCustomerDelayNotified {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
}

func TestDecideCatchUpReturnsAllMissedActionsInOrder(t *testing.T) {
	submitted := time.Now()
	actions := Decide(DefaultThresholds(), submitted, nil, submitted.Add(49*time.Hour), noneFired())

	want := []domain.EventType{
		domain.EventAdminReminderSent,
		domain.EventCustomerDelayNotified,
		domain.EventAutoRejected,
	}
	if len(actions) != len(want) {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
	for i, w := range want {
		if actions[i].Type != w {
			t.Fatalf("expected action %d to be %q, got %q", i, w, actions[i].Type)
		}
	}
}

func TestDecideTerminalRequestOnlyEligibleForCleanup(t *testing.T) {
	submitted := time.Now().Add(-200 * time.Hour)
	reviewed := submitted.Add(40 * time.Hour)
	fired := noneFired()
	fired[domain.EventRejected] = true

	actions := Decide(DefaultThresholds(), submitted, &reviewed, reviewed.Add(73*time.Hour), fired)
	if len(actions) != 1 || actions[0].Type != domain.EventPaymentMethodCleaned {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
	if !actions[0].DueAt.Equal(reviewed.Add(72 * time.Hour)) {
		t.Fatalf("cleanup must be evaluated against review time, got %v", actions[0].DueAt)
	}
}

func TestDecideTerminalBeforeCleanupWindowReturnsNothing(t *testing.T) {
	submitted := time.Now().Add(-100 * time.Hour)
	reviewed := time.Now().Add(-1 * time.Hour)
	fired := noneFired()
	fired[domain.EventApproved] = true

	actions := Decide(DefaultThresholds(), submitted, &reviewed, time.Now(), fired)
	if len(actions) != 0 {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
}

func TestDecideNeverReturnsFiredAction(t *testing.T) {
	submitted := time.Now()
	fired := map[domain.EventType]bool{
		domain.EventSubmitted:             true,
		domain.EventAdminReminderSent:     true,
		domain.EventCustomerDelayNotified: true,
		domain.EventAutoRejected:          true,
	}

	actions := Decide(DefaultThresholds(), submitted, nil, submitted.Add(1000*time.Hour), fired)
	if len(actions) != 0 {
		t.Fatalf(fmtUnexpectedActions, actions)
	}
}

func TestThresholdsValidateRejectsNonIncreasing(t *testing.T) {
	broken := DefaultThresholds()
	broken.CustomerDelayNotice = broken.AdminReminder
	if err := broken.Validate(); err == nil {
		t.Fatal("expected validation error for non-increasing thresholds")
	}
}

func TestThresholdsValidateRejectsZero(t *testing.T) {
	broken := DefaultThresholds()
	broken.PaymentCleanup = 0
	if err := broken.Validate(); err == nil {
		t.Fatal("expected validation error for zero threshold")
	}
}
