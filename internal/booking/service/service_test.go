package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tourbooking_backend/internal/booking/domain"
	"tourbooking_backend/internal/booking/repository"
	"tourbooking_backend/internal/booking/transport"
	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	fmtUnexpectedErr = "unexpected error: %v"
	fmtWrongKind     = "expected error kind %v, got %v (err: %v)"
)

// fakeRequestStore keeps requests in memory and mirrors the conditional-write
// semantics of the real repository: a transition only wins when the current
// status matches the expected one.
type fakeRequestStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*repository.BookingRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[uuid.UUID]*repository.BookingRequest)}
}

func (f *fakeRequestStore) Create(_ context.Context, req *repository.BookingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequestStore) GetByID(_ context.Context, id uuid.UUID) (*repository.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, apperr.NotFound("booking request not found")
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestStore) List(_ context.Context, status *domain.Status, _, _ int) ([]repository.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.BookingRequest
	for _, req := range f.requests {
		if status == nil || req.Status == *status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) TransitionWithEvent(_ context.Context, p repository.TransitionParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[p.ID]
	if !ok || req.Status != p.From {
		return false, nil
	}
	req.Status = p.To
	reviewedAt := p.ReviewedAt
	reviewedBy := p.ReviewedBy
	req.ReviewedAt = &reviewedAt
	req.ReviewedBy = &reviewedBy
	req.RejectionReason = p.RejectionReason
	return true, nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []repository.LifecycleEvent
}

func (f *fakeEventStore) InsertOnce(_ context.Context, event repository.LifecycleEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.events {
		if existing.BookingRequestID == event.BookingRequestID && existing.EventType == event.EventType {
			return false, nil
		}
	}
	f.events = append(f.events, event)
	return true, nil
}

func (f *fakeEventStore) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]repository.LifecycleEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.LifecycleEvent
	for _, ev := range f.events {
		if ev.BookingRequestID == bookingID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakePayments struct {
	mu       sync.Mutex
	captured []string
	voided   []string
	fail     bool
}

func (f *fakePayments) Capture(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("gateway unavailable")
	}
	f.captured = append(f.captured, token)
	return nil
}

func (f *fakePayments) Void(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("gateway unavailable")
	}
	f.voided = append(f.voided, token)
	return nil
}

type fakeHealer struct {
	keys []string
}

func (f *fakeHealer) Heal(_ context.Context, resourceKey string) (int, error) {
	f.keys = append(f.keys, resourceKey)
	return 0, nil
}

func newTestService(repo *fakeRequestStore, eventLog *fakeEventStore, payments *fakePayments, healer *fakeHealer) *Service {
	svc := New(repo, eventLog, payments, healer, nil, logger.New("development"))
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func pendingRequest(store *fakeRequestStore, token string) *repository.BookingRequest {
	req := &repository.BookingRequest{
		ID:            uuid.New(),
		CustomerName:  "Dana Miller",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+12025550142",
		TourID:        uuid.New(),
		RequestedAt:   time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC),
		Adults:        2,
		Status:        domain.StatusPendingConfirmation,
		SubmittedAt:   time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	if token != "" {
		req.PaymentMethodToken = &token
	}
	_ = store.Create(context.Background(), req)
	return req
}

func TestSubmitCreatesPendingRequestWithAuditEvent(t *testing.T) {
	store := newFakeRequestStore()
	eventLog := &fakeEventStore{}
	healer := &fakeHealer{}
	svc := newTestService(store, eventLog, &fakePayments{}, healer)

	resp, err := svc.Submit(context.Background(), transport.SubmitBookingRequest{
		CustomerName:       "  Dana Miller ",
		CustomerEmail:      "Dana@Example.com",
		CustomerPhone:      "(202) 555-0142",
		TourID:             uuid.New(),
		RequestedAt:        time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC),
		Adults:             2,
		Children:           1,
		PaymentMethodToken: "tok_test_4242424242",
	})
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	if resp.Status != string(domain.StatusPendingConfirmation) {
		t.Fatalf("expected status pending_confirmation, got %s", resp.Status)
	}
	if resp.CustomerName != "Dana Miller" {
		t.Fatalf("expected trimmed customer name, got %q", resp.CustomerName)
	}
	if resp.CustomerEmail != "dana@example.com" {
		t.Fatalf("expected lowercased email, got %q", resp.CustomerEmail)
	}
	if resp.CustomerPhone != "+12025550142" {
		t.Fatalf("expected normalized phone, got %q", resp.CustomerPhone)
	}
	if !resp.HasPaymentMethod {
		t.Fatal("expected a stored payment method")
	}

	if len(eventLog.events) != 1 || eventLog.events[0].EventType != domain.EventSubmitted {
		t.Fatalf("expected one submitted event, got %+v", eventLog.events)
	}
	if len(healer.keys) != 1 {
		t.Fatalf("expected one opportunistic heal, got %d", len(healer.keys))
	}
}

func TestSubmitRejectsPastRequestedAt(t *testing.T) {
	svc := newTestService(newFakeRequestStore(), &fakeEventStore{}, &fakePayments{}, &fakeHealer{})

	_, err := svc.Submit(context.Background(), transport.SubmitBookingRequest{
		CustomerName:       "Dana Miller",
		CustomerEmail:      "dana@example.com",
		CustomerPhone:      "+12025550142",
		TourID:             uuid.New(),
		RequestedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Adults:             1,
		PaymentMethodToken: "tok_test_4242424242",
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf(fmtWrongKind, apperr.KindBadRequest, apperr.GetKind(err), err)
	}
}

func TestApproveConfirmsPendingRequestAndCapturesPayment(t *testing.T) {
	store := newFakeRequestStore()
	payments := &fakePayments{}
	svc := newTestService(store, &fakeEventStore{}, payments, &fakeHealer{})
	req := pendingRequest(store, "tok_capture_me")

	resp, err := svc.Approve(context.Background(), req.ID, "admin-1")
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	if resp.Status != string(domain.StatusConfirmed) {
		t.Fatalf("expected status confirmed, got %s", resp.Status)
	}
	if resp.ReviewedBy == nil || *resp.ReviewedBy != "admin-1" {
		t.Fatalf("expected reviewedBy admin-1, got %v", resp.ReviewedBy)
	}
	if len(payments.captured) != 1 || payments.captured[0] != "tok_capture_me" {
		t.Fatalf("expected payment capture for token, got %v", payments.captured)
	}
}

func TestApproveAlreadyReviewedReturnsConflict(t *testing.T) {
	store := newFakeRequestStore()
	svc := newTestService(store, &fakeEventStore{}, &fakePayments{}, &fakeHealer{})
	req := pendingRequest(store, "")

	if _, err := svc.Approve(context.Background(), req.ID, "admin-1"); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	_, err := svc.Approve(context.Background(), req.ID, "admin-2")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf(fmtWrongKind, apperr.KindConflict, apperr.GetKind(err), err)
	}
}

func TestApproveUnknownRequestReturnsNotFound(t *testing.T) {
	svc := newTestService(newFakeRequestStore(), &fakeEventStore{}, &fakePayments{}, &fakeHealer{})

	_, err := svc.Approve(context.Background(), uuid.New(), "admin-1")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf(fmtWrongKind, apperr.KindNotFound, apperr.GetKind(err), err)
	}
}

func TestApproveCannotOverturnAutoRejection(t *testing.T) {
	store := newFakeRequestStore()
	svc := newTestService(store, &fakeEventStore{}, &fakePayments{}, &fakeHealer{})
	req := pendingRequest(store, "")

	// Simulate the auto-reject escalation winning the race first.
	won, err := store.TransitionWithEvent(context.Background(), repository.TransitionParams{
		ID:         req.ID,
		From:       domain.StatusPendingConfirmation,
		To:         domain.StatusRejected,
		ReviewedAt: time.Now().UTC(),
		ReviewedBy: domain.SystemActor,
	})
	if err != nil || !won {
		t.Fatalf("setup transition failed: won=%v err=%v", won, err)
	}

	_, err = svc.Approve(context.Background(), req.ID, "admin-1")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf(fmtWrongKind, apperr.KindConflict, apperr.GetKind(err), err)
	}

	final, _ := store.GetByID(context.Background(), req.ID)
	if final.Status != domain.StatusRejected {
		t.Fatalf("auto-rejection was overturned: status %s", final.Status)
	}
}

func TestApproveSucceedsWhenPaymentCaptureFails(t *testing.T) {
	store := newFakeRequestStore()
	payments := &fakePayments{fail: true}
	svc := newTestService(store, &fakeEventStore{}, payments, &fakeHealer{})
	req := pendingRequest(store, "tok_capture_me")

	resp, err := svc.Approve(context.Background(), req.ID, "admin-1")
	if err != nil {
		t.Fatalf("gateway failure must not fail the approval: %v", err)
	}
	if resp.Status != string(domain.StatusConfirmed) {
		t.Fatalf("expected status confirmed, got %s", resp.Status)
	}
}

func TestRejectRecordsReasonAndVoidsPayment(t *testing.T) {
	store := newFakeRequestStore()
	payments := &fakePayments{}
	svc := newTestService(store, &fakeEventStore{}, payments, &fakeHealer{})
	req := pendingRequest(store, "tok_void_me")

	resp, err := svc.Reject(context.Background(), req.ID, "admin-1", "tour is fully booked")
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	if resp.Status != string(domain.StatusRejected) {
		t.Fatalf("expected status rejected, got %s", resp.Status)
	}
	if resp.RejectionReason == nil || *resp.RejectionReason != "tour is fully booked" {
		t.Fatalf("expected rejection reason, got %v", resp.RejectionReason)
	}
	if len(payments.voided) != 1 || payments.voided[0] != "tok_void_me" {
		t.Fatalf("expected payment void for token, got %v", payments.voided)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	store := newFakeRequestStore()
	svc := newTestService(store, &fakeEventStore{}, &fakePayments{}, &fakeHealer{})
	req := pendingRequest(store, "")

	_, err := svc.Reject(context.Background(), req.ID, "admin-1", "   ")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf(fmtWrongKind, apperr.KindValidation, apperr.GetKind(err), err)
	}
}

func TestGetDetailReturnsAuditTrail(t *testing.T) {
	store := newFakeRequestStore()
	eventLog := &fakeEventStore{}
	svc := newTestService(store, eventLog, &fakePayments{}, &fakeHealer{})
	req := pendingRequest(store, "")

	if _, err := eventLog.InsertOnce(context.Background(),
		repository.NewLifecycleEvent(req.ID, domain.EventSubmitted, domain.SystemActor, nil)); err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}

	detail, err := svc.GetDetail(context.Background(), req.ID)
	if err != nil {
		t.Fatalf(fmtUnexpectedErr, err)
	}
	if detail.Booking.ID != req.ID {
		t.Fatalf("expected booking %s, got %s", req.ID, detail.Booking.ID)
	}
	if len(detail.Events) != 1 || detail.Events[0].EventType != string(domain.EventSubmitted) {
		t.Fatalf("expected one submitted event, got %+v", detail.Events)
	}
}
