package service

import (
	"context"
	"strings"
	"time"

	"tourbooking_backend/internal/booking/domain"
	"tourbooking_backend/internal/booking/repository"
	"tourbooking_backend/internal/booking/transport"
	"tourbooking_backend/internal/events"
	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/logger"
	"tourbooking_backend/platform/phone"
	"tourbooking_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgAlreadyReviewed = "booking request already reviewed"

	// collaboratorTimeout bounds payment gateway calls so a slow provider
	// can never stall the authoritative state transition path.
	collaboratorTimeout = 10 * time.Second
)

// RequestStore is the current-state persistence surface the service needs.
type RequestStore interface {
	Create(ctx context.Context, req *repository.BookingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.BookingRequest, error)
	List(ctx context.Context, status *domain.Status, limit, offset int) ([]repository.BookingRequest, error)
	TransitionWithEvent(ctx context.Context, p repository.TransitionParams) (bool, error)
}

// EventStore is the audit log surface the service needs.
type EventStore interface {
	InsertOnce(ctx context.Context, event repository.LifecycleEvent) (bool, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]repository.LifecycleEvent, error)
}

// PaymentGateway captures or voids a stored payment method by its opaque token.
// Calls are best-effort relative to the state transition: a gateway failure is
// logged and reconciled out-of-band, never rolled into the transition.
type PaymentGateway interface {
	Capture(ctx context.Context, token string) error
	Void(ctx context.Context, token string) error
}

// DuplicateHealer resolves duplicate active requests for one resource key.
type DuplicateHealer interface {
	Heal(ctx context.Context, resourceKey string) (int, error)
}

// Service provides business logic for booking requests: the customer
// submission flow and the admin approve/reject gateway. Both mutate state
// exclusively through guarded conditional writes, so the service races safely
// against concurrent reconciliation passes.
type Service struct {
	repo     RequestStore
	eventLog EventStore
	payments PaymentGateway
	healer   DuplicateHealer
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new booking service.
func New(repo RequestStore, eventLog EventStore, payments PaymentGateway, healer DuplicateHealer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventLog: eventLog,
		payments: payments,
		healer:   healer,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// Submit creates a new booking request in pending_confirmation and records the
// submitted audit event. The opportunistic duplicate heal afterwards keeps the
// "one active request per customer/tour/slot" invariant without blocking the
// submission on it.
func (s *Service) Submit(ctx context.Context, req transport.SubmitBookingRequest) (*transport.BookingResponse, error) {
	now := s.now().UTC()
	token := req.PaymentMethodToken

	record := &repository.BookingRequest{
		ID:                 uuid.New(),
		CustomerName:       sanitize.Text(req.CustomerName),
		CustomerEmail:      strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:      phone.NormalizeE164(req.CustomerPhone),
		TourID:             req.TourID,
		RequestedAt:        req.RequestedAt.UTC(),
		Adults:             req.Adults,
		Children:           req.Children,
		PaymentMethodToken: &token,
		Status:             domain.StatusPendingConfirmation,
		SubmittedAt:        now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if !record.RequestedAt.After(now) {
		return nil, apperr.BadRequest("requestedAt must be in the future")
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create booking request", err)
	}

	if _, err := s.eventLog.InsertOnce(ctx, repository.NewLifecycleEvent(
		record.ID, domain.EventSubmitted, domain.SystemActor, map[string]any{
			"tour_id":      record.TourID.String(),
			"requested_at": record.RequestedAt,
		},
	)); err != nil {
		s.log.Warn("submitted event not recorded", "booking_request_id", record.ID.String(), "error", err)
	}

	if s.healer != nil {
		if _, err := s.healer.Heal(ctx, record.ResourceKey()); err != nil {
			s.log.Warn("duplicate heal after submission failed", "booking_request_id", record.ID.String(), "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.BookingSubmitted{
			BaseEvent:     events.NewBaseEvent(),
			BookingID:     record.ID,
			TourID:        record.TourID,
			CustomerName:  record.CustomerName,
			CustomerEmail: record.CustomerEmail,
			RequestedAt:   record.RequestedAt,
		})
	}

	resp := transport.FromBookingRequest(record)
	return &resp, nil
}

// Approve confirms a pending booking request on behalf of an admin.
// The transition is a compare-and-set: if the request was already reviewed
// (by another admin or by the auto-reject escalation racing this call), the
// zero-row result surfaces as a Conflict instead of overwriting state.
// An auto-rejected request cannot be overturned back to confirmed.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, adminID string) (*transport.BookingResponse, error) {
	now := s.now().UTC()
	won, err := s.repo.TransitionWithEvent(ctx, repository.TransitionParams{
		ID:         requestID,
		From:       domain.StatusPendingConfirmation,
		To:         domain.StatusConfirmed,
		ReviewedAt: now,
		ReviewedBy: adminID,
		Event: repository.NewLifecycleEvent(requestID, domain.EventApproved, adminID, map[string]any{
			"admin_id": adminID,
		}),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to approve booking request", err)
	}
	if !won {
		return nil, s.reviewConflict(ctx, requestID)
	}

	record, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if s.payments != nil && record.PaymentMethodToken != nil {
		s.capturePayment(ctx, requestID, *record.PaymentMethodToken)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.BookingApproved{
			BaseEvent:     events.NewBaseEvent(),
			BookingID:     record.ID,
			CustomerName:  record.CustomerName,
			CustomerEmail: record.CustomerEmail,
			RequestedAt:   record.RequestedAt,
			AdminID:       adminID,
		})
	}

	resp := transport.FromBookingRequest(record)
	return &resp, nil
}

// Reject declines a pending booking request on behalf of an admin.
// Symmetric to Approve; the same compare-and-set discipline applies.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, adminID, reason string) (*transport.BookingResponse, error) {
	reason = sanitize.Text(reason)
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required")
	}

	now := s.now().UTC()
	won, err := s.repo.TransitionWithEvent(ctx, repository.TransitionParams{
		ID:              requestID,
		From:            domain.StatusPendingConfirmation,
		To:              domain.StatusRejected,
		ReviewedAt:      now,
		ReviewedBy:      adminID,
		RejectionReason: &reason,
		Event: repository.NewLifecycleEvent(requestID, domain.EventRejected, adminID, map[string]any{
			"admin_id": adminID,
			"reason":   reason,
		}),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to reject booking request", err)
	}
	if !won {
		return nil, s.reviewConflict(ctx, requestID)
	}

	record, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if s.payments != nil && record.PaymentMethodToken != nil {
		s.voidPayment(ctx, requestID, *record.PaymentMethodToken)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.BookingRejected{
			BaseEvent:     events.NewBaseEvent(),
			BookingID:     record.ID,
			CustomerName:  record.CustomerName,
			CustomerEmail: record.CustomerEmail,
			Reason:        reason,
			ReviewedBy:    adminID,
			AutoRejected:  false,
		})
	}

	resp := transport.FromBookingRequest(record)
	return &resp, nil
}

// GetDetail returns one booking request with its full audit trail.
func (s *Service) GetDetail(ctx context.Context, requestID uuid.UUID) (*transport.BookingDetailResponse, error) {
	record, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	auditTrail, err := s.eventLog.ListByBooking(ctx, requestID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load audit trail", err)
	}

	return &transport.BookingDetailResponse{
		Booking: transport.FromBookingRequest(record),
		Events:  transport.FromLifecycleEvents(auditTrail),
	}, nil
}

// List returns booking requests for the admin review queue.
func (s *Service) List(ctx context.Context, status *domain.Status, limit, offset int) ([]transport.BookingResponse, error) {
	records, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list booking requests", err)
	}

	result := make([]transport.BookingResponse, 0, len(records))
	for i := range records {
		result = append(result, transport.FromBookingRequest(&records[i]))
	}
	return result, nil
}

// reviewConflict distinguishes "never existed" from "already reviewed" after
// a transition affected zero rows.
func (s *Service) reviewConflict(ctx context.Context, requestID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, requestID); err != nil {
		return err
	}
	return apperr.Conflict(msgAlreadyReviewed)
}

func (s *Service) capturePayment(ctx context.Context, requestID uuid.UUID, token string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), collaboratorTimeout)
	defer cancel()
	if err := s.payments.Capture(callCtx, token); err != nil {
		s.log.Warn("payment capture failed", "booking_request_id", requestID.String(), "error", err)
	}
}

func (s *Service) voidPayment(ctx context.Context, requestID uuid.UUID, token string) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), collaboratorTimeout)
	defer cancel()
	if err := s.payments.Void(callCtx, token); err != nil {
		s.log.Warn("payment void failed", "booking_request_id", requestID.String(), "error", err)
	}
}
