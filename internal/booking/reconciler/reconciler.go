// Package reconciler implements the periodic escalation pass over booking
// requests. Each run reads the candidates, asks the policy which escalation
// steps are due, and applies each step through a guarded write. Durable state
// is the only coordination between runs: overlapping passes, crashed passes,
// and admin actions all race safely through the same conditional updates and
// the per-request event-type uniqueness guard.
package reconciler

import (
	"context"
	"sort"
	"sync"
	"time"

	"tourbooking_backend/internal/booking/domain"
	"tourbooking_backend/internal/booking/policy"
	"tourbooking_backend/internal/booking/repository"
	"tourbooking_backend/internal/events"
	"tourbooking_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchLimit  = 500
	defaultParallelism = 8

	// paymentVoidTimeout bounds the gateway call made after an auto-reject so
	// a slow provider cannot stall the rest of the pass.
	paymentVoidTimeout = 10 * time.Second
)

// RequestStore is the persistence surface one reconciliation pass needs.
type RequestStore interface {
	ListDueForReconciliation(ctx context.Context, limit int) ([]repository.BookingRequest, error)
	TransitionWithEvent(ctx context.Context, p repository.TransitionParams) (bool, error)
	ClearPaymentTokenWithEvent(ctx context.Context, id uuid.UUID, event repository.LifecycleEvent) (bool, error)
}

// EventStore is the audit log surface one reconciliation pass needs.
type EventStore interface {
	InsertOnce(ctx context.Context, event repository.LifecycleEvent) (bool, error)
	ListFiredTypes(ctx context.Context, bookingID uuid.UUID) (map[domain.EventType]bool, error)
}

// PaymentGateway voids a stored payment method after an auto-reject.
type PaymentGateway interface {
	Void(ctx context.Context, token string) error
}

// ActionSummary reports one escalation action type over a whole pass.
type ActionSummary struct {
	ActionType     domain.EventType `json:"actionType"`
	ProcessedCount int              `json:"processedCount"`
	Details        []string         `json:"details"`
}

// Processor runs reconciliation passes. It holds no in-memory escalation
// state; every decision is recomputed from the database each pass.
type Processor struct {
	requests   RequestStore
	events     EventStore
	payments   PaymentGateway
	bus        events.Bus
	thresholds policy.Thresholds
	log        *logger.Logger

	now         func() time.Time
	batchLimit  int
	parallelism int
}

// New creates a reconciliation processor with default batch settings.
func New(requests RequestStore, eventLog EventStore, payments PaymentGateway, bus events.Bus, thresholds policy.Thresholds, log *logger.Logger) *Processor {
	return &Processor{
		requests:    requests,
		events:      eventLog,
		payments:    payments,
		bus:         bus,
		thresholds:  thresholds,
		log:         log,
		now:         time.Now,
		batchLimit:  defaultBatchLimit,
		parallelism: defaultParallelism,
	}
}

// ProcessAll runs one reconciliation pass and reports what it did, one
// summary per escalation action type in threshold order. A failure on one
// request is logged and skipped; it never aborts the rest of the batch.
// Invalid thresholds abort the whole run: silently never escalating is worse
// than a loud failure.
func (p *Processor) ProcessAll(ctx context.Context) ([]ActionSummary, error) {
	if err := p.thresholds.Validate(); err != nil {
		return nil, err
	}

	candidates, err := p.requests.ListDueForReconciliation(ctx, p.batchLimit)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	collector := newSummaryCollector()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i := range candidates {
		req := candidates[i]
		g.Go(func() error {
			p.processOne(gctx, &req, now, collector)
			return nil
		})
	}
	_ = g.Wait()

	summaries := collector.summaries()
	for _, s := range summaries {
		if s.ProcessedCount > 0 {
			p.log.Info("escalation actions applied",
				"action_type", string(s.ActionType), "count", s.ProcessedCount)
		}
	}
	return summaries, nil
}

// processOne applies every due escalation step to a single request.
// Steps fire oldest threshold first so a catch-up pass after an outage
// produces the same audit trail as on-time passes would have.
func (p *Processor) processOne(ctx context.Context, req *repository.BookingRequest, now time.Time, collector *summaryCollector) {
	fired, err := p.events.ListFiredTypes(ctx, req.ID)
	if err != nil {
		p.log.Warn("skipping request in reconciliation pass",
			"booking_request_id", req.ID.String(), "error", err)
		return
	}

	actions := policy.Decide(p.thresholds, req.SubmittedAt, req.ReviewedAt, now, fired)
	for _, action := range actions {
		applied, err := p.apply(ctx, req, action, now)
		if err != nil {
			p.log.Warn("escalation action failed",
				"booking_request_id", req.ID.String(),
				"action_type", string(action.Type), "error", err)
			return
		}
		if !applied {
			// Another actor got there first; the state under our feet has
			// changed, so stop and let the next pass re-evaluate.
			return
		}
		collector.record(action.Type, req.ID)
		p.log.EscalationAction(string(action.Type), req.ID.String())
	}
}

func (p *Processor) apply(ctx context.Context, req *repository.BookingRequest, action policy.Action, now time.Time) (bool, error) {
	switch action.Type {
	case domain.EventAdminReminderSent:
		return p.fireAdminReminder(ctx, req, action)
	case domain.EventCustomerDelayNotified:
		return p.fireCustomerDelayNotice(ctx, req, action)
	case domain.EventAutoRejected:
		return p.autoReject(ctx, req, action, now)
	case domain.EventPaymentMethodCleaned:
		return p.cleanPaymentMethod(ctx, req, action)
	default:
		p.log.Error("unknown escalation action type", "action_type", string(action.Type))
		return false, nil
	}
}

func (p *Processor) fireAdminReminder(ctx context.Context, req *repository.BookingRequest, action policy.Action) (bool, error) {
	inserted, err := p.events.InsertOnce(ctx, repository.NewLifecycleEvent(
		req.ID, domain.EventAdminReminderSent, domain.SystemActor, map[string]any{
			"due_at": action.DueAt,
		},
	))
	if err != nil || !inserted {
		return inserted, err
	}

	if p.bus != nil {
		p.bus.Publish(ctx, events.AdminReminderDue{
			BaseEvent:    events.NewBaseEvent(),
			BookingID:    req.ID,
			CustomerName: req.CustomerName,
			SubmittedAt:  req.SubmittedAt,
		})
	}
	return true, nil
}

func (p *Processor) fireCustomerDelayNotice(ctx context.Context, req *repository.BookingRequest, action policy.Action) (bool, error) {
	inserted, err := p.events.InsertOnce(ctx, repository.NewLifecycleEvent(
		req.ID, domain.EventCustomerDelayNotified, domain.SystemActor, map[string]any{
			"due_at": action.DueAt,
		},
	))
	if err != nil || !inserted {
		return inserted, err
	}

	if p.bus != nil {
		p.bus.Publish(ctx, events.CustomerDelayNoticeDue{
			BaseEvent:     events.NewBaseEvent(),
			BookingID:     req.ID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			SubmittedAt:   req.SubmittedAt,
		})
	}
	return true, nil
}

// autoReject moves an unreviewed request to rejected. The conditional
// transition is the whole race protocol: if an admin approves concurrently,
// exactly one side wins and the loser backs off without error.
func (p *Processor) autoReject(ctx context.Context, req *repository.BookingRequest, action policy.Action, now time.Time) (bool, error) {
	reason := domain.AutoRejectReason
	won, err := p.requests.TransitionWithEvent(ctx, repository.TransitionParams{
		ID:              req.ID,
		From:            domain.StatusPendingConfirmation,
		To:              domain.StatusRejected,
		ReviewedAt:      now,
		ReviewedBy:      domain.SystemActor,
		RejectionReason: &reason,
		Event: repository.NewLifecycleEvent(req.ID, domain.EventAutoRejected, domain.SystemActor, map[string]any{
			"due_at": action.DueAt,
			"reason": reason,
		}),
	})
	if err != nil || !won {
		return won, err
	}

	if p.payments != nil && req.PaymentMethodToken != nil {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), paymentVoidTimeout)
		if voidErr := p.payments.Void(callCtx, *req.PaymentMethodToken); voidErr != nil {
			p.log.Warn("payment void after auto-reject failed",
				"booking_request_id", req.ID.String(), "error", voidErr)
		}
		cancel()
	}

	if p.bus != nil {
		p.bus.Publish(ctx, events.BookingRejected{
			BaseEvent:     events.NewBaseEvent(),
			BookingID:     req.ID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			Reason:        reason,
			ReviewedBy:    domain.SystemActor,
			AutoRejected:  true,
		})
	}
	return true, nil
}

func (p *Processor) cleanPaymentMethod(ctx context.Context, req *repository.BookingRequest, action policy.Action) (bool, error) {
	return p.requests.ClearPaymentTokenWithEvent(ctx, req.ID, repository.NewLifecycleEvent(
		req.ID, domain.EventPaymentMethodCleaned, domain.SystemActor, map[string]any{
			"due_at": action.DueAt,
		},
	))
}

// summaryOrder fixes the report order so every pass returns the four action
// types in threshold order regardless of which requests fired what.
var summaryOrder = []domain.EventType{
	domain.EventAdminReminderSent,
	domain.EventCustomerDelayNotified,
	domain.EventAutoRejected,
	domain.EventPaymentMethodCleaned,
}

type summaryCollector struct {
	mu  sync.Mutex
	ids map[domain.EventType][]uuid.UUID
}

func newSummaryCollector() *summaryCollector {
	return &summaryCollector{ids: make(map[domain.EventType][]uuid.UUID)}
}

func (c *summaryCollector) record(actionType domain.EventType, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[actionType] = append(c.ids[actionType], id)
}

func (c *summaryCollector) summaries() []ActionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]ActionSummary, 0, len(summaryOrder))
	for _, actionType := range summaryOrder {
		ids := c.ids[actionType]
		details := make([]string, 0, len(ids))
		for _, id := range ids {
			details = append(details, id.String())
		}
		sort.Strings(details)
		result = append(result, ActionSummary{
			ActionType:     actionType,
			ProcessedCount: len(ids),
			Details:        details,
		})
	}
	return result
}
