// Package booking provides the booking request domain module: customer
// submission, the admin review queue, and the time-driven escalation pass.
package booking

import (
	"tourbooking_backend/internal/booking/handler"
	"tourbooking_backend/internal/booking/policy"
	"tourbooking_backend/internal/booking/reconciler"
	"tourbooking_backend/internal/booking/repository"
	"tourbooking_backend/internal/booking/service"
	"tourbooking_backend/internal/events"
	apphttp "tourbooking_backend/internal/http"
	"tourbooking_backend/platform/conflict"
	"tourbooking_backend/platform/logger"
	"tourbooking_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the booking domain module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	processor  *reconciler.Processor
	healer     *conflict.Healer
	repository *repository.Repository
}

// NewModule creates a new booking module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, payments service.PaymentGateway, bus events.Bus, thresholds policy.Thresholds, log *logger.Logger) *Module {
	repo := repository.New(pool)
	eventStore := repository.NewEventStore(pool)
	healer := conflict.NewHealer("booking-requests", repo, log)

	svc := service.New(repo, eventStore, payments, healer, bus, log)
	proc := reconciler.New(repo, eventStore, payments, bus, thresholds, log)
	h := handler.New(svc, proc, val)

	return &Module{
		handler:    h,
		service:    svc,
		processor:  proc,
		healer:     healer,
		repository: repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "booking"
}

// RegisterRoutes registers the module's routes. Submission is public but
// behind the stricter rate limiter; everything else requires the admin role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/booking-requests")
	public.Use(ctx.SubmissionRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	admin := ctx.Admin.Group("/booking-requests")
	m.handler.RegisterAdminRoutes(admin)
}

// Processor exposes the reconciliation processor for the scheduler worker.
func (m *Module) Processor() *reconciler.Processor {
	return m.processor
}

// Healer exposes the duplicate-request healer for the scheduled sweep.
func (m *Module) Healer() *conflict.Healer {
	return m.healer
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
