// Package shifts provides the staff shift domain module. It exists alongside
// booking mainly for its duplicate-active-record shape: at most one active
// shift per staff member, healed by the shared conflict resolver.
package shifts

import (
	apphttp "tourbooking_backend/internal/http"
	"tourbooking_backend/internal/shifts/handler"
	"tourbooking_backend/internal/shifts/repository"
	"tourbooking_backend/internal/shifts/service"
	"tourbooking_backend/platform/conflict"
	"tourbooking_backend/platform/logger"
	"tourbooking_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the shifts domain module.
type Module struct {
	handler *handler.Handler
	healer  *conflict.Healer
}

// NewModule creates a new shifts module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	healer := conflict.NewHealer("shifts", repo, log)
	svc := service.New(repo, healer, log)
	h := handler.New(svc, val)

	return &Module{handler: h, healer: healer}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "shifts"
}

// RegisterRoutes registers the module's routes. Shifts are staff
// operations, so they live under the authenticated group rather than the
// admin one.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	shifts := ctx.Protected.Group("/shifts")
	m.handler.RegisterRoutes(shifts)
}

// Healer exposes the duplicate-shift healer for the scheduled sweep.
func (m *Module) Healer() *conflict.Healer {
	return m.healer
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
