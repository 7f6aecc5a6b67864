// Package handler exposes booking requests over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"tourbooking_backend/internal/booking/domain"
	"tourbooking_backend/internal/booking/reconciler"
	"tourbooking_backend/internal/booking/service"
	"tourbooking_backend/internal/booking/transport"
	"tourbooking_backend/platform/httpkit"
	"tourbooking_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid booking request id"
	msgInvalidStatus    = "invalid status filter"
)

// Handler handles HTTP requests for booking requests.
type Handler struct {
	svc  *service.Service
	proc *reconciler.Processor
	val  *validator.Validator
}

// New creates a new booking handler.
func New(svc *service.Service, proc *reconciler.Processor, val *validator.Validator) *Handler {
	return &Handler{svc: svc, proc: proc, val: val}
}

// RegisterPublicRoutes registers the customer-facing routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
}

// RegisterAdminRoutes registers the review-queue routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/reject", h.Reject)
	rg.POST("/reconcile", h.Reconcile)
}

// Submit handles POST /api/v1/booking-requests
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// List handles GET /api/v1/admin/booking-requests
func (h *Handler) List(c *gin.Context) {
	var status *domain.Status
	if raw := c.Query("status"); raw != "" {
		parsed := domain.Status(raw)
		switch parsed {
		case domain.StatusPendingConfirmation, domain.StatusConfirmed, domain.StatusRejected:
			status = &parsed
		default:
			httpkit.Error(c, http.StatusBadRequest, msgInvalidStatus, raw)
			return
		}
	}

	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	result, err := h.svc.List(c.Request.Context(), status, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetByID handles GET /api/v1/admin/booking-requests/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetDetail(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Approve handles POST /api/v1/admin/booking-requests/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Approve(c.Request.Context(), id, identity.AdminID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Reject handles POST /api/v1/admin/booking-requests/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Reject(c.Request.Context(), id, identity.AdminID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Reconcile handles POST /api/v1/admin/booking-requests/reconcile
// It runs one escalation pass immediately instead of waiting for the
// scheduler, mainly for operational use.
func (h *Handler) Reconcile(c *gin.Context) {
	summaries, err := h.proc.ProcessAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, summaries)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
