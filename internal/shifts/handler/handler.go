// Package handler exposes staff shifts over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"tourbooking_backend/internal/shifts/service"
	"tourbooking_backend/internal/shifts/transport"
	"tourbooking_backend/platform/httpkit"
	"tourbooking_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for shifts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new shift handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the shift routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Start)
	rg.POST("/:id/end", h.End)
	rg.GET("/staff/:staffId", h.ListByStaff)
}

// Start handles POST /api/v1/shifts
func (h *Handler) Start(c *gin.Context) {
	var req transport.StartShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Start(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// End handles POST /api/v1/shifts/:id/end
func (h *Handler) End(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.End(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListByStaff handles GET /api/v1/shifts/staff/:staffId
func (h *Handler) ListByStaff(c *gin.Context) {
	staffID, err := uuid.Parse(c.Param("staffId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := h.svc.ListByStaff(c.Request.Context(), staffID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
