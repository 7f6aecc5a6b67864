// Package transport defines the HTTP request/response shapes for shifts.
package transport

import (
	"time"

	"tourbooking_backend/internal/shifts/repository"

	"github.com/google/uuid"
)

// StartShiftRequest opens an active shift for a staff member.
type StartShiftRequest struct {
	StaffID uuid.UUID  `json:"staffId" validate:"required"`
	TourID  *uuid.UUID `json:"tourId"`
}

// ShiftResponse is the API view of a shift record.
type ShiftResponse struct {
	ID        uuid.UUID  `json:"id"`
	StaffID   uuid.UUID  `json:"staffId"`
	TourID    *uuid.UUID `json:"tourId,omitempty"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Status    string     `json:"status"`
	CloseNote *string    `json:"closeNote,omitempty"`
}

// FromShiftRecord maps the database model to its API view.
func FromShiftRecord(shift *repository.ShiftRecord) ShiftResponse {
	return ShiftResponse{
		ID:        shift.ID,
		StaffID:   shift.StaffID,
		TourID:    shift.TourID,
		StartedAt: shift.StartedAt,
		EndedAt:   shift.EndedAt,
		Status:    shift.Status,
		CloseNote: shift.CloseNote,
	}
}
