// Package service provides business logic for staff shifts.
package service

import (
	"context"
	"time"

	"tourbooking_backend/internal/shifts/repository"
	"tourbooking_backend/internal/shifts/transport"
	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/logger"

	"github.com/google/uuid"
)

const msgShiftAlreadyEnded = "shift already ended"

// ShiftStore is the persistence surface the service needs.
type ShiftStore interface {
	Create(ctx context.Context, shift *repository.ShiftRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.ShiftRecord, error)
	ListByStaff(ctx context.Context, staffID uuid.UUID, limit int) ([]repository.ShiftRecord, error)
	End(ctx context.Context, id uuid.UUID, endedAt time.Time, note *string) (bool, error)
}

// DuplicateHealer resolves duplicate active shifts for one staff member.
type DuplicateHealer interface {
	Heal(ctx context.Context, resourceKey string) (int, error)
}

// Service provides shift operations. Starting a shift does not take a lock
// on the staff member; instead the healer closes any duplicate actives right
// after the insert, keeping the earliest-started shift.
type Service struct {
	repo   ShiftStore
	healer DuplicateHealer
	log    *logger.Logger
	now    func() time.Time
}

// New creates a new shift service.
func New(repo ShiftStore, healer DuplicateHealer, log *logger.Logger) *Service {
	return &Service{repo: repo, healer: healer, log: log, now: time.Now}
}

// Start opens a new active shift for a staff member.
func (s *Service) Start(ctx context.Context, req transport.StartShiftRequest) (*transport.ShiftResponse, error) {
	now := s.now().UTC()
	shift := &repository.ShiftRecord{
		ID:        uuid.New(),
		StaffID:   req.StaffID,
		TourID:    req.TourID,
		StartedAt: now,
		Status:    repository.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, shift); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to start shift", err)
	}

	if s.healer != nil {
		if _, err := s.healer.Heal(ctx, shift.StaffID.String()); err != nil {
			s.log.Warn("duplicate shift heal failed", "staff_id", shift.StaffID.String(), "error", err)
		}
	}

	// The healer may have closed this very shift if an earlier one was still
	// active, so return the fresh state.
	final, err := s.repo.GetByID(ctx, shift.ID)
	if err != nil {
		return nil, err
	}

	resp := transport.FromShiftRecord(final)
	return &resp, nil
}

// End closes an active shift.
func (s *Service) End(ctx context.Context, shiftID uuid.UUID) (*transport.ShiftResponse, error) {
	won, err := s.repo.End(ctx, shiftID, s.now().UTC(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to end shift", err)
	}
	if !won {
		if _, err := s.repo.GetByID(ctx, shiftID); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict(msgShiftAlreadyEnded)
	}

	final, err := s.repo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	resp := transport.FromShiftRecord(final)
	return &resp, nil
}

// ListByStaff returns a staff member's shifts.
func (s *Service) ListByStaff(ctx context.Context, staffID uuid.UUID, limit int) ([]transport.ShiftResponse, error) {
	records, err := s.repo.ListByStaff(ctx, staffID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list shifts", err)
	}

	result := make([]transport.ShiftResponse, 0, len(records))
	for i := range records {
		result = append(result, transport.FromShiftRecord(&records[i]))
	}
	return result, nil
}
