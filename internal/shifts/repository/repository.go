// Package repository persists staff shift records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/conflict"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Status values for a shift record. A shift is active until it is ended by
// the staff member or closed by the duplicate healer.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// ShiftRecord represents one staff shift.
type ShiftRecord struct {
	ID        uuid.UUID  `db:"id"`
	StaffID   uuid.UUID  `db:"staff_id"`
	TourID    *uuid.UUID `db:"tour_id"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
	Status    string     `db:"status"`
	CloseNote *string    `db:"close_note"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

const shiftColumns = `id, staff_id, tour_id, started_at, ended_at, status, close_note, created_at, updated_at`

const shiftNotFoundMsg = "shift not found"

// Repository provides database operations for shift records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new shift repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new active shift.
func (r *Repository) Create(ctx context.Context, shift *ShiftRecord) error {
	query := `
		INSERT INTO shift_records (id, staff_id, tour_id, started_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		shift.ID, shift.StaffID, shift.TourID, shift.StartedAt, shift.Status,
		shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

// GetByID retrieves a shift by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ShiftRecord, error) {
	query := `SELECT ` + shiftColumns + ` FROM shift_records WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(shiftNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return shift, nil
}

// ListByStaff returns a staff member's shifts, newest first.
func (r *Repository) ListByStaff(ctx context.Context, staffID uuid.UUID, limit int) ([]ShiftRecord, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + shiftColumns + ` FROM shift_records
		WHERE staff_id = $1 ORDER BY started_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, staffID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	return scanShifts(rows)
}

// End closes an active shift. The guard on status makes concurrent end
// requests and healer closes collapse to one winner.
func (r *Repository) End(ctx context.Context, id uuid.UUID, endedAt time.Time, note *string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE shift_records
		SET status = $2, ended_at = $3, close_note = $4, updated_at = $3
		WHERE id = $1 AND status = $5`,
		id, StatusClosed, endedAt, note, StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("failed to end shift: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// =============================================================================
// conflict.Store implementation; the resource key is the staff ID.
// =============================================================================

// ListActive returns a staff member's currently active shifts.
func (r *Repository) ListActive(ctx context.Context, resourceKey string) ([]conflict.Candidate, error) {
	staffID, err := uuid.Parse(resourceKey)
	if err != nil {
		return nil, fmt.Errorf("malformed shift resource key: %q", resourceKey)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at FROM shift_records
		WHERE staff_id = $1 AND status = $2`,
		staffID, StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shifts: %w", err)
	}
	defer rows.Close()

	var candidates []conflict.Candidate
	for rows.Next() {
		var c conflict.Candidate
		if err := rows.Scan(&c.ID, &c.CreatedAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ListConflictedKeys returns staff IDs with more than one active shift.
func (r *Repository) ListConflictedKeys(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT staff_id FROM shift_records
		WHERE status = $1
		GROUP BY staff_id
		HAVING count(*) > 1`,
		StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicted staff: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var staffID uuid.UUID
		if err := rows.Scan(&staffID); err != nil {
			return nil, err
		}
		keys = append(keys, staffID.String())
	}
	return keys, rows.Err()
}

// CloseDuplicates ends the duplicate active shifts named by the resolution.
func (r *Repository) CloseDuplicates(ctx context.Context, res conflict.Resolution) (int, error) {
	closed := 0
	for _, id := range res.CloseIDs {
		note := res.Annotation
		won, err := r.End(ctx, id, res.ClosedAt, &note)
		if err != nil {
			return closed, err
		}
		if won {
			closed++
		}
	}
	return closed, nil
}

func scanShift(row pgx.Row) (*ShiftRecord, error) {
	var shift ShiftRecord
	err := row.Scan(
		&shift.ID, &shift.StaffID, &shift.TourID, &shift.StartedAt, &shift.EndedAt,
		&shift.Status, &shift.CloseNote, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func scanShifts(rows pgx.Rows) ([]ShiftRecord, error) {
	var results []ShiftRecord
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *shift)
	}
	return results, rows.Err()
}
