package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tourbooking_backend/internal/booking/domain"
	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/conflict"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRequest represents the booking request database model.
// This is the mutable current-state record; the append-only audit trail
// lives in booking_lifecycle_events (see EventStore).
type BookingRequest struct {
	ID                 uuid.UUID     `db:"id"`
	CustomerName       string        `db:"customer_name"`
	CustomerEmail      string        `db:"customer_email"`
	CustomerPhone      string        `db:"customer_phone"`
	TourID             uuid.UUID     `db:"tour_id"`
	RequestedAt        time.Time     `db:"requested_at"`
	Adults             int           `db:"adults"`
	Children           int           `db:"children"`
	PaymentMethodToken *string       `db:"payment_method_token"`
	Status             domain.Status `db:"status"`
	SubmittedAt        time.Time     `db:"submitted_at"`
	ReviewedAt         *time.Time    `db:"reviewed_at"`
	ReviewedBy         *string       `db:"reviewed_by"`
	RejectionReason    *string       `db:"rejection_reason"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// ResourceKey identifies the slot a request competes for: the same customer
// asking for the same tour at the same time. Duplicate active requests for
// one key are structurally invalid and get healed.
func (b *BookingRequest) ResourceKey() string {
	return fmt.Sprintf("%s|%s|%d", strings.ToLower(b.CustomerEmail), b.TourID, b.RequestedAt.UTC().Unix())
}

// TransitionParams describes one guarded terminal transition plus the audit
// event recorded with it in the same transaction.
type TransitionParams struct {
	ID              uuid.UUID
	From            domain.Status
	To              domain.Status
	ReviewedAt      time.Time
	ReviewedBy      string
	RejectionReason *string
	Event           LifecycleEvent
}

const bookingColumns = `id, customer_name, customer_email, customer_phone, tour_id, requested_at,
		adults, children, payment_method_token, status, submitted_at, reviewed_at, reviewed_by,
		rejection_reason, created_at, updated_at`

const bookingNotFoundMsg = "booking request not found"

// Repository provides database operations for booking requests.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new booking request repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new booking request.
func (r *Repository) Create(ctx context.Context, req *BookingRequest) error {
	query := `
		INSERT INTO booking_requests (
			id, customer_name, customer_email, customer_phone, tour_id, requested_at,
			adults, children, payment_method_token, status, submitted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.CustomerName, req.CustomerEmail, req.CustomerPhone, req.TourID,
		req.RequestedAt, req.Adults, req.Children, req.PaymentMethodToken,
		string(req.Status), req.SubmittedAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}

	return nil
}

// GetByID retrieves a booking request by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*BookingRequest, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_requests WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	req, err := scanBookingRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(bookingNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}

	return req, nil
}

// List returns booking requests, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status *domain.Status, limit, offset int) ([]BookingRequest, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + bookingColumns + ` FROM booking_requests`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY submitted_at DESC LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking requests: %w", err)
	}
	defer rows.Close()

	return scanBookingRequests(rows)
}

// ListDueForReconciliation returns the requests a reconciliation pass must
// look at: still pending, or terminal with the payment token not yet cleared.
func (r *Repository) ListDueForReconciliation(ctx context.Context, limit int) ([]BookingRequest, error) {
	if limit < 1 {
		limit = 500
	}

	query := `SELECT ` + bookingColumns + ` FROM booking_requests
		WHERE status = $1 OR (status <> $1 AND payment_method_token IS NOT NULL)
		ORDER BY submitted_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, string(domain.StatusPendingConfirmation), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation candidates: %w", err)
	}
	defer rows.Close()

	return scanBookingRequests(rows)
}

// TransitionWithEvent performs one guarded terminal transition and records
// its audit event in the same transaction. The conditional UPDATE's affected
// row count decides the race: zero rows means another actor already
// transitioned the request, and false is returned without error.
func (r *Repository) TransitionWithEvent(ctx context.Context, p TransitionParams) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `
		UPDATE booking_requests
		SET status = $3, reviewed_at = $4, reviewed_by = $5, rejection_reason = $6, updated_at = $4
		WHERE id = $1 AND status = $2`,
		p.ID, string(p.From), string(p.To), p.ReviewedAt, p.ReviewedBy, p.RejectionReason,
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition booking request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := insertEventTx(ctx, tx, p.Event); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transition: %w", err)
	}

	return true, nil
}

// ClearPaymentTokenWithEvent clears the stored payment method token exactly
// once and records the cleanup event in the same transaction. The guard on
// the token column makes concurrent cleanup passes collapse to one winner.
func (r *Repository) ClearPaymentTokenWithEvent(ctx context.Context, id uuid.UUID, event LifecycleEvent) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin cleanup: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx, `
		UPDATE booking_requests
		SET payment_method_token = NULL, updated_at = now()
		WHERE id = $1 AND payment_method_token IS NOT NULL AND status <> $2`,
		id, string(domain.StatusPendingConfirmation),
	)
	if err != nil {
		return false, fmt.Errorf("failed to clear payment token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := insertEventTx(ctx, tx, event); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	return true, nil
}

// =============================================================================
// conflict.Store implementation
// =============================================================================

// ListActive returns the active (pending) requests competing for one resource key.
func (r *Repository) ListActive(ctx context.Context, resourceKey string) ([]conflict.Candidate, error) {
	email, tourID, requestedAt, err := parseResourceKey(resourceKey)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at FROM booking_requests
		WHERE lower(customer_email) = $1 AND tour_id = $2 AND requested_at = $3 AND status = $4`,
		email, tourID, requestedAt, string(domain.StatusPendingConfirmation),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active duplicates: %w", err)
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

// ListConflictedKeys returns resource keys with more than one pending request.
func (r *Repository) ListConflictedKeys(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lower(customer_email), tour_id, requested_at
		FROM booking_requests
		WHERE status = $1
		GROUP BY lower(customer_email), tour_id, requested_at
		HAVING count(*) > 1`,
		string(domain.StatusPendingConfirmation),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicted keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var email string
		var tourID uuid.UUID
		var requestedAt time.Time
		if err := rows.Scan(&email, &tourID, &requestedAt); err != nil {
			return nil, err
		}
		keys = append(keys, fmt.Sprintf("%s|%s|%d", email, tourID, requestedAt.UTC().Unix()))
	}
	return keys, rows.Err()
}

// CloseDuplicates terminates duplicate pending requests named by the
// resolution. Each close is its own guarded transition, so a duplicate that
// an admin reviewed in the meantime is silently left alone.
func (r *Repository) CloseDuplicates(ctx context.Context, res conflict.Resolution) (int, error) {
	closed := 0
	for _, id := range res.CloseIDs {
		reason := res.Annotation
		won, err := r.TransitionWithEvent(ctx, TransitionParams{
			ID:              id,
			From:            domain.StatusPendingConfirmation,
			To:              domain.StatusRejected,
			ReviewedAt:      res.ClosedAt,
			ReviewedBy:      domain.SystemActor,
			RejectionReason: &reason,
			Event: NewLifecycleEvent(id, domain.EventDuplicateResolved, domain.SystemActor, map[string]any{
				"resource_key": res.ResourceKey,
				"kept_id":      res.KeepID.String(),
				"annotation":   res.Annotation,
			}),
		})
		if err != nil {
			return closed, err
		}
		if won {
			closed++
		}
	}
	return closed, nil
}

func parseResourceKey(key string) (string, uuid.UUID, time.Time, error) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 {
		return "", uuid.Nil, time.Time{}, fmt.Errorf("malformed resource key: %q", key)
	}
	tourID, err := uuid.Parse(parts[1])
	if err != nil {
		return "", uuid.Nil, time.Time{}, fmt.Errorf("malformed resource key tour id: %q", key)
	}
	unix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", uuid.Nil, time.Time{}, fmt.Errorf("malformed resource key timestamp: %q", key)
	}
	return parts[0], tourID, time.Unix(unix, 0).UTC(), nil
}

// =============================================================================
// Scanning helpers
// =============================================================================

func scanBookingRequest(row pgx.Row) (*BookingRequest, error) {
	var req BookingRequest
	var status string
	err := row.Scan(
		&req.ID, &req.CustomerName, &req.CustomerEmail, &req.CustomerPhone, &req.TourID,
		&req.RequestedAt, &req.Adults, &req.Children, &req.PaymentMethodToken, &status,
		&req.SubmittedAt, &req.ReviewedAt, &req.ReviewedBy, &req.RejectionReason,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = domain.Status(status)
	return &req, nil
}

func scanBookingRequests(rows pgx.Rows) ([]BookingRequest, error) {
	var results []BookingRequest
	for rows.Next() {
		req, err := scanBookingRequest(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *req)
	}
	return results, rows.Err()
}
