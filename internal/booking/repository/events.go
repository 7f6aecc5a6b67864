package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tourbooking_backend/internal/booking/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LifecycleEvent is one immutable audit record. The table carries a
// uniqueness guard on (booking_request_id, event_type), so inserting an
// event is also the idempotency check for the action it records.
type LifecycleEvent struct {
	ID               uuid.UUID        `db:"id"`
	BookingRequestID uuid.UUID        `db:"booking_request_id"`
	EventType        domain.EventType `db:"event_type"`
	Payload          json.RawMessage  `db:"payload"`
	CreatedAt        time.Time        `db:"created_at"`
	CreatedBy        string           `db:"created_by"`
}

// NewLifecycleEvent builds an event with a fresh ID and marshaled payload.
// A nil payload is stored as an empty JSON object.
func NewLifecycleEvent(bookingID uuid.UUID, eventType domain.EventType, createdBy string, payload map[string]any) LifecycleEvent {
	raw := json.RawMessage(`{}`)
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			raw = data
		}
	}
	return LifecycleEvent{
		ID:               uuid.New(),
		BookingRequestID: bookingID,
		EventType:        eventType,
		Payload:          raw,
		CreatedAt:        time.Now().UTC(),
		CreatedBy:        createdBy,
	}
}

// EventStore provides append-only access to the lifecycle audit log.
// It is deliberately separate from the current-state Repository: the two
// structures back different guarantees (idempotency checks vs. state races).
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new lifecycle event store.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// InsertOnce appends the event unless the same (booking, event type) pair
// already exists. Returns false when the event was already recorded, which
// callers treat as "another actor fired this action first".
func (s *EventStore) InsertOnce(ctx context.Context, event LifecycleEvent) (bool, error) {
	result, err := s.pool.Exec(ctx, insertEventSQL,
		event.ID, event.BookingRequestID, string(event.EventType),
		event.Payload, event.CreatedAt, event.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert lifecycle event: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListFiredTypes returns the set of event types already recorded for a booking.
func (s *EventStore) ListFiredTypes(ctx context.Context, bookingID uuid.UUID) (map[domain.EventType]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_type FROM booking_lifecycle_events WHERE booking_request_id = $1`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fired event types: %w", err)
	}
	defer rows.Close()

	fired := make(map[domain.EventType]bool)
	for rows.Next() {
		var eventType string
		if err := rows.Scan(&eventType); err != nil {
			return nil, err
		}
		fired[domain.EventType(eventType)] = true
	}
	return fired, rows.Err()
}

// ListByBooking returns the full audit trail for one booking, oldest first.
func (s *EventStore) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]LifecycleEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, booking_request_id, event_type, payload, created_at, created_by
		FROM booking_lifecycle_events
		WHERE booking_request_id = $1
		ORDER BY created_at ASC, id ASC`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lifecycle events: %w", err)
	}
	defer rows.Close()

	var events []LifecycleEvent
	for rows.Next() {
		var ev LifecycleEvent
		var eventType string
		if err := rows.Scan(&ev.ID, &ev.BookingRequestID, &eventType, &ev.Payload, &ev.CreatedAt, &ev.CreatedBy); err != nil {
			return nil, err
		}
		ev.EventType = domain.EventType(eventType)
		events = append(events, ev)
	}
	return events, rows.Err()
}

const insertEventSQL = `
	INSERT INTO booking_lifecycle_events (id, booking_request_id, event_type, payload, created_at, created_by)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (booking_request_id, event_type) DO NOTHING`

// insertEventTx appends an event inside an open transaction, shared by the
// Repository's guarded transition helpers.
func insertEventTx(ctx context.Context, tx pgx.Tx, event LifecycleEvent) (bool, error) {
	result, err := tx.Exec(ctx, insertEventSQL,
		event.ID, event.BookingRequestID, string(event.EventType),
		event.Payload, event.CreatedAt, event.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert lifecycle event: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
