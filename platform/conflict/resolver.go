// Package conflict provides a reusable healer for "at most one active record
// per resource key" invariants. The same shape recurs for duplicate active
// booking requests and duplicate active shift records, so the policy lives
// here once: keep the earliest-created record as canonical and terminate the
// rest with a synthetic terminal timestamp and an auto-resolved annotation.
// This is part of the platform layer and contains no business logic.
package conflict

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tourbooking_backend/platform/logger"

	"github.com/google/uuid"
)

// Annotation marks records that were terminated by the healer rather than
// by a human or a domain transition.
const Annotation = "auto-resolved duplicate"

// Candidate is one active record within a resource-key group.
type Candidate struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// Resolution names the canonical record and the duplicates to terminate.
type Resolution struct {
	ResourceKey string
	KeepID      uuid.UUID
	CloseIDs    []uuid.UUID
	ClosedAt    time.Time
	Annotation  string
}

// Resolve applies the keep-earliest policy to a group of active candidates.
// Returns false when the group holds at most one record (nothing to heal).
// Ties on CreatedAt are broken by ID so concurrent healers agree on a winner.
func Resolve(resourceKey string, candidates []Candidate, now time.Time) (Resolution, bool) {
	if len(candidates) < 2 {
		return Resolution{}, false
	}

	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID.String() < ordered[j].ID.String()
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	closeIDs := make([]uuid.UUID, 0, len(ordered)-1)
	for _, c := range ordered[1:] {
		closeIDs = append(closeIDs, c.ID)
	}

	return Resolution{
		ResourceKey: resourceKey,
		KeepID:      ordered[0].ID,
		CloseIDs:    closeIDs,
		ClosedAt:    now,
		Annotation:  Annotation,
	}, true
}

// Store is the persistence surface a domain must expose for its own records.
// CloseDuplicates must terminate with a conditional write (only still-active
// rows are closed) and log the resolution as an event, returning how many
// rows it actually closed.
type Store interface {
	// ListActive returns the currently-active records for one resource key.
	ListActive(ctx context.Context, resourceKey string) ([]Candidate, error)
	// ListConflictedKeys returns resource keys holding more than one active record.
	ListConflictedKeys(ctx context.Context) ([]string, error)
	// CloseDuplicates terminates the duplicates named by the resolution.
	CloseDuplicates(ctx context.Context, res Resolution) (int, error)
}

// Healer binds the keep-earliest policy to one domain's store.
type Healer struct {
	name  string
	store Store
	log   *logger.Logger
	now   func() time.Time
}

// NewHealer creates a healer for one domain. The name appears in logs.
func NewHealer(name string, store Store, log *logger.Logger) *Healer {
	return &Healer{
		name:  name,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Heal checks one resource key and terminates duplicate active records.
// Returns the number of records closed. Safe to call opportunistically after
// any write that could create duplication; losing a close race is not an error.
func (h *Healer) Heal(ctx context.Context, resourceKey string) (int, error) {
	candidates, err := h.store.ListActive(ctx, resourceKey)
	if err != nil {
		return 0, fmt.Errorf("%s healer: list active: %w", h.name, err)
	}

	resolution, needed := Resolve(resourceKey, candidates, h.now())
	if !needed {
		return 0, nil
	}

	closed, err := h.store.CloseDuplicates(ctx, resolution)
	if err != nil {
		return 0, fmt.Errorf("%s healer: close duplicates: %w", h.name, err)
	}

	if closed > 0 && h.log != nil {
		h.log.Info("duplicate active records resolved",
			"healer", h.name,
			"resource_key", resourceKey,
			"kept", resolution.KeepID.String(),
			"closed", closed,
		)
	}

	return closed, nil
}

// Sweep scans every conflicted resource key and heals each group.
// Per-key failures are logged and skipped so one bad group cannot abort the sweep.
func (h *Healer) Sweep(ctx context.Context) (int, error) {
	keys, err := h.store.ListConflictedKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s healer: list conflicted keys: %w", h.name, err)
	}

	total := 0
	for _, key := range keys {
		closed, err := h.Heal(ctx, key)
		if err != nil {
			if h.log != nil {
				h.log.Warn("healer sweep skipped key", "healer", h.name, "resource_key", key, "error", err)
			}
			continue
		}
		total += closed
	}

	return total, nil
}
