package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tourbooking_backend/internal/shifts/repository"
	"tourbooking_backend/internal/shifts/transport"
	"tourbooking_backend/platform/apperr"
	"tourbooking_backend/platform/conflict"
	"tourbooking_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeShiftStore keeps shifts in memory with the same end-once guard as the
// real repository, and doubles as the conflict.Store the healer drives.
type fakeShiftStore struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]*repository.ShiftRecord
}

func newFakeShiftStore() *fakeShiftStore {
	return &fakeShiftStore{shifts: make(map[uuid.UUID]*repository.ShiftRecord)}
}

func (f *fakeShiftStore) Create(_ context.Context, shift *repository.ShiftRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *shift
	f.shifts[shift.ID] = &cp
	return nil
}

func (f *fakeShiftStore) GetByID(_ context.Context, id uuid.UUID) (*repository.ShiftRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shift, ok := f.shifts[id]
	if !ok {
		return nil, apperr.NotFound("shift not found")
	}
	cp := *shift
	return &cp, nil
}

func (f *fakeShiftStore) ListByStaff(_ context.Context, staffID uuid.UUID, _ int) ([]repository.ShiftRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ShiftRecord
	for _, shift := range f.shifts {
		if shift.StaffID == staffID {
			out = append(out, *shift)
		}
	}
	return out, nil
}

func (f *fakeShiftStore) End(_ context.Context, id uuid.UUID, endedAt time.Time, note *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shift, ok := f.shifts[id]
	if !ok || shift.Status != repository.StatusActive {
		return false, nil
	}
	shift.Status = repository.StatusClosed
	shift.EndedAt = &endedAt
	shift.CloseNote = note
	return true, nil
}

func (f *fakeShiftStore) ListActive(_ context.Context, resourceKey string) ([]conflict.Candidate, error) {
	staffID, err := uuid.Parse(resourceKey)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var candidates []conflict.Candidate
	for _, shift := range f.shifts {
		if shift.StaffID == staffID && shift.Status == repository.StatusActive {
			candidates = append(candidates, conflict.Candidate{ID: shift.ID, CreatedAt: shift.CreatedAt})
		}
	}
	return candidates, nil
}

func (f *fakeShiftStore) ListConflictedKeys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, shift := range f.shifts {
		if shift.Status == repository.StatusActive {
			counts[shift.StaffID]++
		}
	}
	var keys []string
	for staffID, n := range counts {
		if n > 1 {
			keys = append(keys, staffID.String())
		}
	}
	return keys, nil
}

func (f *fakeShiftStore) CloseDuplicates(ctx context.Context, res conflict.Resolution) (int, error) {
	closed := 0
	for _, id := range res.CloseIDs {
		note := res.Annotation
		won, err := f.End(ctx, id, res.ClosedAt, &note)
		if err != nil {
			return closed, err
		}
		if won {
			closed++
		}
	}
	return closed, nil
}

func newTestService(store *fakeShiftStore) *Service {
	log := logger.New("development")
	return New(store, conflict.NewHealer("shifts", store, log), log)
}

func TestStartOpensActiveShift(t *testing.T) {
	store := newFakeShiftStore()
	svc := newTestService(store)

	resp, err := svc.Start(context.Background(), transport.StartShiftRequest{StaffID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != repository.StatusActive {
		t.Fatalf("expected active shift, got %s", resp.Status)
	}
}

func TestStartSecondShiftHealsDuplicateKeepingEarliest(t *testing.T) {
	store := newFakeShiftStore()
	svc := newTestService(store)
	staffID := uuid.New()

	first, err := svc.Start(context.Background(), transport.StartShiftRequest{StaffID: staffID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Force distinct creation times so keep-earliest is unambiguous.
	store.mu.Lock()
	store.shifts[first.ID].CreatedAt = store.shifts[first.ID].CreatedAt.Add(-time.Minute)
	store.mu.Unlock()

	second, err := svc.Start(context.Background(), transport.StartShiftRequest{StaffID: staffID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Status != repository.StatusClosed {
		t.Fatalf("expected duplicate shift to be closed, got %s", second.Status)
	}
	if second.CloseNote == nil || *second.CloseNote != conflict.Annotation {
		t.Fatalf("expected close note %q, got %v", conflict.Annotation, second.CloseNote)
	}

	kept, _ := store.GetByID(context.Background(), first.ID)
	if kept.Status != repository.StatusActive {
		t.Fatalf("earliest shift should stay active, got %s", kept.Status)
	}
}

func TestEndClosesShiftExactlyOnce(t *testing.T) {
	store := newFakeShiftStore()
	svc := newTestService(store)

	started, err := svc.Start(context.Background(), transport.StartShiftRequest{StaffID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ended, err := svc.End(context.Background(), started.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ended.Status != repository.StatusClosed || ended.EndedAt == nil {
		t.Fatalf("expected closed shift with end time, got %+v", ended)
	}

	_, err = svc.End(context.Background(), started.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second end, got %v", err)
	}
}

func TestEndUnknownShiftReturnsNotFound(t *testing.T) {
	svc := newTestService(newFakeShiftStore())

	_, err := svc.End(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
