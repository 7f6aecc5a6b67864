package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestResolveKeepsEarliestCreated(t *testing.T) {
	now := time.Now()
	oldest := Candidate{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour)}
	middle := Candidate{ID: uuid.New(), CreatedAt: now.Add(-1 * time.Hour)}
	newest := Candidate{ID: uuid.New(), CreatedAt: now}

	res, needed := Resolve("customer-a", []Candidate{newest, oldest, middle}, now)
	if !needed {
		t.Fatalf("expected resolution to be needed")
	}
	if res.KeepID != oldest.ID {
		t.Fatalf("expected earliest record %s kept, got %s", oldest.ID, res.KeepID)
	}
	if len(res.CloseIDs) != 2 {
		t.Fatalf("expected 2 records closed, got %d", len(res.CloseIDs))
	}
	for _, id := range res.CloseIDs {
		if id == oldest.ID {
			t.Fatalf("canonical record must not be closed")
		}
	}
	if res.Annotation != Annotation {
		t.Fatalf("expected annotation %q, got %q", Annotation, res.Annotation)
	}
}

func TestResolveSingleRecordNeedsNothing(t *testing.T) {
	now := time.Now()
	_, needed := Resolve("customer-a", []Candidate{{ID: uuid.New(), CreatedAt: now}}, now)
	if needed {
		t.Fatalf("expected no resolution for a single active record")
	}
}

func TestResolveTieBrokenDeterministically(t *testing.T) {
	now := time.Now()
	a := Candidate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), CreatedAt: now}
	b := Candidate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), CreatedAt: now}

	first, _ := Resolve("key", []Candidate{a, b}, now)
	second, _ := Resolve("key", []Candidate{b, a}, now)
	if first.KeepID != second.KeepID {
		t.Fatalf("tie-break must not depend on input order: %s vs %s", first.KeepID, second.KeepID)
	}
	if first.KeepID != a.ID {
		t.Fatalf("expected lexicographically smaller ID to win the tie")
	}
}

type fakeHealerStore struct {
	active map[string][]Candidate
	closed []Resolution
}

func (f *fakeHealerStore) ListActive(_ context.Context, key string) ([]Candidate, error) {
	return f.active[key], nil
}

func (f *fakeHealerStore) ListConflictedKeys(_ context.Context) ([]string, error) {
	keys := make([]string, 0)
	for key, group := range f.active {
		if len(group) > 1 {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeHealerStore) CloseDuplicates(_ context.Context, res Resolution) (int, error) {
	f.closed = append(f.closed, res)
	return len(res.CloseIDs), nil
}

func TestHealerSweepHealsEveryConflictedKey(t *testing.T) {
	now := time.Now()
	store := &fakeHealerStore{active: map[string][]Candidate{
		"staff-1": {
			{ID: uuid.New(), CreatedAt: now.Add(-time.Hour)},
			{ID: uuid.New(), CreatedAt: now},
		},
		"staff-2": {
			{ID: uuid.New(), CreatedAt: now},
		},
	}}

	healer := NewHealer("shifts", store, nil)
	closed, err := healer.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 record closed, got %d", closed)
	}
	if len(store.closed) != 1 || store.closed[0].ResourceKey != "staff-1" {
		t.Fatalf("expected exactly staff-1 to be healed, got %#v", store.closed)
	}
}
