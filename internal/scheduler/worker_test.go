package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"tourbooking_backend/internal/booking/domain"
	"tourbooking_backend/internal/booking/reconciler"
	"tourbooking_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeReconciler struct {
	summaries []reconciler.ActionSummary
	err       error
	calls     int
}

func (f *fakeReconciler) ProcessAll(ctx context.Context) ([]reconciler.ActionSummary, error) {
	f.calls++
	return f.summaries, f.err
}

type fakeSweeper struct {
	closed int
	err    error
	calls  int
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int, error) {
	f.calls++
	return f.closed, f.err
}

func reconcileTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewReconcileAllTask(ReconcileAllPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("NewReconcileAllTask: %v", err)
	}
	return task
}

func TestHandleReconcileAllRunsProcessor(t *testing.T) {
	rec := &fakeReconciler{
		summaries: []reconciler.ActionSummary{
			{ActionType: domain.EventAdminReminderSent, ProcessedCount: 2},
			{ActionType: domain.EventAutoRejected, ProcessedCount: 0},
		},
	}
	w := &Worker{reconciler: rec, log: logger.New("test")}

	if err := w.handleReconcileAll(context.Background(), reconcileTask(t)); err != nil {
		t.Fatalf("handleReconcileAll: %v", err)
	}
	if rec.calls != 1 {
		t.Fatalf("processor calls = %d, want 1", rec.calls)
	}
}

func TestHandleReconcileAllPropagatesErrorForRetry(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("db down")}
	w := &Worker{reconciler: rec, log: logger.New("test")}

	if err := w.handleReconcileAll(context.Background(), reconcileTask(t)); err == nil {
		t.Fatal("expected error so asynq retries the task")
	}
}

func TestConflictSweepHandlersUseTheRightSweeper(t *testing.T) {
	booking := &fakeSweeper{closed: 1}
	shift := &fakeSweeper{}
	w := &Worker{bookingSweep: booking, shiftSweep: shift, log: logger.New("test")}

	task, err := NewConflictSweepTask(TaskBookingConflictSweep, ConflictSweepPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("NewConflictSweepTask: %v", err)
	}

	if err := w.handleBookingConflictSweep(context.Background(), task); err != nil {
		t.Fatalf("handleBookingConflictSweep: %v", err)
	}
	if booking.calls != 1 || shift.calls != 0 {
		t.Fatalf("sweeper calls = booking %d, shift %d", booking.calls, shift.calls)
	}

	if err := w.handleShiftConflictSweep(context.Background(), task); err != nil {
		t.Fatalf("handleShiftConflictSweep: %v", err)
	}
	if shift.calls != 1 {
		t.Fatalf("shift sweeper calls = %d, want 1", shift.calls)
	}
}
