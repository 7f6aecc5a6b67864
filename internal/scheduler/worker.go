package scheduler

import (
	"context"
	"fmt"

	"tourbooking_backend/internal/booking/reconciler"
	"tourbooking_backend/platform/config"
	"tourbooking_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Reconciler runs one full escalation pass over pending booking requests.
type Reconciler interface {
	ProcessAll(ctx context.Context) ([]reconciler.ActionSummary, error)
}

// Sweeper closes duplicate active records across the whole table.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	reconciler   Reconciler
	bookingSweep Sweeper
	shiftSweep   Sweeper
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, rec Reconciler, bookingSweep, shiftSweep Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:       server,
		mux:          mux,
		reconciler:   rec,
		bookingSweep: bookingSweep,
		shiftSweep:   shiftSweep,
		log:          log,
	}

	mux.HandleFunc(TaskReconcileAll, w.handleReconcileAll)
	mux.HandleFunc(TaskBookingConflictSweep, w.handleBookingConflictSweep)
	mux.HandleFunc(TaskShiftConflictSweep, w.handleShiftConflictSweep)

	return w, nil
}

func (w *Worker) handleReconcileAll(ctx context.Context, task *asynq.Task) error {
	if w.reconciler == nil {
		return nil
	}

	payload, err := ParseReconcileAllPayload(task)
	if err != nil {
		return err
	}

	summaries, err := w.reconciler.ProcessAll(ctx)
	if err != nil {
		return err
	}

	for _, summary := range summaries {
		if summary.ProcessedCount == 0 {
			continue
		}
		w.log.Info("reconciliation action applied",
			"action", string(summary.ActionType),
			"count", summary.ProcessedCount,
			"requestedAt", payload.RequestedAt,
		)
	}
	return nil
}

func (w *Worker) handleBookingConflictSweep(ctx context.Context, task *asynq.Task) error {
	return w.runSweep(ctx, task, "booking", w.bookingSweep)
}

func (w *Worker) handleShiftConflictSweep(ctx context.Context, task *asynq.Task) error {
	return w.runSweep(ctx, task, "shifts", w.shiftSweep)
}

func (w *Worker) runSweep(ctx context.Context, task *asynq.Task, name string, sweeper Sweeper) error {
	if sweeper == nil {
		return nil
	}

	if _, err := ParseConflictSweepPayload(task); err != nil {
		return err
	}

	closed, err := sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		w.log.Info("conflict sweep closed duplicates", "resource", name, "closed", closed)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
