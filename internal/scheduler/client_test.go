package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c testSchedulerConfig) GetRedisURL() string        { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool  { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string  { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int   { return 1 }
func (c testSchedulerConfig) GetReconcileInterval() time.Duration {
	return time.Minute
}
func (c testSchedulerConfig) GetConflictSweepInterval() time.Duration {
	return 15 * time.Minute
}

func newTestClient(t *testing.T) (*Client, asynq.RedisClientOpt) {
	t.Helper()

	srv := miniredis.RunT(t)
	cfg := testSchedulerConfig{redisURL: "redis://" + srv.Addr(), queue: "bookings"}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client, asynq.RedisClientOpt{Addr: srv.Addr()}
}

func pendingTasks(t *testing.T, opt asynq.RedisClientOpt, queue string) []*asynq.TaskInfo {
	t.Helper()

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	tasks, err := inspector.ListPendingTasks(queue)
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	return tasks
}

func TestEnqueueReconcileAll(t *testing.T) {
	client, opt := newTestClient(t)

	requestedAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	if err := client.EnqueueReconcileAll(context.Background(), requestedAt); err != nil {
		t.Fatalf("EnqueueReconcileAll: %v", err)
	}

	tasks := pendingTasks(t, opt, "bookings")
	if len(tasks) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskReconcileAll {
		t.Fatalf("task type = %q, want %q", tasks[0].Type, TaskReconcileAll)
	}

	payload, err := ParseReconcileAllPayload(asynq.NewTask(tasks[0].Type, tasks[0].Payload))
	if err != nil {
		t.Fatalf("ParseReconcileAllPayload: %v", err)
	}
	if !payload.RequestedAt.Equal(requestedAt) {
		t.Fatalf("requestedAt = %v, want %v", payload.RequestedAt, requestedAt)
	}
}

func TestEnqueueConflictSweeps(t *testing.T) {
	client, opt := newTestClient(t)

	now := time.Now().UTC()
	if err := client.EnqueueConflictSweep(context.Background(), TaskBookingConflictSweep, now); err != nil {
		t.Fatalf("booking sweep enqueue: %v", err)
	}
	if err := client.EnqueueConflictSweep(context.Background(), TaskShiftConflictSweep, now); err != nil {
		t.Fatalf("shift sweep enqueue: %v", err)
	}

	tasks := pendingTasks(t, opt, "bookings")
	if len(tasks) != 2 {
		t.Fatalf("pending tasks = %d, want 2", len(tasks))
	}

	seen := map[string]bool{}
	for _, task := range tasks {
		seen[task.Type] = true
	}
	if !seen[TaskBookingConflictSweep] || !seen[TaskShiftConflictSweep] {
		t.Fatalf("missing sweep task, got %v", seen)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}
