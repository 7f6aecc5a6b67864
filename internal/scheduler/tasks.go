package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskReconcileAll = "booking.reconcile.all"

const TaskBookingConflictSweep = "booking.conflict.sweep"

const TaskShiftConflictSweep = "shifts.conflict.sweep"

type ReconcileAllPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

type ConflictSweepPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewReconcileAllTask(payload ReconcileAllPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileAll, data), nil
}

func ParseReconcileAllPayload(task *asynq.Task) (ReconcileAllPayload, error) {
	var payload ReconcileAllPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReconcileAllPayload{}, err
	}
	return payload, nil
}

func NewConflictSweepTask(taskType string, payload ConflictSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseConflictSweepPayload(task *asynq.Task) (ConflictSweepPayload, error) {
	var payload ConflictSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ConflictSweepPayload{}, err
	}
	return payload, nil
}
