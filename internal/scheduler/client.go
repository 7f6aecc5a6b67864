package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"tourbooking_backend/platform/config"
	"tourbooking_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) EnqueueReconcileAll(ctx context.Context, requestedAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewReconcileAllTask(ReconcileAllPayload{RequestedAt: requestedAt})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func (c *Client) EnqueueConflictSweep(ctx context.Context, taskType string, requestedAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewConflictSweepTask(taskType, ConflictSweepPayload{RequestedAt: requestedAt})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// RunPeriodicEnqueuer enqueues the reconciliation pass and the conflict
// sweeps on their configured intervals until the context is cancelled.
// The handlers are idempotent, so overlapping or duplicate enqueues are
// harmless.
func (c *Client) RunPeriodicEnqueuer(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) {
	if c == nil || c.client == nil {
		return
	}

	reconcileEvery := cfg.GetReconcileInterval()
	if reconcileEvery <= 0 {
		reconcileEvery = time.Minute
	}
	sweepEvery := cfg.GetConflictSweepInterval()
	if sweepEvery <= 0 {
		sweepEvery = 15 * time.Minute
	}

	reconcile := time.NewTicker(reconcileEvery)
	defer reconcile.Stop()
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reconcile.C:
			if err := c.EnqueueReconcileAll(ctx, time.Now().UTC()); err != nil {
				log.Warn("reconcile enqueue failed", "error", err)
			}
		case <-sweep.C:
			now := time.Now().UTC()
			if err := c.EnqueueConflictSweep(ctx, TaskBookingConflictSweep, now); err != nil {
				log.Warn("booking conflict sweep enqueue failed", "error", err)
			}
			if err := c.EnqueueConflictSweep(ctx, TaskShiftConflictSweep, now); err != nil {
				log.Warn("shift conflict sweep enqueue failed", "error", err)
			}
		}
	}
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
