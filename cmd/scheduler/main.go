package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbooking_backend/internal/booking"
	"tourbooking_backend/internal/booking/policy"
	"tourbooking_backend/internal/email"
	"tourbooking_backend/internal/events"
	"tourbooking_backend/internal/notification"
	"tourbooking_backend/internal/payment"
	"tourbooking_backend/internal/scheduler"
	"tourbooking_backend/internal/shifts"
	"tourbooking_backend/platform/config"
	"tourbooking_backend/platform/db"
	"tourbooking_backend/platform/logger"
	"tourbooking_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	payments, err := payment.NewGateway(cfg, log)
	if err != nil {
		log.Error("failed to initialize payment gateway", "error", err)
		panic("failed to initialize payment gateway: " + err.Error())
	}

	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	val := validator.New()

	thresholds := policy.Thresholds{
		AdminReminder:       cfg.GetAdminReminderAfter(),
		CustomerDelayNotice: cfg.GetCustomerDelayNoticeAfter(),
		AutoReject:          cfg.GetAutoRejectAfter(),
		PaymentCleanup:      cfg.GetPaymentCleanupAfter(),
	}
	if err := thresholds.Validate(); err != nil {
		log.Error("invalid escalation thresholds", "error", err)
		panic("invalid escalation thresholds: " + err.Error())
	}

	bookingModule := booking.NewModule(pool, val, payments, eventBus, thresholds, log)
	shiftsModule := shifts.NewModule(pool, val, log)

	enqueuer, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = enqueuer.Close() }()
	go enqueuer.RunPeriodicEnqueuer(ctx, cfg, log)

	worker, err := scheduler.NewWorker(cfg, bookingModule.Processor(), bookingModule.Healer(), shiftsModule.Healer(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
