package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"permitflow_backend/internal/engagement"
	"permitflow_backend/internal/exports"
	"permitflow_backend/internal/scheduler"
	"permitflow_backend/platform/config"
	"permitflow_backend/platform/db"
	"permitflow_backend/platform/events"
	"permitflow_backend/platform/logger"
	"permitflow_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

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
	engagement.RegisterEventLogging(eventBus, log)
	val := validator.New()

	// The worker requires Redis; it exists to drain the engagement queue.
	taskClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task scheduler client", "error", err)
		panic("failed to initialize task scheduler client: " + err.Error())
	}
	defer func() { _ = taskClient.Close() }()

	exportsModule := exports.NewModule(pool)

	engagementModule := engagement.NewModule(engagement.Deps{
		Pool:      pool,
		Bus:       eventBus,
		Logger:    log,
		Validator: val,
		Config:    cfg,
		Scheduler: taskClient,
		Exporter:  exportsModule.Exporter(),
	})

	worker, err := scheduler.NewWorker(cfg, engagementModule.Engine(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	sweeper := scheduler.NewSweeper(engagementModule.Store(), engagementModule.Engine(), cfg.GetReplyTimeout(), cfg.GetSweepInterval(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", "error", err)
		return
	}
	log.Info("worker shut down")
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
