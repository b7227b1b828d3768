package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claims_backend/internal/claims/repository"
	"claims_backend/internal/deadletter"
	"claims_backend/internal/events"
	"claims_backend/internal/pipeline"
	"claims_backend/internal/scheduler"
	"claims_backend/platform/config"
	"claims_backend/platform/db"
	"claims_backend/platform/logger"
	"claims_backend/platform/redisclient"
	"claims_backend/platform/startup"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting pipeline worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName(), "max_attempts", cfg.GetMaxAttempts())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := startup.Retry(ctx, log, "database connection", 5, 2*time.Second, func() error {
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

	var rdb *redis.Client
	if err := startup.Retry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := redisclient.New(ctx, cfg)
		if err != nil {
			return err
		}
		rdb = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	queue, err := scheduler.NewClient(cfg, cfg)
	if err != nil {
		log.Error("failed to initialize job queue client", "error", err)
		panic("failed to initialize job queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	deadLetterModule, err := deadletter.NewModule(cfg, log)
	if err != nil {
		log.Error("failed to initialize dead letter sinks", "error", err)
		panic("failed to initialize dead letter sinks: " + err.Error())
	}
	deadLetterModule.RegisterHandlers(eventBus)

	claimsRepo := repository.New(pool)
	snapshots := pipeline.NewSnapshotStore(rdb, cfg.GetSnapshotTTL())

	dispatcher := pipeline.New(pipeline.Deps{
		Claims:    claimsRepo,
		Snapshots: snapshots,
		Lease:     pipeline.NewRedisLease(rdb, cfg.GetLeaseTTL()),
		Queue:     queue,
		Bus:       eventBus,
	}, pipeline.SettingsFrom(cfg), log)

	worker, err := scheduler.NewWorker(cfg, dispatcher, log)
	if err != nil {
		log.Error("failed to initialize pipeline worker", "error", err)
		panic("failed to initialize pipeline worker: " + err.Error())
	}

	sweeper := scheduler.NewStaleClaimSweeper(claimsRepo, snapshots, queue, log, cfg.GetStaleSweepInterval(), cfg.GetStaleAfter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("pipeline worker error", "error", err)
		panic("pipeline worker error: " + err.Error())
	}
}
