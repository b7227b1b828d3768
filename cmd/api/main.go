package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claims_backend/internal/claims"
	"claims_backend/internal/claims/repository"
	"claims_backend/internal/events"
	apphttp "claims_backend/internal/http"
	"claims_backend/internal/http/router"
	"claims_backend/internal/pipeline"
	"claims_backend/internal/scheduler"
	"claims_backend/migrations"
	"claims_backend/platform/config"
	"claims_backend/platform/db"
	"claims_backend/platform/logger"
	"claims_backend/platform/redisclient"
	"claims_backend/platform/startup"
	"claims_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	applied, err := db.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete", "applied", applied)

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	snapshots := pipeline.NewSnapshotStore(rdb, cfg.GetSnapshotTTL())
	claimsModule := claims.NewModule(repository.New(pool), snapshots, queue, eventBus, validator.New(), log)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: []apphttp.HealthChecker{
			pool,
			apphttp.HealthFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		EventBus: eventBus,
		Modules:  []apphttp.Module{claimsModule},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}
