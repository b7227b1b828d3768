package main

import (
	"context"
	"fmt"

	"claims_backend/internal/claims/repository"
	"claims_backend/internal/pipeline"
	"claims_backend/internal/scheduler"
	"claims_backend/platform/config"
	"claims_backend/platform/db"
	"claims_backend/platform/logger"
	"claims_backend/platform/redisclient"

	"github.com/google/uuid"
)

// env holds the handles one command opened; close releases them.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	closers []func()
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &env{cfg: cfg, log: logger.New(cfg.Env)}, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (e *env) claims(ctx context.Context) (repository.Repository, error) {
	pool, err := db.NewPool(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	e.closers = append(e.closers, pool.Close)
	return repository.New(pool), nil
}

func (e *env) snapshots(ctx context.Context) (*pipeline.SnapshotStore, error) {
	rdb, err := redisclient.New(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	e.closers = append(e.closers, func() { _ = rdb.Close() })
	return pipeline.NewSnapshotStore(rdb, e.cfg.GetSnapshotTTL()), nil
}

func (e *env) queue() (*scheduler.Client, error) {
	client, err := scheduler.NewClient(e.cfg, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect queue: %w", err)
	}
	e.closers = append(e.closers, func() { _ = client.Close() })
	return client, nil
}

func parseClaimID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid claim id %q", raw)
	}
	return id, nil
}
