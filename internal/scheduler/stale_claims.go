package scheduler

import (
	"context"
	"time"

	"claims_backend/internal/pipeline"
	"claims_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultStaleSweepInterval = 5 * time.Minute
	defaultStaleAfter         = 30 * time.Minute
	staleSweepBatchSize       = 100
)

// StaleClaimLister finds claims that never left PENDING.
type StaleClaimLister interface {
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

// StaleClaimSweeper periodically hands claims stuck in PENDING with no retry
// history to the retry coordinator. That recovers a process_claim job lost
// between the claim insert and the enqueue. The retry job carries a
// pipeline.JobID, so a claim swept again before its retry ran is queued once.
type StaleClaimSweeper struct {
	claims     StaleClaimLister
	attempts   pipeline.AttemptReader
	queue      pipeline.Enqueuer
	log        *logger.Logger
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewStaleClaimSweeper(claims StaleClaimLister, attempts pipeline.AttemptReader, queue pipeline.Enqueuer, log *logger.Logger, interval, staleAfter time.Duration) *StaleClaimSweeper {
	if interval <= 0 {
		interval = defaultStaleSweepInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	return &StaleClaimSweeper{
		claims:     claims,
		attempts:   attempts,
		queue:      queue,
		log:        log,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *StaleClaimSweeper) Run(ctx context.Context) {
	if s == nil || s.claims == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep returns how many claims were handed to the retry coordinator.
func (s *StaleClaimSweeper) sweep(ctx context.Context) int {
	ids, err := s.claims.ListStalePending(ctx, s.now().Add(-s.staleAfter), staleSweepBatchSize)
	if err != nil {
		s.log.Warn("stale claim sweep failed", "error", err)
		return 0
	}

	requeued := 0
	for _, id := range ids {
		attempts, err := s.attempts.Attempts(ctx, id)
		if err != nil {
			s.log.Warn("stale claim sweep could not read retry counter", "claim_id", id.String(), "error", err)
			continue
		}
		if attempts > 0 {
			continue
		}

		if err := s.queue.Enqueue(ctx, pipeline.RetryClaim{ClaimID: id, Reason: pipeline.ReasonStalePending}); err != nil {
			s.log.Warn("stale claim sweep enqueue failed", "claim_id", id.String(), "error", err)
			continue
		}
		requeued++
	}

	if requeued > 0 {
		s.log.Info("stale claim sweep requeued pending claims", "requeued", requeued)
	}
	return requeued
}
