package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims_backend/platform/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// RetryDecision is what the coordinator did with one retry_claim job.
type RetryDecision string

const (
	// Requeued: the counter was incremented and process_claim was scheduled.
	Requeued RetryDecision = "requeued"
	// Exhausted: the claim was marked FAILED and dead-lettered.
	Exhausted RetryDecision = "exhausted"
	// SnapshotMissing: the claim was marked FAILED without consuming an attempt.
	SnapshotMissing RetryDecision = "snapshot_missing"
)

// RetryState is the slice of the snapshot store the coordinator uses.
type RetryState interface {
	Attempts(ctx context.Context, claimID uuid.UUID) (int, error)
	IncrementAttempts(ctx context.Context, claimID uuid.UUID) (int, error)
	LoadSubmission(ctx context.Context, claimID uuid.UUID) (Submission, bool, error)
}

// FailureMarker forces a claim to FAILED.
type FailureMarker interface {
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// RetryPolicy bounds attempts and spaces them out exponentially.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay returns the wait before the given 1-based attempt: BaseDelay doubled
// per earlier attempt, capped at MaxDelay. No jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

// RetryCoordinator is the bounded retry state machine for a claim.
type RetryCoordinator struct {
	state  RetryState
	claims FailureMarker
	queue  Enqueuer
	policy RetryPolicy
	log    *logger.Logger
}

// NewRetryCoordinator creates a coordinator.
func NewRetryCoordinator(state RetryState, claims FailureMarker, queue Enqueuer, policy RetryPolicy, log *logger.Logger) *RetryCoordinator {
	return &RetryCoordinator{state: state, claims: claims, queue: queue, policy: policy, log: log}
}

// MaxAttempts is the retry budget per claim.
func (r *RetryCoordinator) MaxAttempts() int {
	return r.policy.MaxAttempts
}

// Retry decides the fate of a claim after a failed attempt:
//
//	counter >= max     -> mark FAILED, enqueue dead_letter_queue
//	snapshot absent    -> mark FAILED, counter untouched
//	otherwise          -> counter+1, enqueue process_claim after a backoff delay
//
// An error means nothing durable was decided and the job should be redelivered.
func (r *RetryCoordinator) Retry(ctx context.Context, job RetryClaim) (RetryDecision, error) {
	log := r.log.WithContext(ctx).WithClaimID(job.ClaimID.String())

	attempts, err := r.state.Attempts(ctx, job.ClaimID)
	if err != nil {
		return "", err
	}

	if attempts >= r.policy.MaxAttempts {
		log.Error("max retries reached for claim", "attempts", attempts, "reason", job.Reason)
		if err := r.markFailed(ctx, job.ClaimID, log); err != nil {
			return "", err
		}
		dead := DeadLetter{ClaimID: job.ClaimID, Reason: ReasonRetriesExhausted, Attempts: attempts}
		if err := r.queue.Enqueue(ctx, dead); err != nil {
			return "", fmt.Errorf("hand off %s: %w", dead.Kind(), err)
		}
		return Exhausted, nil
	}

	submission, found, err := r.state.LoadSubmission(ctx, job.ClaimID)
	if err != nil {
		return "", err
	}
	if !found {
		log.Error("no submission snapshot for claim, failing it", "error", ErrSnapshotMissing, "attempts", attempts)
		if err := r.markFailed(ctx, job.ClaimID, log); err != nil {
			return "", err
		}
		return SnapshotMissing, nil
	}

	attempt, err := r.state.IncrementAttempts(ctx, job.ClaimID)
	if err != nil {
		return "", err
	}

	delay := r.policy.Delay(attempt)
	log.Info("retrying claim", "attempt", attempt, "max_attempts", r.policy.MaxAttempts, "delay", delay, "reason", job.Reason)

	next := ProcessClaim{ClaimID: job.ClaimID, Procedures: submission.Procedures}
	if err := r.queue.EnqueueIn(ctx, next, delay); err != nil {
		return "", fmt.Errorf("hand off %s: %w", next.Kind(), err)
	}
	return Requeued, nil
}

// markFailed tolerates a claim row that no longer exists.
func (r *RetryCoordinator) markFailed(ctx context.Context, claimID uuid.UUID, log *logger.Logger) error {
	err := r.claims.MarkFailed(ctx, claimID)
	if errors.Is(err, ErrClaimNotFound) {
		log.Warn("claim to mark failed does not exist")
		return nil
	}
	if err != nil {
		log.DatabaseError("mark claim failed", err)
		return err
	}
	log.Info("claim marked as FAILED")
	return nil
}
