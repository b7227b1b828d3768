package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims_backend/platform/logger"

	"github.com/google/uuid"
)

// ClaimStage handles process_claim: it serializes attempts per claim with a
// lease, runs the processor and queues exactly one follow-up job.
type ClaimStage struct {
	processor *Processor
	lease     Locker
	attempts  AttemptReader
	queue     Enqueuer
	leaseWait time.Duration
	log       *logger.Logger
}

// AttemptReader reads the retry counter of a claim.
type AttemptReader interface {
	Attempts(ctx context.Context, claimID uuid.UUID) (int, error)
}

// NewClaimStage creates the processing stage.
func NewClaimStage(processor *Processor, lease Locker, attempts AttemptReader, queue Enqueuer, leaseWait time.Duration, log *logger.Logger) *ClaimStage {
	return &ClaimStage{
		processor: processor,
		lease:     lease,
		attempts:  attempts,
		queue:     queue,
		leaseWait: leaseWait,
		log:       log,
	}
}

// Handle runs one attempt. Processing errors become a retry_claim or
// dead_letter_queue job; only a failed hand-off is returned to the queue.
// A job for a FAILED claim is dropped.
func (s *ClaimStage) Handle(ctx context.Context, job ProcessClaim) error {
	log := s.log.WithContext(ctx).WithClaimID(job.ClaimID.String())

	release, err := s.lease.Acquire(ctx, job.ClaimID)
	if errors.Is(err, ErrLeaseHeld) {
		log.Info("claim attempt already in flight, deferring", "delay", s.leaseWait)
		return s.queue.EnqueueIn(ctx, job, s.leaseWait)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("claim lease release failed", "error", err)
		}
	}()

	next := s.followUp(ctx, job, s.processor.Process(ctx, job), log)
	if next == nil {
		return nil
	}
	if err := s.queue.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("hand off %s: %w", next.Kind(), err)
	}
	return nil
}

func (s *ClaimStage) followUp(ctx context.Context, job ProcessClaim, outcome Outcome, log *logger.Logger) Job {
	switch o := outcome.(type) {
	case OutcomeSucceeded:
		log.Info("claim processed", "net_fee", o.NetFee.String())
		return ProcessPayment{ClaimID: job.ClaimID, NetFee: o.NetFee}
	case OutcomeSkipped:
		log.Warn("dropping process_claim for closed claim", "status", string(o.Status))
		return nil
	case OutcomeProceduresFailed:
		log.Info("claim processed with failed procedures",
			"status", string(o.Status), "net_fee", o.NetFee.String(), "failed_procedures", o.Failed)
		return RetryClaim{ClaimID: job.ClaimID, Reason: ReasonProceduresFailed}
	case OutcomeTerminalFailure:
		attempt := s.attempt(ctx, job)
		log.JobFailed(string(KindProcessClaim), job.ClaimID.String(), attempt, o.Err)
		return DeadLetter{ClaimID: job.ClaimID, Reason: ReasonClaimNotFound, Attempts: max(attempt, 0)}
	case OutcomeTransientFailure:
		log.JobFailed(string(KindProcessClaim), job.ClaimID.String(), s.attempt(ctx, job), o.Err)
		return RetryClaim{ClaimID: job.ClaimID, Reason: ReasonProcessingError}
	default:
		panic(fmt.Sprintf("pipeline: unhandled outcome %T", outcome))
	}
}

// attempt is best effort and only feeds logs.
func (s *ClaimStage) attempt(ctx context.Context, job ProcessClaim) int {
	n, err := s.attempts.Attempts(ctx, job.ClaimID)
	if err != nil {
		return -1
	}
	return n
}
