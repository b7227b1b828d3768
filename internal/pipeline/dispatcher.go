package pipeline

import (
	"context"
	"fmt"

	"claims_backend/platform/logger"
)

// Dispatcher routes each job kind to its stage.
type Dispatcher struct {
	claims      *ClaimStage
	retries     *RetryCoordinator
	payments    *PaymentPipeline
	deadLetters *DeadLetterHandler
	log         *logger.Logger
}

// NewDispatcher creates a dispatcher over the four stages.
func NewDispatcher(claims *ClaimStage, retries *RetryCoordinator, payments *PaymentPipeline, deadLetters *DeadLetterHandler, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		claims:      claims,
		retries:     retries,
		payments:    payments,
		deadLetters: deadLetters,
		log:         log,
	}
}

// Dispatch runs the stage for job. A non-nil error asks the queue to redeliver it.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) error {
	switch j := job.(type) {
	case ProcessClaim:
		return d.claims.Handle(ctx, j)
	case RetryClaim:
		decision, err := d.retries.Retry(ctx, j)
		if err != nil {
			return err
		}
		d.log.WithContext(ctx).Debug("retry decided", "claim_id", j.ClaimID.String(), "decision", string(decision))
		return nil
	case ProcessPayment:
		return d.payments.HandlePayment(ctx, j)
	case ProcessPaymentTask:
		return d.payments.HandlePaymentTask(ctx, j)
	case DeadLetter:
		return d.deadLetters.Handle(ctx, j)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownJob, job)
	}
}
