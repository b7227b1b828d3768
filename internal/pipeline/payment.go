package pipeline

import (
	"context"
	"fmt"

	"claims_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentIdempotencyKey is the deterministic settlement token of a claim.
func PaymentIdempotencyKey(claimID uuid.UUID) string {
	return "payment_" + claimID.String()
}

// Settler performs the settlement side effect.
type Settler interface {
	Settle(ctx context.Context, claimID uuid.UUID, netFee decimal.Decimal, idempotencyKey string) error
}

// LoggingSettler records settlements without moving money.
type LoggingSettler struct {
	log *logger.Logger
}

// NewLoggingSettler creates the stub settler.
func NewLoggingSettler(log *logger.Logger) *LoggingSettler {
	return &LoggingSettler{log: log}
}

// Settle logs the payment.
func (s *LoggingSettler) Settle(ctx context.Context, claimID uuid.UUID, netFee decimal.Decimal, idempotencyKey string) error {
	s.log.WithContext(ctx).Info("payment processed",
		"claim_id", claimID.String(), "net_fee", netFee.String(), "idempotency_key", idempotencyKey)
	return nil
}

// PaymentPipeline chains process_payment into the settlement task.
// Settlement failures go back to the queue's own retry and never reach
// the retry coordinator.
type PaymentPipeline struct {
	queue   Enqueuer
	settler Settler
	log     *logger.Logger
}

// NewPaymentPipeline creates the payment stages.
func NewPaymentPipeline(queue Enqueuer, settler Settler, log *logger.Logger) *PaymentPipeline {
	return &PaymentPipeline{queue: queue, settler: settler, log: log}
}

// HandlePayment enqueues the settlement task under the claim's idempotency
// key, so a redelivered process_payment does not settle twice.
func (p *PaymentPipeline) HandlePayment(ctx context.Context, job ProcessPayment) error {
	p.log.WithContext(ctx).WithClaimID(job.ClaimID.String()).
		Info("processing payment", "net_fee", job.NetFee.String())

	task := ProcessPaymentTask{
		ClaimID:        job.ClaimID,
		NetFee:         job.NetFee,
		IdempotencyKey: PaymentIdempotencyKey(job.ClaimID),
	}
	if err := p.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("hand off %s: %w", task.Kind(), err)
	}
	return nil
}

// HandlePaymentTask settles the claim.
func (p *PaymentPipeline) HandlePaymentTask(ctx context.Context, job ProcessPaymentTask) error {
	key := job.IdempotencyKey
	if key == "" {
		key = PaymentIdempotencyKey(job.ClaimID)
	}

	if err := p.settler.Settle(ctx, job.ClaimID, job.NetFee, key); err != nil {
		p.log.WithContext(ctx).WithClaimID(job.ClaimID.String()).
			Error("payment processing failed", "error", err, "idempotency_key", key)
		return fmt.Errorf("settle claim %s: %w", job.ClaimID, err)
	}
	return nil
}
