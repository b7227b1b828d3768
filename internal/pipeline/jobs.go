// Package pipeline drives a claim through its asynchronous stages: fee
// processing, bounded retries, dead-lettering and payment hand-off.
package pipeline

import (
	"context"
	"time"

	"claims_backend/internal/claims/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the wire name of a job.
type Kind string

const (
	KindProcessClaim       Kind = "process_claim"
	KindProcessPayment     Kind = "process_payment"
	KindProcessPaymentTask Kind = "process_payment_task"
	KindRetryClaim         Kind = "retry_claim"
	KindDeadLetter         Kind = "dead_letter_queue"
)

// Kinds lists every job kind in pipeline order.
var Kinds = []Kind{KindProcessClaim, KindProcessPayment, KindProcessPaymentTask, KindRetryClaim, KindDeadLetter}

// Job is the closed set of pipeline jobs. Only the types in this file implement it.
type Job interface {
	Kind() Kind
	Claim() uuid.UUID
	isJob()
}

// ProcessClaim computes fees for a claim from its submitted procedures.
type ProcessClaim struct {
	ClaimID    uuid.UUID               `json:"claim_id"`
	Procedures []domain.ProcedureInput `json:"procedures"`
}

// ProcessPayment starts the payment chain for a fully successful claim.
type ProcessPayment struct {
	ClaimID uuid.UUID       `json:"claim_id"`
	NetFee  decimal.Decimal `json:"net_fee"`
}

// ProcessPaymentTask settles a claim. IdempotencyKey is derived from the claim id.
type ProcessPaymentTask struct {
	ClaimID        uuid.UUID       `json:"claim_id"`
	NetFee         decimal.Decimal `json:"net_fee"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// RetryClaim asks the retry coordinator for another attempt.
type RetryClaim struct {
	ClaimID uuid.UUID `json:"claim_id"`
	Reason  string    `json:"reason,omitempty"`
}

// DeadLetter records a claim that will not be processed again.
type DeadLetter struct {
	ClaimID  uuid.UUID `json:"claim_id"`
	Reason   string    `json:"reason,omitempty"`
	Attempts int       `json:"attempts"`
}

func (ProcessClaim) Kind() Kind       { return KindProcessClaim }
func (ProcessPayment) Kind() Kind     { return KindProcessPayment }
func (ProcessPaymentTask) Kind() Kind { return KindProcessPaymentTask }
func (RetryClaim) Kind() Kind         { return KindRetryClaim }
func (DeadLetter) Kind() Kind         { return KindDeadLetter }

func (j ProcessClaim) Claim() uuid.UUID       { return j.ClaimID }
func (j ProcessPayment) Claim() uuid.UUID     { return j.ClaimID }
func (j ProcessPaymentTask) Claim() uuid.UUID { return j.ClaimID }
func (j RetryClaim) Claim() uuid.UUID         { return j.ClaimID }
func (j DeadLetter) Claim() uuid.UUID         { return j.ClaimID }

func (ProcessClaim) isJob()       {}
func (ProcessPayment) isJob()     {}
func (ProcessPaymentTask) isJob() {}
func (RetryClaim) isJob()         {}
func (DeadLetter) isJob()         {}

// Retry reasons.
const (
	ReasonProceduresFailed = "procedures_failed"
	ReasonProcessingError  = "processing_error"
	ReasonStalePending     = "stale_pending"
	ReasonManualRequeue    = "manual_requeue"
	ReasonRetriesExhausted = "retries_exhausted"
	ReasonClaimNotFound    = "claim_not_found"
)

// JobID is the queue-level dedup key of a job, or "" when the job may be
// queued any number of times. Payment tasks use their idempotency key and a
// stale-claim retry is keyed by claim so repeated sweeps collide.
func JobID(job Job) string {
	switch j := job.(type) {
	case ProcessPaymentTask:
		return j.IdempotencyKey
	case RetryClaim:
		if j.Reason == ReasonStalePending {
			return "stale_" + j.ClaimID.String()
		}
	}
	return ""
}

// Enqueuer hands jobs to the durable queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
	EnqueueIn(ctx context.Context, job Job, delay time.Duration) error
}
