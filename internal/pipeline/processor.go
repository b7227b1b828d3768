package pipeline

import (
	"context"
	"errors"
	"fmt"

	"claims_backend/internal/claims/domain"
	"claims_backend/internal/claims/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxBeginner opens a claim transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (repository.Tx, error)
}

// Outcome is the typed result of one processing attempt.
type Outcome interface {
	isOutcome()
}

// OutcomeSucceeded: every procedure succeeded and the claim was committed.
type OutcomeSucceeded struct {
	NetFee decimal.Decimal
}

// OutcomeProceduresFailed: the claim was committed but at least one
// procedure did not succeed.
type OutcomeProceduresFailed struct {
	Status domain.ClaimStatus
	NetFee decimal.Decimal
	Failed int
}

// OutcomeTransientFailure: nothing was committed; another attempt may succeed.
type OutcomeTransientFailure struct {
	Err error
}

// OutcomeTerminalFailure: nothing was committed and retrying cannot help.
type OutcomeTerminalFailure struct {
	Err error
}

// OutcomeSkipped: the claim was already FAILED; nothing was written.
type OutcomeSkipped struct {
	Status domain.ClaimStatus
}

func (OutcomeSucceeded) isOutcome()        {}
func (OutcomeSkipped) isOutcome()          {}
func (OutcomeProceduresFailed) isOutcome() {}
func (OutcomeTransientFailure) isOutcome() {}
func (OutcomeTerminalFailure) isOutcome()  {}

// NotFoundPolicy decides whether a missing claim row is retried or dead-lettered.
type NotFoundPolicy string

const (
	NotFoundRetry NotFoundPolicy = "retry"
	NotFoundFail  NotFoundPolicy = "fail"
)

// Processor runs one fee-processing attempt inside a single transaction.
type Processor struct {
	claims   TxBeginner
	notFound NotFoundPolicy
}

// NewProcessor creates a processor.
func NewProcessor(claims TxBeginner, notFound NotFoundPolicy) *Processor {
	if notFound == "" {
		notFound = NotFoundRetry
	}
	return &Processor{claims: claims, notFound: notFound}
}

// Process loads the claim, derives fresh procedures from the submission,
// recomputes net fee and status, and commits. Procedures stored by earlier
// attempts are replaced, so redelivery converges on the same state. A FAILED
// claim is left alone until it is reopened.
func (p *Processor) Process(ctx context.Context, job ProcessClaim) Outcome {
	claim, err := p.apply(ctx, job.ClaimID, job.Procedures)
	if errors.Is(err, ErrClaimClosed) {
		return OutcomeSkipped{Status: claim.Status}
	}
	if err != nil {
		if errors.Is(err, ErrClaimNotFound) && p.notFound == NotFoundFail {
			return OutcomeTerminalFailure{Err: err}
		}
		return OutcomeTransientFailure{Err: err}
	}

	if domain.AllSucceeded(claim.Procedures) {
		return OutcomeSucceeded{NetFee: claim.NetFee}
	}

	failed := 0
	for _, proc := range claim.Procedures {
		if proc.Status != domain.ProcedureSuccess {
			failed++
		}
	}
	return OutcomeProceduresFailed{Status: claim.Status, NetFee: claim.NetFee, Failed: failed}
}

func (p *Processor) apply(ctx context.Context, claimID uuid.UUID, inputs []domain.ProcedureInput) (domain.Claim, error) {
	tx, err := p.claims.Begin(ctx)
	if err != nil {
		return domain.Claim{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	claim, err := tx.LoadClaim(ctx, claimID)
	if err != nil {
		return domain.Claim{}, err
	}
	if claim.Status == domain.ClaimFailed {
		return claim, ErrClaimClosed
	}

	procedures := make([]domain.Procedure, 0, len(inputs))
	for _, input := range inputs {
		procedures = append(procedures, domain.NewProcedure(claim.ID, input))
	}
	claim.Procedures = procedures
	claim.Recompute()

	if err := tx.ReplaceProcedures(ctx, claim.ID, claim.Procedures); err != nil {
		return domain.Claim{}, err
	}
	if err := tx.UpdateClaim(ctx, claim); err != nil {
		return domain.Claim{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Claim{}, fmt.Errorf("commit processed claim: %w", err)
	}
	return claim, nil
}
