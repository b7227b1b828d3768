package repository

import (
	"context"
	"errors"
	"time"

	"claims_backend/internal/claims/domain"

	"github.com/google/uuid"
)

// ErrClaimNotFound is wrapped by every lookup that misses a claim row.
var ErrClaimNotFound = errors.New("claim not found")

// CreateClaimParams contains data for inserting a PENDING claim. A nil ID
// gets a fresh one.
type CreateClaimParams struct {
	ID               uuid.UUID
	ClaimNumber      string
	PlanGroup        string
	SubscriberNumber string
}

// Repository is the claim store used by the submission service, the pipeline
// and the ops tooling.
type Repository interface {
	CreateClaim(ctx context.Context, params CreateClaimParams) (domain.Claim, error)
	ClaimNumberExists(ctx context.Context, claimNumber string) (bool, error)
	GetClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error)
	// MarkFailed sets status FAILED and nothing else.
	MarkFailed(ctx context.Context, id uuid.UUID) error
	// Reopen moves a FAILED claim back to PENDING. It reports whether the
	// claim was FAILED.
	Reopen(ctx context.Context, id uuid.UUID) (bool, error)
	TopProviders(ctx context.Context, limit, offset int) ([]domain.ProviderTotal, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one pipeline stage's unit of work on a claim aggregate.
type Tx interface {
	// LoadClaim reads the claim with its procedures and locks the claim row.
	LoadClaim(ctx context.Context, id uuid.UUID) (domain.Claim, error)
	// ReplaceProcedures supersedes every stored procedure of the claim.
	ReplaceProcedures(ctx context.Context, claimID uuid.UUID, procedures []domain.Procedure) error
	// UpdateClaim persists net fee and status.
	UpdateClaim(ctx context.Context, claim domain.Claim) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
