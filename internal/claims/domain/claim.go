// Package domain holds the claim aggregate and the pure rules that derive
// fees and statuses from it.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimPending        ClaimStatus = "PENDING"
	ClaimProcessing     ClaimStatus = "PROCESSING"
	ClaimSuccess        ClaimStatus = "SUCCESS"
	ClaimFailure        ClaimStatus = "FAILURE"
	ClaimPartialFailure ClaimStatus = "PARTIAL_FAILURE"
	// ClaimFailed is the operational override written after retries are exhausted
	// or the submission snapshot is lost. It never comes out of AggregateStatus.
	ClaimFailed ClaimStatus = "FAILED"
)

// ProcedureStatus is the outcome of one procedure line.
type ProcedureStatus string

const (
	ProcedurePending ProcedureStatus = "PENDING"
	ProcedureSuccess ProcedureStatus = "SUCCESS"
	ProcedureFailed  ProcedureStatus = "FAILED"
)

// Claim is the aggregate root.
type Claim struct {
	ID               uuid.UUID
	ClaimNumber      string
	PlanGroup        string
	SubscriberNumber string
	NetFee           decimal.Decimal
	Status           ClaimStatus
	Procedures       []Procedure
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Procedure is one billable line of a claim.
type Procedure struct {
	ID                 uuid.UUID
	ClaimID            uuid.UUID
	ServiceDate        time.Time
	SubmittedProcedure string
	Quadrant           *string
	ProviderNPI        string
	ProviderFees       decimal.Decimal
	AllowedFees        decimal.Decimal
	MemberCoinsurance  decimal.Decimal
	MemberCopay        decimal.Decimal
	NetFee             decimal.Decimal
	Status             ProcedureStatus
}

// ProcedureInput is one procedure as submitted. A list of these is the
// submission snapshot a retry re-derives procedures from.
type ProcedureInput struct {
	ServiceDate        ServiceDate     `json:"service_date" validate:"required"`
	SubmittedProcedure string          `json:"submitted_procedure" validate:"required,procedure_code"`
	ProviderNPI        string          `json:"provider_npi" validate:"required,npi"`
	ProviderFees       decimal.Decimal `json:"provider_fees" validate:"money_gt0"`
	AllowedFees        decimal.Decimal `json:"allowed_fees" validate:"money_gt0"`
	MemberCoinsurance  decimal.Decimal `json:"member_coinsurance" validate:"money_gte0"`
	MemberCopay        decimal.Decimal `json:"member_copay" validate:"money_gte0"`
	Quadrant           *string         `json:"quadrant,omitempty" validate:"omitempty,max=32"`
}

// NewProcedure instantiates a fresh procedure for claimID from input with its
// net fee and status computed.
func NewProcedure(claimID uuid.UUID, input ProcedureInput) Procedure {
	netFee := ProcedureNetFee(input.ProviderFees, input.AllowedFees, input.MemberCoinsurance, input.MemberCopay)
	return Procedure{
		ID:                 uuid.New(),
		ClaimID:            claimID,
		ServiceDate:        input.ServiceDate.Time,
		SubmittedProcedure: input.SubmittedProcedure,
		Quadrant:           input.Quadrant,
		ProviderNPI:        input.ProviderNPI,
		ProviderFees:       input.ProviderFees,
		AllowedFees:        input.AllowedFees,
		MemberCoinsurance:  input.MemberCoinsurance,
		MemberCopay:        input.MemberCopay,
		NetFee:             netFee,
		Status:             ProcedureStatusFor(netFee),
	}
}

// Recompute derives the claim's net fee and status from its current procedures.
func (c *Claim) Recompute() {
	fees := make([]decimal.Decimal, 0, len(c.Procedures))
	statuses := make([]ProcedureStatus, 0, len(c.Procedures))
	for _, p := range c.Procedures {
		fees = append(fees, p.NetFee)
		statuses = append(statuses, p.Status)
	}
	c.NetFee = ClaimNetFee(fees)
	c.Status = AggregateStatus(statuses)
}

// AllSucceeded reports whether every procedure in procs is SUCCESS.
func AllSucceeded(procs []Procedure) bool {
	for _, p := range procs {
		if p.Status != ProcedureSuccess {
			return false
		}
	}
	return len(procs) > 0
}

// ProviderTotal is one row of the provider ranking.
type ProviderTotal struct {
	ProviderNPI string
	TotalNetFee decimal.Decimal
}
