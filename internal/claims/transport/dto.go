package transport

import (
	"time"

	"claims_backend/internal/claims/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Claims

type CreateClaimRequest struct {
	ClaimNumber      string                  `json:"claim_number" validate:"required,min=5,max=20"`
	PlanGroup        string                  `json:"plan_group" validate:"required,max=100"`
	SubscriberNumber string                  `json:"subscriber_number" validate:"required,max=100"`
	Procedures       []domain.ProcedureInput `json:"procedures" validate:"required,min=1,dive"`
}

type CreateClaimResponse struct {
	ID uuid.UUID `json:"id"`
}

type ProcedureResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ServiceDate        string          `json:"service_date"`
	SubmittedProcedure string          `json:"submitted_procedure"`
	Quadrant           *string         `json:"quadrant,omitempty"`
	ProviderNPI        string          `json:"provider_npi"`
	ProviderFees       decimal.Decimal `json:"provider_fees"`
	AllowedFees        decimal.Decimal `json:"allowed_fees"`
	MemberCoinsurance  decimal.Decimal `json:"member_coinsurance"`
	MemberCopay        decimal.Decimal `json:"member_copay"`
	NetFee             decimal.Decimal `json:"net_fee"`
	Status             string          `json:"status"`
}

type ClaimResponse struct {
	ID               uuid.UUID           `json:"id"`
	ClaimNumber      string              `json:"claim_number"`
	PlanGroup        string              `json:"plan_group"`
	SubscriberNumber string              `json:"subscriber_number"`
	NetFee           decimal.Decimal     `json:"net_fee"`
	Status           string              `json:"status"`
	Procedures       []ProcedureResponse `json:"procedures"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

// Provider ranking

type TopProvidersRequest struct {
	Limit  *int `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset *int `form:"offset" validate:"omitempty,min=0"`
}

type ProviderTotalResponse struct {
	ProviderNPI string          `json:"provider_npi"`
	TotalNetFee decimal.Decimal `json:"total_net_fee"`
}

// ToClaimResponse maps the aggregate to its API shape.
func ToClaimResponse(c domain.Claim) ClaimResponse {
	procedures := make([]ProcedureResponse, 0, len(c.Procedures))
	for _, p := range c.Procedures {
		procedures = append(procedures, ProcedureResponse{
			ID:                 p.ID,
			ServiceDate:        p.ServiceDate.UTC().Format(time.RFC3339),
			SubmittedProcedure: p.SubmittedProcedure,
			Quadrant:           p.Quadrant,
			ProviderNPI:        p.ProviderNPI,
			ProviderFees:       p.ProviderFees,
			AllowedFees:        p.AllowedFees,
			MemberCoinsurance:  p.MemberCoinsurance,
			MemberCopay:        p.MemberCopay,
			NetFee:             p.NetFee,
			Status:             string(p.Status),
		})
	}

	return ClaimResponse{
		ID:               c.ID,
		ClaimNumber:      c.ClaimNumber,
		PlanGroup:        c.PlanGroup,
		SubscriberNumber: c.SubscriberNumber,
		NetFee:           c.NetFee,
		Status:           string(c.Status),
		Procedures:       procedures,
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
