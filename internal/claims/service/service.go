package service

import (
	"context"
	"strings"

	"claims_backend/internal/claims/domain"
	"claims_backend/internal/claims/repository"
	"claims_backend/internal/claims/transport"
	"claims_backend/internal/events"
	"claims_backend/internal/pipeline"
	"claims_backend/platform/apperr"
	"claims_backend/platform/logger"
	"claims_backend/platform/sanitize"
	"claims_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	defaultTopProvidersLimit = 10
	maxTopProvidersLimit     = 100
)

// SubmissionStore persists the submitted procedures for later retries.
type SubmissionStore interface {
	SaveSubmission(ctx context.Context, claimID uuid.UUID, procedures []domain.ProcedureInput) (bool, error)
}

// Service accepts claim submissions and serves claim reads.
type Service struct {
	repo      repository.Repository
	snapshots SubmissionStore
	queue     pipeline.Enqueuer
	bus       events.Bus
	val       *validator.Validator
	log       *logger.Logger
}

// New creates a new claims service.
func New(repo repository.Repository, snapshots SubmissionStore, queue pipeline.Enqueuer, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, snapshots: snapshots, queue: queue, bus: bus, val: val, log: log}
}

// CreateClaim validates the submission, stores a PENDING claim with its
// snapshot and queues the first processing job.
func (s *Service) CreateClaim(ctx context.Context, req transport.CreateClaimRequest) (transport.CreateClaimResponse, error) {
	req.ClaimNumber = strings.TrimSpace(req.ClaimNumber)
	req.PlanGroup = sanitize.Text(req.PlanGroup)
	req.SubscriberNumber = sanitize.Text(req.SubscriberNumber)
	if err := s.val.Struct(req); err != nil {
		return transport.CreateClaimResponse{}, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	exists, err := s.repo.ClaimNumberExists(ctx, req.ClaimNumber)
	if err != nil {
		return transport.CreateClaimResponse{}, err
	}
	if exists {
		return transport.CreateClaimResponse{}, apperr.Conflict("claim number already exists")
	}

	// The snapshot goes first: a claim row must never exist without one.
	claimID := uuid.New()
	log := s.log.WithContext(ctx).WithClaimID(claimID.String())

	if _, err := s.snapshots.SaveSubmission(ctx, claimID, req.Procedures); err != nil {
		log.Error("failed to store submission snapshot", "error", err)
		return transport.CreateClaimResponse{}, apperr.Wrap(apperr.KindInternal, "failed to store submission", err)
	}

	claim, err := s.repo.CreateClaim(ctx, repository.CreateClaimParams{
		ID:               claimID,
		ClaimNumber:      req.ClaimNumber,
		PlanGroup:        req.PlanGroup,
		SubscriberNumber: req.SubscriberNumber,
	})
	if err != nil {
		return transport.CreateClaimResponse{}, err
	}

	// The claim is accepted from here on; a lost enqueue is picked up by the stale claim sweeper.
	job := pipeline.ProcessClaim{ClaimID: claim.ID, Procedures: req.Procedures}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Warn("failed to enqueue claim processing", "error", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ClaimSubmitted{
			BaseEvent:   events.NewBaseEvent(),
			ClaimID:     claim.ID,
			ClaimNumber: claim.ClaimNumber,
			Procedures:  len(req.Procedures),
		})
	}

	log.Info("claim submitted", "claim_number", claim.ClaimNumber, "procedures", len(req.Procedures))
	return transport.CreateClaimResponse{ID: claim.ID}, nil
}

// GetClaim returns a claim with its procedures.
func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (transport.ClaimResponse, error) {
	claim, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return transport.ClaimResponse{}, err
	}
	return transport.ToClaimResponse(claim), nil
}

// TopProviders ranks provider NPIs by summed net fee.
func (s *Service) TopProviders(ctx context.Context, req transport.TopProvidersRequest) ([]transport.ProviderTotalResponse, error) {
	if err := s.val.Struct(req); err != nil {
		return nil, apperr.Validation("validation failed").WithDetails(validator.FieldErrors(err))
	}

	limit := defaultTopProvidersLimit
	if req.Limit != nil {
		limit = min(*req.Limit, maxTopProvidersLimit)
	}
	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}

	totals, err := s.repo.TopProviders(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([]transport.ProviderTotalResponse, 0, len(totals))
	for _, t := range totals {
		result = append(result, transport.ProviderTotalResponse{ProviderNPI: t.ProviderNPI, TotalNetFee: t.TotalNetFee})
	}
	return result, nil
}
