// Package claims provides the claims bounded context module: submission,
// status polling and the provider ranking.
package claims

import (
	"claims_backend/internal/claims/handler"
	"claims_backend/internal/claims/repository"
	"claims_backend/internal/claims/service"
	"claims_backend/internal/events"
	apphttp "claims_backend/internal/http"
	"claims_backend/internal/pipeline"
	"claims_backend/platform/httpkit"
	"claims_backend/platform/logger"
	"claims_backend/platform/validator"
)

// Module is the claims bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	log     *logger.Logger
}

// NewModule creates and initializes the claims module.
func NewModule(repo repository.Repository, snapshots service.SubmissionStore, queue pipeline.Enqueuer, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, snapshots, queue, bus, val, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
		repo:    repo,
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "claims"
}

// Service returns the claims service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts claims routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ranking := httpkit.NewPerMinuteLimiter(ctx.Config.GetRankingRateLimitPerMinute(), ctx.Logger)

	group := ctx.V1.Group("/claims")
	group.POST("", m.handler.CreateClaim)
	group.GET("/top-npis", ranking.RateLimit(), m.handler.TopProviders)
	group.GET("/:id", m.handler.GetClaim)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
