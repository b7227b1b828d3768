package pipeline

import (
	"time"

	"claims_backend/internal/claims/repository"
	"claims_backend/internal/events"
	"claims_backend/platform/config"
	"claims_backend/platform/logger"
)

// Settings are the tunables of the pipeline.
type Settings struct {
	Retry     RetryPolicy
	LeaseWait time.Duration
	NotFound  NotFoundPolicy
}

// SettingsFrom reads Settings from configuration.
func SettingsFrom(cfg config.PipelineConfig) Settings {
	return Settings{
		Retry: RetryPolicy{
			MaxAttempts: cfg.GetMaxAttempts(),
			BaseDelay:   cfg.GetRetryBaseDelay(),
			MaxDelay:    cfg.GetRetryMaxDelay(),
		},
		LeaseWait: cfg.GetLeaseWait(),
		NotFound:  NotFoundPolicy(cfg.GetNotFoundPolicy()),
	}
}

// ClaimStore is the part of the claim repository the pipeline writes through.
type ClaimStore interface {
	TxBeginner
	FailureMarker
}

var _ ClaimStore = (repository.Repository)(nil)

// Deps are the collaborators every stage is built from.
type Deps struct {
	Claims    ClaimStore
	Snapshots *SnapshotStore
	Lease     Locker
	Queue     Enqueuer
	Bus       events.Bus
	Settler   Settler
}

// New wires all stages behind one dispatcher.
func New(deps Deps, settings Settings, log *logger.Logger) *Dispatcher {
	settler := deps.Settler
	if settler == nil {
		settler = NewLoggingSettler(log)
	}

	processor := NewProcessor(deps.Claims, settings.NotFound)
	return NewDispatcher(
		NewClaimStage(processor, deps.Lease, deps.Snapshots, deps.Queue, settings.LeaseWait, log),
		NewRetryCoordinator(deps.Snapshots, deps.Claims, deps.Queue, settings.Retry, log),
		NewPaymentPipeline(deps.Queue, settler, log),
		NewDeadLetterHandler(deps.Bus, settings.Retry.MaxAttempts, log),
		log,
	)
}
