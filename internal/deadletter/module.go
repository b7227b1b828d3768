// Package deadletter holds the sinks that receive permanently failed claims:
// an object storage archive and an operator mail alert. Both are optional.
package deadletter

import (
	"context"
	"errors"

	"claims_backend/internal/events"
	"claims_backend/platform/config"
	"claims_backend/platform/logger"
)

// Config is what the module reads to decide which sinks to enable.
type Config interface {
	config.MinIOConfig
	config.SMTPConfig
}

// Module subscribes the enabled sinks to ClaimDeadLettered.
type Module struct {
	archive  *Archive
	notifier *Notifier
	log      *logger.Logger
}

// NewModule builds the sinks enabled by cfg. With nothing configured the
// module is a no-op subscriber.
func NewModule(cfg Config, log *logger.Logger) (*Module, error) {
	m := &Module{log: log}

	if cfg.IsMinIOEnabled() {
		store, err := NewMinIOStore(cfg)
		if err != nil {
			return nil, err
		}
		m.archive = NewArchive(store, cfg.GetMinioBucketDeadLetters())
	}
	if cfg.IsDeadLetterAlertEnabled() {
		m.notifier = NewNotifier(NewSMTPMailer(cfg), cfg.GetDeadLetterAlertEmail())
	}
	return m, nil
}

// NewModuleWithSinks is used by tests and callers that bring their own sinks.
func NewModuleWithSinks(archive *Archive, notifier *Notifier, log *logger.Logger) *Module {
	return &Module{archive: archive, notifier: notifier, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "deadletter"
}

// RegisterHandlers subscribes to pipeline events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ClaimDeadLettered{}.EventName(), m)
	m.log.Info("dead letter sinks registered", "archive", m.archive != nil, "alert", m.notifier != nil)
}

// Handle runs every enabled sink; one failing sink does not skip the other.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ClaimDeadLettered)
	if !ok {
		return nil
	}

	var errs []error
	if m.archive != nil {
		if err := m.archive.Store(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
