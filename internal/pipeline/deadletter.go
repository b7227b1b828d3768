package pipeline

import (
	"context"

	"claims_backend/internal/events"
	"claims_backend/platform/logger"
)

// DeadLetterHandler is the terminal stage. It records the failure and
// publishes ClaimDeadLettered for the sinks; it changes no state and
// queues nothing.
type DeadLetterHandler struct {
	bus         events.Bus
	maxAttempts int
	log         *logger.Logger
}

// NewDeadLetterHandler creates the handler.
func NewDeadLetterHandler(bus events.Bus, maxAttempts int, log *logger.Logger) *DeadLetterHandler {
	return &DeadLetterHandler{bus: bus, maxAttempts: maxAttempts, log: log}
}

// Handle never fails the job: a sink error is logged and dropped.
func (h *DeadLetterHandler) Handle(ctx context.Context, job DeadLetter) error {
	log := h.log.WithContext(ctx).WithClaimID(job.ClaimID.String())
	log.Error("claim moved to dead letter queue", "reason", job.Reason, "attempts", job.Attempts)

	if h.bus == nil {
		return nil
	}

	err := h.bus.PublishSync(ctx, events.ClaimDeadLettered{
		BaseEvent:   events.NewBaseEvent(),
		ClaimID:     job.ClaimID,
		Reason:      job.Reason,
		Attempts:    job.Attempts,
		MaxAttempts: h.maxAttempts,
	})
	if err != nil {
		log.Warn("dead letter sink failed", "error", err)
	}
	return nil
}
