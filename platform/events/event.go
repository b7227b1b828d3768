// Package events is the in-process publish/subscribe channel the claim API and
// the pipeline workers use to notify side consumers such as the dead-letter
// archive. Delivery is best effort and never feeds back into a claim's state.
package events

import (
	"context"
	"time"
)

// Event is a published fact. EventName is the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the publish time; embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler consumes events it subscribed to. A returned error is logged by the
// bus on async delivery and joined into PublishSync's result.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }
