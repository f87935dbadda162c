package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types published by the backend.
const (
	OrderCreated         = "order.created"
	OrderStatusChanged   = "order.status_changed"
	MachineCycleFinished = "machine.cycle_finished"
)

// Event is the envelope written to the topic. The message key is TenantID.
type Event struct {
	Type       string    `json:"type"`
	TenantID   string    `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New stamps an event of the given type.
func New(eventType, tenantID string, payload any) Event {
	return Event{Type: eventType, TenantID: tenantID, OccurredAt: time.Now().UTC(), Payload: payload}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers domain events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
