// Package events publishes domain events to a message queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Routing keys of the events the application emits.
const (
	PostCreated                 = "post.created"
	PostDeleted                 = "post.deleted"
	MaintenanceMonthlyReset     = "maintenance.monthly_reset"
	MaintenanceSubscriptionRuns = "maintenance.subscription_renewals"
)

// Event is the JSON envelope written to the queue.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Publisher defines the interface for event publishing.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}

func encode(eventType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", eventType, err)
	}
	return body, nil
}

// LogPublisher writes events to the log instead of a broker. It is used when
// RABBITMQ_URL is not set.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	body, err := encode(eventType, payload)
	if err != nil {
		return err
	}
	p.logger.Debug("Event", zap.String("type", eventType), zap.ByteString("body", body))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
