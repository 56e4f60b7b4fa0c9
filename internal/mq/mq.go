package mq

import (
	"context"
	"encoding/json"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Publisher wraps a backend with a stable API. A nil Publisher is valid
// and drops everything, so callers never need to branch on whether a
// broker is configured.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Publish sends a message to the named channel.
func (p *Publisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if p == nil || p.backend == nil {
		return "", nil
	}
	return p.backend.Publish(ctx, channel, data, attrs)
}

// PublishJSON marshals the payload and sends it with an event-type attribute.
func (p *Publisher) PublishJSON(ctx context.Context, channel, eventType string, payload any) (string, error) {
	if p == nil || p.backend == nil {
		return "", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, channel, data, map[string]string{"event": eventType})
}

// Subscribe consumes messages from the named channel.
func (p *Publisher) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
