// Package events publishes domain events to a message broker so downstream
// consumers (notifications, search indexing) can react to content changes.
// Publishing is best-effort: a broker failure never fails the request that
// produced the event.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Channels carrying domain events.
const (
	ChannelThreadCreated  = "thread.created"
	ChannelPostCreated    = "post.created"
	ChannelSnippetCreated = "snippet.created"
	ChannelNewsPublished  = "news.published"
	ChannelAccessDenied   = "authz.denied"
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

// Publisher wraps a backend with a stable API. A nil Publisher is valid and
// drops every event, so callers never need to branch on whether events are
// configured.
type Publisher struct {
	backend Backend
	log     *slog.Logger
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend, log *slog.Logger) *Publisher {
	return &Publisher{backend: backend, log: log}
}

// Publish JSON-encodes the payload and sends it to the named channel.
// Failures are logged and swallowed.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) {
	if p == nil || p.backend == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("encode event", "channel", channel, "err", err)
		return
	}

	attrs := map[string]string{
		"published_at": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := p.backend.Publish(ctx, channel, data, attrs); err != nil {
		p.log.Error("publish event", "channel", channel, "err", err)
	}
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

// ContentEvent is the payload published when a user creates content.
type ContentEvent struct {
	Resource   string `json:"resource"`
	ResourceID int    `json:"resource_id"`
	UserID     int    `json:"user_id"`
}

// AccessDeniedEvent is the audit payload published on denied requests.
type AccessDeniedEvent struct {
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	ResourceID int    `json:"resource_id,omitempty"`
	Reason     string `json:"reason"`
}
