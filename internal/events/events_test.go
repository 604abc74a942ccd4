package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
}

func (f *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.channel = channel
	f.data = data
	f.attrs = attrs
	return "1", f.err
}

func (f *fakeBackend) Subscribe(_ context.Context, _ string, _ Handler) error { return nil }

func (f *fakeBackend) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishEncodesPayload(t *testing.T) {
	backend := &fakeBackend{}
	publisher := NewPublisher(backend, discardLogger())

	publisher.Publish(context.Background(), ChannelSnippetCreated, ContentEvent{
		Resource:   "snippet",
		ResourceID: 7,
		UserID:     1,
	})

	if backend.channel != ChannelSnippetCreated {
		t.Fatalf("expected channel %q, got %q", ChannelSnippetCreated, backend.channel)
	}

	var event ContentEvent
	if err := json.Unmarshal(backend.data, &event); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if event.ResourceID != 7 || event.UserID != 1 {
		t.Fatalf("unexpected payload %+v", event)
	}
	if backend.attrs["published_at"] == "" {
		t.Fatal("expected a published_at attribute")
	}
}

// Broker failures are swallowed; the caller's request must not fail.
func TestPublishSwallowsBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("broker down")}
	publisher := NewPublisher(backend, discardLogger())

	publisher.Publish(context.Background(), ChannelPostCreated, ContentEvent{ResourceID: 1})
}

func TestNilPublisherDropsEvents(t *testing.T) {
	var publisher *Publisher
	publisher.Publish(context.Background(), ChannelThreadCreated, ContentEvent{})

	if err := publisher.Close(); err != nil {
		t.Fatalf("nil publisher Close returned %v", err)
	}

	publisher = NewPublisher(nil, discardLogger())
	publisher.Publish(context.Background(), ChannelThreadCreated, ContentEvent{})
}
