package notifications

import "context"

// Publisher delivers reservation lifecycle messages to a broker
type Publisher interface {
	Publish(ctx context.Context, event *ReservationEvent) error
	Close() error
}

// NoopPublisher drops every message. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *ReservationEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
