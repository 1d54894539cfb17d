// Package notify publishes announcement lifecycle events to NATS so
// downstream consumers (session bots, galleries) can react to fresh artifacts.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/session-audio/announcer/internal/core"
)

// DefaultSubject is the subject announcements are published on when none is
// configured.
const DefaultSubject = "announcer.artifact.created"

// NatsPublisher publishes AnnouncementCreatedEvent messages to a NATS subject.
type NatsPublisher struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// NewNatsPublisher creates a publisher on an established connection.
func NewNatsPublisher(conn *nats.Conn, subject string, log zerolog.Logger) *NatsPublisher {
	if subject == "" {
		subject = DefaultSubject
	}

	return &NatsPublisher{
		conn:    conn,
		subject: subject,
		log:     log,
	}
}

// AnnouncementCreated publishes a single event. Marshalling or publish
// failures are returned to the caller, which treats them as non-fatal.
func (p *NatsPublisher) AnnouncementCreated(_ context.Context, event core.AnnouncementCreatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal announcement event: %w", err)
	}

	err = p.conn.Publish(p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish announcement event: %w", err)
	}

	p.log.Debug().Str("subject", p.subject).Str("filename", event.Filename).Msg("published announcement event")

	return nil
}

// Close drains the connection so queued events are flushed before shutdown.
func (p *NatsPublisher) Close() error {
	err := p.conn.Drain()
	if err != nil {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}

	return nil
}
