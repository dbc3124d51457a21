package river

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// EventJobArgs is a committed domain event queued for background handling.
// Payload holds the full event as JSON so the worker never reads the
// database.
type EventJobArgs struct {
	EventID    string          `json:"event_id"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func (EventJobArgs) Kind() string { return "domain_event.published" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher forwards domain events to River. Publish has the shape of an
// event subscriber and is registered on the event dispatcher.
type Publisher struct {
	client *Client
}

// NewPublisher creates a Publisher that enqueues on client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues event as an async job.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", event.EventName(), err)
	}

	_, err = p.client.Insert(ctx, EventJobArgs{
		EventID:    event.EventID().String(),
		Name:       event.EventName(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
