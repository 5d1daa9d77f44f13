// Package queue publishes and consumes audit events over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// AuditQueue is the durable queue carrying all audit events.
const AuditQueue = "audit.events"

// Event types carried in the envelope.
const (
	TypeUserRegistered     = "user.registered"
	TypeConnectionUpserted = "connection.upserted"
)

// EventPublisher is what handlers depend on; a nil publisher disables
// auditing without touching the request flow.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Envelope wraps every published event with its type and timestamp.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// UserRegisteredEvent is published after a successful registration.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	RegisteredAt string `json:"registered_at"`
}

// ConnectionUpsertedEvent is published after a connection upsert.  It
// carries the target coordinates but never the credentials.
type ConnectionUpsertedEvent struct {
	ProjectID  uint64 `json:"project_id"`
	UserID     uint64 `json:"user_id"`
	Name       string `json:"name"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Database   string `json:"database"`
	LatencyMs  int64  `json:"latency_ms"`
	UpsertedAt string `json:"upserted_at"`
}
