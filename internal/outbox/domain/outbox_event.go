// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types published through the outbox. Payloads carry identifiers and
// lifecycle metadata only, never plaintext PII or invitation codes.
const (
	EventTypeIdentityCreated    = "identity.created"
	EventTypeInvitationCreated  = "invitation.created"
	EventTypeInvitationAccepted = "invitation.accepted"
	EventTypeInvitationExpired  = "invitation.expired"
)

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPendingEvent creates an unprocessed event ready for the outbox table.
func NewPendingEvent(eventType, payload string) *OutboxEvent {
	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxEventStatusPending,
		Retries:   0,
	}
}
