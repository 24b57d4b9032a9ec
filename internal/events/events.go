package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campus-hub/helpdesk-service/internal/models"
)

type EventType string

const (
	EventInvitationIssued     EventType = "invitation.issued"
	EventInvitationConsumed   EventType = "invitation.consumed"
	EventUserRegistered       EventType = "user.registered"
	EventRoleRequestSubmitted EventType = "role_request.submitted"
	EventRoleRequestApproved  EventType = "role_request.approved"
	EventRoleRequestDenied    EventType = "role_request.denied"
	EventContentFlagged       EventType = "content.flagged"
	EventContentFlagCleared   EventType = "content.flag_cleared"
	EventContentHidden        EventType = "content.hidden"
	EventContentUnhidden      EventType = "content.unhidden"
	EventUserMuted            EventType = "user.muted"
	EventUserUnmuted          EventType = "user.unmuted"
)

// Event is the envelope published for every domain event. Consumers (the
// notification service, audit trail) subscribe to the topic; delivery is
// outside this service's scope.
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Actor      string                 `json:"actor,omitempty"`
	Subject    string                 `json:"subject,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent builds an envelope with a fresh id and timestamp.
func NewEvent(eventType EventType, actor, subject string, payload map[string]interface{}) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		Subject:    subject,
		Payload:    payload,
	}
}

// RoleGrantPayload builds the payload for role-request decision events.
func RoleGrantPayload(requestID uint, requested models.RoleSet) map[string]interface{} {
	return map[string]interface{}{
		"request_id": requestID,
		"roles":      requested.Roles(),
	}
}

// ModerationPayload builds the payload for flag/hide events.
func ModerationPayload(kind models.ContentKind, itemID uint, reason string) map[string]interface{} {
	payload := map[string]interface{}{
		"kind":    string(kind),
		"item_id": itemID,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return payload
}

// EventPublisher is the outbound port for domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
