package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated  EventType = "account_created"
	EventAccountUpdated  EventType = "account_updated"
	EventAccountDeleted  EventType = "account_deleted"
	EventAccountLoggedIn EventType = "account_logged_in"
	EventStatusChanged   EventType = "status_changed"
	EventMessageSent     EventType = "message_sent"
)

// AccountEventTypes lists the lifecycle events of the account store.
var AccountEventTypes = []EventType{
	EventAccountCreated,
	EventAccountUpdated,
	EventAccountDeleted,
	EventAccountLoggedIn,
}

// Actor identifies who triggered an event. It is empty for system actions.
type Actor struct {
	AccountID *int64 `json:"account_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, subject string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	AccountID int64                `json:"account_id"`
	Username  string               `json:"username"`
	Role      domain.Role          `json:"role"`
	TeamID    *int64               `json:"team_id,omitempty"`
	Status    domain.AccountStatus `json:"status"`
}

// AccountUpdatedPayload lists the fields that changed.
type AccountUpdatedPayload struct {
	AccountID int64    `json:"account_id"`
	Username  string   `json:"username"`
	Fields    []string `json:"fields"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
}

// AccountLoggedInPayload payload.
type AccountLoggedInPayload struct {
	AccountID int64       `json:"account_id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	AgentCode string             `json:"agent_code"`
	OldStatus domain.AgentStatus `json:"old_status,omitempty"`
	NewStatus domain.AgentStatus `json:"new_status"`
	Duration  *int64             `json:"duration,omitempty"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID string                 `json:"message_id"`
	Type      domain.MessageType     `json:"type"`
	Priority  domain.MessagePriority `json:"priority"`
	ToCode    *string                `json:"to_code,omitempty"`
	ToTeamID  *int64                 `json:"to_team_id,omitempty"`
}
