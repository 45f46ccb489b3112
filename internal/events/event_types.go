package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserActivated   EventType = "user_activated"
	EventUserDeleted     EventType = "user_deleted"
	EventPasswordChanged EventType = "password_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Username  string      `json:"username,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	Reason string `json:"reason"` // "cleanup" or "scheduling_rollback"
}
