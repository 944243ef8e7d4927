package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a session.
type Type string

// Session event types
const (
	TypeSessionStarted      Type = "session_started"
	TypeStateChanged        Type = "state_changed"
	TypeCardDealt           Type = "card_dealt"
	TypeCardSelected        Type = "card_selected"
	TypeCardRevealed        Type = "card_revealed"
	TypeAllRevealed         Type = "all_revealed"
	TypeInterpretationReady Type = "interpretation_ready"
	TypeSessionError        Type = "session_error"
	TypeSessionRestarted    Type = "session_restarted"
	TypeSessionClosed       Type = "session_closed"
)

// Event is a notification about a reading session.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// SessionID is the session the event belongs to
	SessionID uuid.UUID `json:"session_id"`

	// Type indicates what happened
	Type Type `json:"type"`

	// State is the session state after the change
	State string `json:"state"`

	// Payload contains event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the given type and payload. A nil payload
// leaves Payload empty.
func NewEvent(sessionID uuid.UUID, eventType Type, state string, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &Event{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      eventType,
		State:     state,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the session machine to publish events without direct knowledge
// of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent does nothing.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
