package events

import (
	"context"
	"time"
)

const (
	TypeReadingCompleted = "reading.completed"
	TypeChatTransferred  = "chat.transferred"
	TypeMemoryExtracted  = "memory.extracted"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "reading.completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to a bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewReadingCompleted(conversationID, userID string, anonymous, sectioned, futureHidden bool, cardIDs []int) BaseEvent {
	return BaseEvent{
		Type: TypeReadingCompleted,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         userID,
			"anonymous":       anonymous,
			"sectioned":       sectioned,
			"future_hidden":   futureHidden,
			"card_ids":        cardIDs,
		},
		OccurredAt: time.Now(),
	}
}

func NewChatTransferred(conversationID, newUserID, source string, messages int, created bool) BaseEvent {
	return BaseEvent{
		Type: TypeChatTransferred,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"new_user_id":     newUserID,
			"source":          source,
			"messages":        messages,
			"created":         created,
		},
		OccurredAt: time.Now(),
	}
}

func NewMemoryExtracted(conversationID, userID string, saved int) BaseEvent {
	return BaseEvent{
		Type: TypeMemoryExtracted,
		Data: map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         userID,
			"saved":           saved,
		},
		OccurredAt: time.Now(),
	}
}
