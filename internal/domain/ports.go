package domain

import "context"

// ChatModel defines how the core talks to a text-generation service.
// Implementations own their own timeout; the core performs no retries.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationStore defines session persistence.
type ConversationStore interface {
	CreateConversation(conv *Conversation) error
	UpdateConversation(conv *Conversation) error
	GetConversation(code SessionCode) (*Conversation, error) // ErrSessionNotFound
}

// MessageStore defines message persistence. ListMessages returns the full
// history in non-decreasing timestamp order, which is the canonical
// conversation order.
type MessageStore interface {
	AppendMessage(msg *Message) error
	ListMessages(code SessionCode) ([]*Message, error)
}

// ConstitutionStore defines ground-rules document persistence.
type ConstitutionStore interface {
	CreateConstitution(c *Constitution) error
	UpdateConstitution(c *Constitution) error
	GetConstitution(id ConstitutionID) (*Constitution, error) // ErrConstitutionNotFound
	ListConstitutions() ([]*Constitution, error)
}

// ChatEvent is the payload fanned out to connected clients.
type ChatEvent struct {
	SessionCode string    `json:"session_code"`
	Sender      string    `json:"sender"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	Fallacy     string    `json:"fallacy,omitempty"`
	Recipient   string    `json:"recipient,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Transport fans events out to connected clients. Fire-and-forget: no
// delivery acknowledgment reaches the core.
type Transport interface {
	Broadcast(code SessionCode, ev ChatEvent)
	SendPrivate(code SessionCode, participant string, ev ChatEvent)
}
