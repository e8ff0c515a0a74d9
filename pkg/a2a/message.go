// Package a2a implements the agent-to-agent envelope used between the
// assistant and its collaborators, plus a fiber route and an HTTP client
// that carry it.
package a2a

import (
	"context"

	"github.com/google/uuid"
)

// Role tags the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ContentText is the only content kind the assistant understands.
const ContentText = "text"

// Content is the payload of a Message.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is one inbound or outbound envelope.
type Message struct {
	MessageID       string  `json:"message_id"`
	ParentMessageID string  `json:"parent_message_id,omitempty"`
	ConversationID  string  `json:"conversation_id,omitempty"`
	Role            Role    `json:"role"`
	Content         Content `json:"content"`
}

// NewTextMessage creates a user text message with a fresh message id.
func NewTextMessage(conversationID, text string) Message {
	return Message{
		MessageID:      uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        Content{Type: ContentText, Text: text},
	}
}

// IsText reports whether the message carries plain text.
func (m Message) IsText() bool {
	return m.Content.Type == ContentText
}

// Text returns the text content, or "" for other content kinds.
func (m Message) Text() string {
	if !m.IsText() {
		return ""
	}
	return m.Content.Text
}

// Reply builds the agent reply to m: a fresh message id, the same
// conversation, and m as parent.
func (m Message) Reply(text string) Message {
	return Message{
		MessageID:       uuid.NewString(),
		ParentMessageID: m.MessageID,
		ConversationID:  m.ConversationID,
		Role:            RoleAgent,
		Content:         Content{Type: ContentText, Text: text},
	}
}

// Handler answers one message with exactly one reply.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message) Message
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) Message

func (f HandlerFunc) HandleMessage(ctx context.Context, msg Message) Message {
	return f(ctx, msg)
}
