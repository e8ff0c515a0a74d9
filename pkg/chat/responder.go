// Package chat is the conversational core: it turns a conversation's history
// plus a new user turn into one assistant reply via the inference backend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/a2a"
	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/llm"
	"github.com/papercomputeco/tickertape/pkg/logger"
)

// UnsupportedContentReply is the fixed reply to non-text messages.
const UnsupportedContentReply = "I can only process text messages."

// ErrUnsupportedContent is returned for content kinds other than text.
var ErrUnsupportedContent = errors.New("only text content is supported")

// Backend is the inference service: one ordered history in, one assistant text out.
type Backend interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Responder keeps per-conversation history in a conversation.Store and asks
// the Backend for each reply. It holds no state of its own.
type Responder struct {
	backend      Backend
	store        *conversation.Store
	systemPrompt string
	logger       *zap.Logger
}

// NewResponder creates a Responder. An empty systemPrompt disables the
// system turn.
func NewResponder(backend Backend, store *conversation.Store, systemPrompt string, log *zap.Logger) *Responder {
	return &Responder{
		backend:      backend,
		store:        store,
		systemPrompt: systemPrompt,
		logger:       log,
	}
}

// Store returns the conversation store backing this responder.
func (r *Responder) Store() *conversation.Store {
	return r.store
}

// Complete appends userText to the conversation for key and returns the
// backend's reply, which is appended as an assistant turn. On failure the
// user turn stays in history, no assistant turn is added, and the error is
// returned. Calls on the same key are serialized for their whole duration.
func (r *Responder) Complete(ctx context.Context, key conversation.Key, userText string) (string, error) {
	var reply string
	err := r.store.With(key, func(c *conversation.Conversation, created bool) error {
		if created && r.systemPrompt != "" {
			c.Append(conversation.SystemTurn(r.systemPrompt))
		}
		c.Append(conversation.UserTurn(userText))

		start := time.Now()
		text, err := r.backend.Chat(ctx, conversation.Messages(c.Turns()))
		if err != nil {
			r.logger.Warn("inference backend failed",
				zap.Stringer("conversation", key),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return err
		}

		c.Append(conversation.AssistantTurn(text))
		r.logger.Debug("assistant replied",
			zap.Stringer("conversation", key),
			zap.Int("turns", c.Len()),
			zap.String("content_preview", logger.Truncate(text, 80)),
			zap.Duration("duration", time.Since(start)),
		)
		reply = text
		return nil
	})
	return reply, err
}

// Respond is Complete with the failure absorbed into the reply text.
func (r *Responder) Respond(ctx context.Context, key conversation.Key, userText string) string {
	reply, err := r.Complete(ctx, key, userText)
	if err != nil {
		return FailureReply(err)
	}
	return reply
}

// HandleMessage answers a transport envelope on the conversation it names.
func (r *Responder) HandleMessage(ctx context.Context, msg a2a.Message) a2a.Message {
	if !msg.IsText() {
		r.logger.Info("rejecting unsupported content",
			zap.String("message_id", msg.MessageID),
			zap.String("content_type", msg.Content.Type),
		)
		return msg.Reply(UnsupportedContentReply)
	}
	return msg.Reply(r.Respond(ctx, conversation.Main(msg.ConversationID), msg.Content.Text))
}

// FailureReply is the user-visible text for a backend failure.
func FailureReply(err error) string {
	return fmt.Sprintf("Sorry, I couldn't get a response from the language model: %v", err)
}
