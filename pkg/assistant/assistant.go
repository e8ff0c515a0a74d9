// Package assistant is the orchestrator: it classifies each incoming message
// and answers it either through the stock lookup path or through the
// conversational core.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/a2a"
	"github.com/papercomputeco/tickertape/pkg/chat"
	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/extract"
	"github.com/papercomputeco/tickertape/pkg/intent"
	"github.com/papercomputeco/tickertape/pkg/logger"
	"github.com/papercomputeco/tickertape/pkg/lookup"
)

// DefaultSystemPrompt is the conversational core's system prompt.
const DefaultSystemPrompt = "You are a helpful financial assistant that helps users get stock information. " +
	"You extract company names from user queries to find ticker symbols and prices."

// Responder is the conversational core as seen by the orchestrator.
type Responder interface {
	a2a.Handler
	Respond(ctx context.Context, key conversation.Key, userText string) string
}

// Lookuper resolves a company to a ticker and price.
type Lookuper interface {
	Lookup(ctx context.Context, company string) (*lookup.Result, error)
}

// Observer is told about every answered message.
type Observer func(ctx context.Context, in, reply a2a.Message, route intent.Route)

// Assistant ties classification, extraction, lookup and chat together. It
// keeps no state between messages.
type Assistant struct {
	classifier intent.Classifier
	extractor  extract.Extractor
	pipeline   Lookuper
	responder  Responder
	observers  []Observer
	logger     *zap.Logger
}

// New creates an Assistant.
func New(classifier intent.Classifier, extractor extract.Extractor, pipeline Lookuper, responder Responder, log *zap.Logger) *Assistant {
	return &Assistant{
		classifier: classifier,
		extractor:  extractor,
		pipeline:   pipeline,
		responder:  responder,
		logger:     log,
	}
}

// Observe registers fn to run after each reply is produced.
func (a *Assistant) Observe(fn Observer) {
	a.observers = append(a.observers, fn)
}

// HandleMessage answers msg with exactly one reply correlated to it.
func (a *Assistant) HandleMessage(ctx context.Context, msg a2a.Message) a2a.Message {
	start := time.Now()

	route := intent.RouteChat
	if msg.IsText() {
		route = a.classifier.Classify(msg.Content.Text)
	}

	a.logger.Info("message classified",
		zap.String("message_id", msg.MessageID),
		zap.String("conversation_id", msg.ConversationID),
		zap.String("route", string(route)),
	)

	var reply a2a.Message
	switch route {
	case intent.RouteStock:
		reply = msg.Reply(a.stockReply(ctx, msg))
	default:
		// Non-text content also lands here; the core rejects it without
		// touching history.
		reply = a.responder.HandleMessage(ctx, msg)
	}

	a.logger.Debug("message answered",
		zap.String("message_id", msg.MessageID),
		zap.String("reply_preview", logger.Truncate(reply.Content.Text, 100)),
		zap.Duration("duration", time.Since(start)),
	)

	for _, fn := range a.observers {
		fn(ctx, msg, reply, route)
	}
	return reply
}

// stockReply runs extraction and lookup and never lets an error or panic escape.
func (a *Assistant) stockReply(ctx context.Context, msg a2a.Message) (text string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("stock path panicked",
				zap.String("message_id", msg.MessageID),
				zap.Any("panic", r),
			)
			text = ErrorReply(fmt.Errorf("%v", r))
		}
	}()

	key := conversation.Main(msg.ConversationID)
	company := a.extractor.ExtractCompany(ctx, key, msg.Content.Text)

	result, err := a.pipeline.Lookup(ctx, company)
	if err != nil {
		var notFound lookup.ErrNotFound
		if errors.As(err, &notFound) {
			return NotFoundReply(notFound.Company)
		}
		a.logger.Error("stock lookup failed",
			zap.String("message_id", msg.MessageID),
			zap.String("company", company),
			zap.Error(err),
		)
		return ErrorReply(err)
	}

	a.logger.Info("stock lookup succeeded",
		zap.String("company", result.Company),
		zap.String("ticker", result.Ticker),
	)
	return result.Compose()
}

// NotFoundReply is the apology for an unresolved company or ticker.
func NotFoundReply(company string) string {
	if company == "" {
		return "Sorry, I couldn't tell which company you meant."
	}
	return fmt.Sprintf("I couldn't find the ticker symbol for %s.", company)
}

// ErrorReply is the generic apology for unexpected failures.
func ErrorReply(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error: %v", err)
}

var _ a2a.Handler = (*Assistant)(nil)
var _ Responder = (*chat.Responder)(nil)
