// Package transcript records every exchange handled by the assistant as a
// chain of merkle nodes per conversation.
package transcript

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/a2a"
	"github.com/papercomputeco/tickertape/pkg/merkle"
)

// Recorder appends inbound messages and replies to a merkle.Storer. Each
// conversation forms its own chain; the head of each chain is cached and,
// after a restart, recovered from the store's leaves.
type Recorder struct {
	storer merkle.Storer
	logger *zap.Logger

	mu    sync.Mutex
	heads map[string]*merkle.Node
}

// NewRecorder creates a Recorder over storer.
func NewRecorder(storer merkle.Storer, logger *zap.Logger) *Recorder {
	return &Recorder{
		storer: storer,
		logger: logger,
		heads:  make(map[string]*merkle.Node),
	}
}

// Storer returns the underlying store.
func (r *Recorder) Storer() merkle.Storer {
	return r.storer
}

// Record stores in and then reply, chained after the conversation's current
// head, and returns the new head hash.
func (r *Recorder) Record(ctx context.Context, in, reply a2a.Message, route string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.head(ctx, in.ConversationID)
	if err != nil {
		return "", err
	}

	inNode := merkle.NewNode(bucketFor(in, ""), head)
	if _, err := r.storer.Put(ctx, inNode); err != nil {
		return "", fmt.Errorf("storing message node: %w", err)
	}

	replyNode := merkle.NewNode(bucketFor(reply, route), inNode)
	if _, err := r.storer.Put(ctx, replyNode); err != nil {
		return "", fmt.Errorf("storing reply node: %w", err)
	}

	r.heads[in.ConversationID] = replyNode
	r.logger.Debug("transcript recorded",
		zap.String("conversation_id", in.ConversationID),
		zap.String("head_hash", replyNode.Hash[:16]),
	)
	return replyNode.Hash, nil
}

// History returns the recorded chain of a conversation, oldest first.
func (r *Recorder) History(ctx context.Context, conversationID string) ([]*merkle.Node, error) {
	r.mu.Lock()
	head, err := r.head(ctx, conversationID)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if head == nil {
		return []*merkle.Node{}, nil
	}
	return merkle.Chronological(ctx, r.storer, head.Hash)
}

// head must be called with r.mu held.
func (r *Recorder) head(ctx context.Context, conversationID string) (*merkle.Node, error) {
	if h, ok := r.heads[conversationID]; ok {
		return h, nil
	}

	leaves, err := r.storer.Leaves(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leaves: %w", err)
	}
	var head *merkle.Node
	for _, l := range leaves {
		if l.Bucket.ConversationID == conversationID {
			head = l
		}
	}
	if head != nil {
		r.heads[conversationID] = head
	}
	return head, nil
}

func bucketFor(m a2a.Message, route string) merkle.Bucket {
	return merkle.Bucket{
		Type:           "message",
		Role:           string(m.Role),
		Text:           m.Content.Text,
		ContentType:    m.Content.Type,
		ConversationID: m.ConversationID,
		MessageID:      m.MessageID,
		Route:          route,
	}
}
