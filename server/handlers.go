package server

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/conversation"
	"github.com/papercomputeco/tickertape/pkg/llm"
	"github.com/papercomputeco/tickertape/pkg/merkle"
)

// ConversationResponse is the user-visible history of one conversation.
type ConversationResponse struct {
	ConversationID string              `json:"conversation_id"`
	Turns          []conversation.Turn `json:"turns"`
}

// handleGetConversation returns the dialogue history of a conversation.
// Internal side conversations are never exposed.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	id := c.Params("id")
	key := conversation.Main(id)
	if !s.store.Has(key) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "conversation not found"})
	}

	return c.JSON(ConversationResponse{
		ConversationID: id,
		Turns:          s.store.History(key),
	})
}

// handleDAGStats returns statistics about the transcript DAG.
func (s *Server) handleDAGStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storer := s.recorder.Storer()

	nodes, err := storer.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list nodes"})
	}

	roots, err := storer.Roots(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get roots"})
	}

	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	return c.JSON(map[string]any{
		"total_nodes": len(nodes),
		"root_count":  len(roots),
		"leaf_count":  len(leaves),
	})
}

// handleGetNode returns a single node by its hash.
func (s *Server) handleGetNode(c *fiber.Ctx) error {
	node, err := s.recorder.Storer().Get(c.UserContext(), c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(node)
}

// HistoryResponse contains the transcript leading up to a node.
type HistoryResponse struct {
	// Messages in chronological order (oldest first, up to and including the requested node)
	Messages []HistoryMessage `json:"messages"`
	// HeadHash is the hash of the node that was requested
	HeadHash string `json:"head_hash"`
	// Depth is the number of messages in the history
	Depth int `json:"depth"`
}

// HistoryMessage represents a message in a transcript.
type HistoryMessage struct {
	Hash           string  `json:"hash"`
	ParentHash     *string `json:"parent_hash,omitempty"`
	Role           string  `json:"role"`
	Text           string  `json:"text"`
	ConversationID string  `json:"conversation_id"`
	MessageID      string  `json:"message_id,omitempty"`
	Route          string  `json:"route,omitempty"`
}

// handleListHistories returns one transcript per leaf node.
func (s *Server) handleListHistories(c *fiber.Ctx) error {
	ctx := c.UserContext()
	storer := s.recorder.Storer()

	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	histories := make([]HistoryResponse, 0, len(leaves))
	for _, leaf := range leaves {
		nodes, err := merkle.Chronological(ctx, storer, leaf.Hash)
		if err != nil {
			s.logger.Warn("failed to build history for leaf", zap.String("hash", leaf.Hash), zap.Error(err))
			continue
		}
		histories = append(histories, buildHistory(leaf.Hash, nodes))
	}

	return c.JSON(map[string]any{
		"count":     len(histories),
		"histories": histories,
	})
}

// handleGetHistory returns the transcript leading up to a given node.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	hash := c.Params("hash")

	nodes, err := merkle.Chronological(c.UserContext(), s.recorder.Storer(), hash)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(buildHistory(hash, nodes))
}

// handleGetTranscript returns the recorded transcript of a conversation.
func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	nodes, err := s.recorder.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load transcript"})
	}
	if len(nodes) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "conversation not found"})
	}

	return c.JSON(buildHistory(nodes[len(nodes)-1].Hash, nodes))
}

func buildHistory(head string, nodes []*merkle.Node) HistoryResponse {
	messages := make([]HistoryMessage, len(nodes))
	for i, n := range nodes {
		messages[i] = HistoryMessage{
			Hash:           n.Hash,
			ParentHash:     n.ParentHash,
			Role:           n.Bucket.Role,
			Text:           n.Bucket.Text,
			ConversationID: n.Bucket.ConversationID,
			MessageID:      n.Bucket.MessageID,
			Route:          n.Bucket.Route,
		}
	}

	return HistoryResponse{
		Messages: messages,
		HeadHash: head,
		Depth:    len(messages),
	}
}
