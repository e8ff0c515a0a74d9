package a2a

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/tickertape/pkg/llm"
)

// Mount registers h on app as POST path. Every decodable envelope gets
// exactly one reply envelope with status 200; only bodies that are not an
// envelope at all are rejected.
func Mount(app fiber.Router, path string, h Handler, logger *zap.Logger) {
	app.Post(path, func(c *fiber.Ctx) error {
		startTime := time.Now()

		var msg Message
		if err := json.Unmarshal(c.Body(), &msg); err != nil {
			logger.Error("failed to parse message", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid message body"})
		}
		if msg.MessageID == "" {
			msg.MessageID = uuid.NewString()
		}

		logger.Debug("received message",
			zap.String("message_id", msg.MessageID),
			zap.String("conversation_id", msg.ConversationID),
			zap.String("content_type", msg.Content.Type),
		)

		reply := h.HandleMessage(c.UserContext(), msg)

		logger.Debug("replying",
			zap.String("message_id", reply.MessageID),
			zap.String("parent_message_id", reply.ParentMessageID),
			zap.Duration("duration", time.Since(startTime)),
		)

		return c.JSON(reply)
	})
}
