package wsserver

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/example/proximity-chat/domain/chat"
)

// MessageHistory serves persisted group messages for the REST surface.
type MessageHistory interface {
	RecentMessages(ctx context.Context, groupID string, limit int) ([]*chat.Message, error)
}

// GetGroupHistory handles GET /api/v1/groups/:id/messages. The history
// source is resolved per request because it is wired after the server starts.
func (h *Handlers) GetGroupHistory(c *fiber.Ctx, history MessageHistory) error {
	groupID := c.Params("id")
	if groupID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Group ID is required",
		})
	}
	if history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Message store unavailable",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit > 100 {
		limit = 100
	}

	messages, err := history.RecentMessages(c.Context(), groupID, limit)
	if err != nil {
		h.logger.Error("Failed to load history", "groupID", groupID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load messages",
		})
	}

	return c.JSON(fiber.Map{
		"groupId":  groupID,
		"messages": messages,
		"total":    len(messages),
	})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "proximity-chat",
		"clients": h.registry.Count(),
	})
}
