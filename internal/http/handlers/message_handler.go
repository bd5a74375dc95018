package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "conmart/internal/log"
	"conmart/internal/services"
	"conmart/internal/validate"
)

type MessageHandler struct {
	Messages *services.MessageService
}

type messageRequest struct {
	Receiver string `json:"receiver"`
	Product  string `json:"product"`
	Content  string `json:"content"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	u := currentUser(c)
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if _, ok := validate.ID(req.Receiver); !ok {
		return fail(c, fiber.StatusBadRequest, "receiver is required")
	}
	if req.Content == "" {
		return fail(c, fiber.StatusBadRequest, "content is required")
	}

	m, err := h.Messages.Send(u, req.Receiver, req.Product, req.Content)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "message.send", map[string]any{"message": m.ID, "receiver": req.Receiver})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": m})
}

func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	u := currentUser(c)
	convos, err := h.Messages.Conversations(u.ID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"conversations": convos})
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid message id")
	}
	if err := h.Messages.MarkRead(u.ID, id); err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "marked read"})
}

func (h *MessageHandler) MarkConversationRead(c *fiber.Ctx) error {
	u := currentUser(c)
	partner, ok := validate.ID(c.Params("partner"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid partner id")
	}
	if err := h.Messages.MarkConversationRead(u.ID, partner); err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "conversation marked read"})
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	u := currentUser(c)
	n, err := h.Messages.UnreadCount(u.ID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}
