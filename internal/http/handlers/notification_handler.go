package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"conmart/internal/services"
	"conmart/internal/validate"
)

type NotificationHandler struct {
	Notifications *services.NotificationService
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))
	items, err := h.Notifications.List(u.ID, page, size)
	if err != nil {
		return failErr(c, err)
	}
	unread, err := h.Notifications.UnreadCount(u.ID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": items, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid notification id")
	}
	if err := h.Notifications.MarkRead(id, u.ID); err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "marked read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Notifications.MarkAllRead(u.ID); err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "all marked read"})
}
