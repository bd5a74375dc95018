package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"conmart/internal/email"
	applog "conmart/internal/log"
	"conmart/internal/validate"
)

// ContactHandler forwards public contact-form submissions to the site inbox.
type ContactHandler struct {
	Email email.Sender
	To    string
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	name, ok := validate.Name(req.Name)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}
	from, ok := validate.Email(req.Email)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid email address")
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" || len(msg) > 5000 {
		return fail(c, fiber.StatusBadRequest, "message is required (max 5000 characters)")
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Contact form message"
	}
	body := fmt.Sprintf("From: %s <%s>\nPhone: %s\n\n%s", name, from, req.Phone, msg)
	if err := h.Email.Send(c.Context(), h.To, "[Contact] "+subject, body); err != nil {
		applog.Error(c, "contact.send", err, map[string]any{"from": from})
		return fail(c, fiber.StatusInternalServerError, "could not send message, try again later")
	}

	applog.Info(c, "contact.submitted", map[string]any{"from": from})
	return c.JSON(fiber.Map{"message": "thanks, we will get back to you"})
}
