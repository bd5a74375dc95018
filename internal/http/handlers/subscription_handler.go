package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"conmart/internal/domain"
	applog "conmart/internal/log"
	"conmart/internal/services"
)

type SubscriptionHandler struct {
	Subs *services.SubscriptionService
}

func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	role := c.Query("role")
	if u := currentUser(c); u != nil && role == "" {
		role = u.Role
	}
	plans, err := h.Subs.Plans(role)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	u := currentUser(c)
	sub, err := h.Subs.Current(u.ID)
	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(fiber.Map{"subscription": nil, "tier": u.Tier})
	}
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub, "tier": u.Tier})
}

func (h *SubscriptionHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	subs, err := h.Subs.History(u.ID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": subs})
}

func (h *SubscriptionHandler) Payments(c *fiber.Ctx) error {
	u := currentUser(c)
	payments, err := h.Subs.Payments(u.ID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": payments})
}

type initializeRequest struct {
	Plan string `json:"plan"`
}

// Initialize opens a checkout session for the chosen plan. Free plans settle
// immediately and come back without a checkout URL.
func (h *SubscriptionHandler) Initialize(c *fiber.Ctx) error {
	u := currentUser(c)
	var req initializeRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Plan == "" {
		return fail(c, fiber.StatusBadRequest, "plan is required")
	}

	pay, err := h.Subs.Initiate(c.Context(), u, req.Plan)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "payment.initialize", map[string]any{"tx_ref": pay.TxRef, "plan": req.Plan})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tx_ref":       pay.TxRef,
		"checkout_url": pay.CheckoutURL,
		"status":       pay.Status,
	})
}

// Callback is hit by the gateway (and the redirected browser) after checkout.
func (h *SubscriptionHandler) Callback(c *fiber.Ctx) error {
	txRef := c.Query("tx_ref")
	if txRef == "" {
		return fail(c, fiber.StatusBadRequest, "tx_ref is required")
	}
	pay, err := h.Subs.Confirm(c.Context(), txRef)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "payment.callback", map[string]any{"tx_ref": txRef, "status": pay.Status})
	if pay.Status != domain.PaymentSuccessful {
		return c.JSON(fiber.Map{"status": pay.Status, "message": "payment was not completed"})
	}
	return c.JSON(fiber.Map{"status": pay.Status, "plan_code": pay.PlanCode})
}

func (h *SubscriptionHandler) Verify(c *fiber.Ctx) error {
	u := currentUser(c)
	txRef := c.Params("txref")
	pay, err := h.Subs.Confirm(c.Context(), txRef)
	if err != nil {
		return failErr(c, err)
	}
	if pay.UserID != u.ID {
		return fail(c, fiber.StatusForbidden, "forbidden")
	}
	return c.JSON(fiber.Map{"payment": pay})
}
