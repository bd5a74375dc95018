package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "conmart/internal/log"
	"conmart/internal/services"
)

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// failErr maps service errors onto the wire contract. Gate denials carry
// upgrade routing, everything unrecognized is a logged 500.
func failErr(c *fiber.Ctx, err error) error {
	if gate, ok := services.AsGate(err); ok {
		body := fiber.Map{"error": gate.Detail}
		if gate.UpgradePlan != "" {
			body["upgrade_required"] = true
			body["upgrade_plan"] = gate.UpgradePlan
		} else {
			body["verification_required"] = true
		}
		if gate.Quota {
			body["quota_exceeded"] = true
		}
		applog.Security(c, "access.gated", map[string]any{"detail": gate.Detail})
		return c.Status(fiber.StatusForbidden).JSON(body)
	}

	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return fail(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrBadState):
		return fail(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrBadCreds),
		errors.Is(err, services.ErrAccountBlocked):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, "something went wrong")
}
