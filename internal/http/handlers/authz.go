package handlers

import (
	"github.com/gofiber/fiber/v2"

	"conmart/internal/auth"
	"conmart/internal/domain"
	applog "conmart/internal/log"
	"conmart/internal/repos"
)

// currentUser returns the authenticated user a middleware stored earlier.
func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireAuth validates the "Authorization: Token <jwt>" header, rejects
// revoked or stale tokens, and loads the account into Locals.
func RequireAuth(secret string, users *repos.UserRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := auth.FromHeader(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "authentication required")
		}
		claims, err := auth.ValidateToken(secret, raw)
		if err != nil {
			applog.Security(c, "auth.token.invalid", nil)
			return fail(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		if revoked, err := users.IsTokenRevoked(claims.ID); err != nil || revoked {
			applog.Security(c, "auth.token.revoked", nil)
			return fail(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		u, err := users.ByID(claims.UserID)
		if err != nil || !u.IsActive {
			applog.Security(c, "auth.account.blocked", map[string]any{"user": claims.UserID})
			return fail(c, fiber.StatusUnauthorized, "account unavailable")
		}

		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// RequireRole gates a route to one role; run after RequireAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || u.Role != role {
			applog.Security(c, "access.denied.role", map[string]any{"want": role})
			return fail(c, fiber.StatusForbidden, "forbidden")
		}
		return c.Next()
	}
}

// RequireOwnerProfile resolves the supplier profile for product_owner routes
// and stores it in Locals("owner").
func RequireOwnerProfile(owners *repos.OwnerRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || u.Role != domain.RoleProductOwner {
			applog.Security(c, "access.denied.owner", nil)
			return fail(c, fiber.StatusForbidden, "supplier account required")
		}
		owner, err := owners.ByUserID(u.ID)
		if err != nil {
			return fail(c, fiber.StatusForbidden, "supplier profile missing")
		}
		c.Locals("owner", owner)
		return c.Next()
	}
}

func currentOwner(c *fiber.Ctx) *domain.ProductOwner {
	o, _ := c.Locals("owner").(*domain.ProductOwner)
	return o
}
