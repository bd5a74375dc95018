package handlers

import (
	"github.com/gofiber/fiber/v2"

	"conmart/internal/domain"
	"conmart/internal/repos"
	"conmart/internal/services"
)

type DashboardHandler struct {
	Dashboards *services.DashboardService
	Owners     *repos.OwnerRepo
}

// Overview renders the dashboard matching the caller's role.
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	u := currentUser(c)
	switch u.Role {
	case domain.RoleAdmin:
		d, err := h.Dashboards.ForAdmin()
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{"dashboard": d})
	case domain.RoleProductOwner:
		owner, err := h.Owners.ByUserID(u.ID)
		if err != nil {
			return failErr(c, err)
		}
		d, err := h.Dashboards.ForOwner(u, owner)
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{"dashboard": d})
	default:
		d, err := h.Dashboards.ForBuyer(u)
		if err != nil {
			return failErr(c, err)
		}
		return c.JSON(fiber.Map{"dashboard": d})
	}
}
