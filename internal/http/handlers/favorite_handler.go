package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"conmart/internal/services"
	"conmart/internal/validate"
)

type FavoriteHandler struct {
	Favorites *services.FavoriteService
}

func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	u := currentUser(c)
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	favorited, err := h.Favorites.Toggle(u.ID, productID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"favorited": favorited})
}

func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	products, err := h.Favorites.List(u.ID, limit)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": products})
}
