package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "conmart/internal/log"
	"conmart/internal/services"
	"conmart/internal/validate"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	u := currentUser(c)
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fail(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
	}

	review, err := h.Reviews.Submit(u.ID, productID, req.Rating, req.Comment)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "review.submit", map[string]any{"product": productID, "rating": req.Rating})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))
	reviews, err := h.Reviews.List(productID, page, size)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": reviews})
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid review id")
	}
	if err := h.Reviews.Delete(u.ID, id); err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "review deleted"})
}
