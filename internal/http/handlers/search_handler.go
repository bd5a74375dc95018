package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"conmart/internal/repos"
	"conmart/internal/services"
	"conmart/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	f := repos.SearchFilter{
		CategoryID: c.Query("category"),
		City:       c.Query("city"),
	}
	if q, ok := validate.Q(c.Query("q")); ok {
		f.Query = q
	}
	if v := c.Query("quotation_available"); v != "" {
		b := v == "true" || v == "1"
		f.QuotationAvailable = &b
	}
	if v := c.Query("delivery_available"); v != "" {
		b := v == "true" || v == "1"
		f.DeliveryAvailable = &b
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		f.MinPrice = v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		f.MaxPrice = v
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))

	products, err := h.Catalog.Search(f, page, size)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": products})
}
