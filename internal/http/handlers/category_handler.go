package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"conmart/internal/cache"
	"conmart/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
	Cache   *cache.Cache
}

const categoryCacheKey = "catalog:categories"

// List serves the flattened parent+children tree, cached when Redis is up.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	var cached []services.CategoryNode
	if h.Cache.GetJSON(c.Context(), categoryCacheKey, &cached) {
		return c.JSON(cached)
	}

	tree, err := h.Catalog.CategoryTree()
	if err != nil {
		return failErr(c, err)
	}
	h.Cache.SetJSON(c.Context(), categoryCacheKey, tree)
	return c.JSON(tree)
}

func (h *CategoryHandler) Detail(c *fiber.Ctx) error {
	cat, err := h.Catalog.GetCategory(c.Params("id"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"category": cat})
}

// Products lists the visible products of a category or subcategory.
func (h *CategoryHandler) Products(c *fiber.Ctx) error {
	cat, err := h.Catalog.GetCategory(c.Params("id"))
	if err != nil {
		return failErr(c, err)
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))

	products, err := h.Catalog.ProductsByCategory(cat.ID, page, size)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": products})
}
