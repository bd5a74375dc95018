package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "conmart/internal/log"
	"conmart/internal/services"
	"conmart/internal/validate"
)

type QuotationHandler struct {
	Quotes *services.QuotationService
}

type quotationRequest struct {
	ProductID        string `json:"product"`
	Quantity         int    `json:"quantity"`
	Message          string `json:"message"`
	DeliveryLocation string `json:"delivery_location"`
	RequestDocument  string `json:"request_document"`
}

func (h *QuotationHandler) Request(c *fiber.Ctx) error {
	u := currentUser(c)
	var req quotationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if _, ok := validate.ID(req.ProductID); !ok {
		return fail(c, fiber.StatusBadRequest, "product is required")
	}
	if req.Quantity <= 0 {
		return fail(c, fiber.StatusBadRequest, "quantity must be positive")
	}

	q, err := h.Quotes.Request(u, services.QuotationInput{
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		Message:          req.Message,
		DeliveryLocation: req.DeliveryLocation,
		RequestDocument:  req.RequestDocument,
	})
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "quotation.request", map[string]any{"quotation": q.ID, "product": req.ProductID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"quotation": q})
}

func (h *QuotationHandler) ListMine(c *fiber.Ctx) error {
	u := currentUser(c)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))
	quotes, err := h.Quotes.ListMine(u.ID, page, size)
	if err != nil {
		return failErr(c, err)
	}
	remaining, err := h.Quotes.Remaining(u)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": quotes, "remaining_this_month": remaining})
}

func (h *QuotationHandler) ListReceived(c *fiber.Ctx) error {
	owner := currentOwner(c)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))
	quotes, err := h.Quotes.ListForOwner(owner.ID, page, size)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": quotes})
}

type quotationResponse struct {
	Response         string  `json:"response"`
	PriceQuote       float64 `json:"price_quote"`
	ResponseDocument string  `json:"response_document"`
}

func (h *QuotationHandler) Respond(c *fiber.Ctx) error {
	owner := currentOwner(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid quotation id")
	}
	var req quotationResponse
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Response == "" {
		return fail(c, fiber.StatusBadRequest, "response is required")
	}

	q, err := h.Quotes.Respond(owner.ID, id, req.Response, req.PriceQuote, req.ResponseDocument)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "quotation.respond", map[string]any{"quotation": id})
	return c.JSON(fiber.Map{"quotation": q})
}

func (h *QuotationHandler) Accept(c *fiber.Ctx) error { return h.decide(c, true) }
func (h *QuotationHandler) Reject(c *fiber.Ctx) error { return h.decide(c, false) }

func (h *QuotationHandler) decide(c *fiber.Ctx, accept bool) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid quotation id")
	}
	q, err := h.Quotes.Decide(u.ID, id, accept)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "quotation.decide", map[string]any{"quotation": id, "status": q.Status})
	return c.JSON(fiber.Map{"quotation": q})
}

func (h *QuotationHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid quotation id")
	}
	if err := h.Quotes.Delete(u.ID, id); err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"message": "quotation deleted"})
}
