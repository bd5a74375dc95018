package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"conmart/internal/cache"
	"conmart/internal/domain"
	"conmart/internal/imaging"
	applog "conmart/internal/log"
	"conmart/internal/services"
	"conmart/internal/validate"
)

type ProductHandler struct {
	Catalog  *services.CatalogService
	Products *services.ProductService
	Cache    *cache.Cache
	MediaDir string
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"product": p})
}

type productRequest struct {
	CategoryID         string            `json:"category"`
	SubcategoryID      string            `json:"subcategory"`
	Name               string            `json:"name"`
	NameAmharic        string            `json:"name_amharic"`
	Description        string            `json:"description"`
	Brand              string            `json:"brand"`
	Model              string            `json:"model"`
	Price              float64           `json:"price"`
	PriceNegotiable    *bool             `json:"price_negotiable"`
	QuotationAvailable *bool             `json:"quotation_available"`
	MinOrderQuantity   int               `json:"min_order_quantity"`
	Unit               string            `json:"unit"`
	Location           string            `json:"location"`
	City               string            `json:"city"`
	DeliveryAvailable  *bool             `json:"delivery_available"`
	Specifications     map[string]string `json:"specifications"`
}

func (r *productRequest) apply(p *domain.Product) {
	p.CategoryID = r.CategoryID
	p.SubcategoryID = r.SubcategoryID
	p.Name = r.Name
	p.NameAmharic = r.NameAmharic
	p.Description = r.Description
	p.Brand = r.Brand
	p.Model = r.Model
	p.Price = r.Price
	p.MinOrderQuantity = r.MinOrderQuantity
	p.Unit = r.Unit
	p.Location = r.Location
	p.City = r.City
	if r.PriceNegotiable != nil {
		p.PriceNegotiable = *r.PriceNegotiable
	}
	if r.QuotationAvailable != nil {
		p.QuotationAvailable = *r.QuotationAvailable
	}
	if r.DeliveryAvailable != nil {
		p.DeliveryAvailable = *r.DeliveryAvailable
	}
	if r.Specifications != nil {
		specs, _ := json.Marshal(r.Specifications)
		p.SpecsJSON = string(specs)
	}
}

func (r *productRequest) validate() (string, bool) {
	if _, ok := validate.Name(r.Name); !ok {
		return "name is required", false
	}
	if r.Description == "" {
		return "description is required", false
	}
	if r.CategoryID == "" {
		return "category is required", false
	}
	if r.Price < 0 {
		return "price cannot be negative", false
	}
	if r.Unit == "" {
		return "unit is required", false
	}
	return "", true
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	owner := currentOwner(c)
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if msg, ok := req.validate(); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	p := &domain.Product{ImagesJSON: "[]", VideosJSON: "[]", SpecsJSON: "{}", QuotationAvailable: true}
	req.apply(p)

	created, err := h.Products.Create(owner, p)
	if err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "product.create", map[string]any{"product": created.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": created})
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	owner := currentOwner(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}

	current, err := h.Products.Prods.Get(id)
	if err != nil {
		return failErr(c, err)
	}
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if msg, ok := req.validate(); !ok {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	req.apply(&current)
	updated, err := h.Products.Update(owner.ID, &current)
	if err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "product.update", map[string]any{"product": id})
	return c.JSON(fiber.Map{"product": updated})
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	owner := currentOwner(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	if err := h.Products.Delete(owner.ID, id); err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "product.delete", map[string]any{"product": id})
	return c.JSON(fiber.Map{"message": "product deleted"})
}

func (h *ProductHandler) ListMine(c *fiber.Ctx) error {
	owner := currentOwner(c)
	products, err := h.Products.ListMine(owner.ID)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": products})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *ProductHandler) SetStatus(c *fiber.Ctx) error {
	owner := currentOwner(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.Products.SetStatus(owner.ID, id, req.Status); err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "product.status", map[string]any{"product": id, "status": req.Status})
	return c.JSON(fiber.Map{"message": "status updated"})
}

// UploadImages accepts multipart images, pipes them through the imaging
// normalizer, and appends them to the listing. The first image becomes
// primary when none is set.
func (h *ProductHandler) UploadImages(c *fiber.Ctx) error {
	owner := currentOwner(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	p, err := h.Products.Prods.Get(id)
	if err != nil {
		return failErr(c, err)
	}
	if p.OwnerID != owner.ID {
		return fail(c, fiber.StatusForbidden, "forbidden")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "multipart form required")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return fail(c, fiber.StatusBadRequest, "no images supplied")
	}
	if len(files) > 8 {
		return fail(c, fiber.StatusBadRequest, "at most 8 images per upload")
	}

	var images []string
	_ = json.Unmarshal([]byte(p.ImagesJSON), &images)

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "unreadable upload")
		}
		data, err := imaging.Normalize(f)
		_ = f.Close()
		if err != nil {
			return fail(c, fiber.StatusBadRequest, err.Error())
		}

		rel := filepath.Join("products", p.ID, uuid.NewString()+".jpg")
		full := filepath.Join(h.MediaDir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return failErr(c, err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			return failErr(c, err)
		}
		images = append(images, rel)
	}

	raw, _ := json.Marshal(images)
	p.ImagesJSON = string(raw)
	if p.PrimaryImage == "" {
		p.PrimaryImage = images[0]
	}
	if err := h.Products.Prods.Update(&p); err != nil {
		return failErr(c, err)
	}

	applog.Audit(c, "product.images", map[string]any{"product": id, "count": len(files)})
	return c.JSON(fiber.Map{"images": images, "primary_image": p.PrimaryImage})
}

const maxVideoBytes = 50 << 20

// UploadVideos stores listing videos as-is; only the container is checked.
func (h *ProductHandler) UploadVideos(c *fiber.Ctx) error {
	owner := currentOwner(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	p, err := h.Products.Prods.Get(id)
	if err != nil {
		return failErr(c, err)
	}
	if p.OwnerID != owner.ID {
		return fail(c, fiber.StatusForbidden, "forbidden")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "multipart form required")
	}
	files := form.File["videos"]
	if len(files) == 0 {
		return fail(c, fiber.StatusBadRequest, "no videos supplied")
	}
	if len(files) > 2 {
		return fail(c, fiber.StatusBadRequest, "at most 2 videos per upload")
	}

	var videos []string
	_ = json.Unmarshal([]byte(p.VideosJSON), &videos)

	for _, fh := range files {
		if fh.Size > maxVideoBytes {
			return fail(c, fiber.StatusBadRequest, "video exceeds 50MB limit")
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if ext != ".mp4" && ext != ".webm" {
			return fail(c, fiber.StatusBadRequest, "videos must be mp4 or webm")
		}

		rel := filepath.Join("products", p.ID, uuid.NewString()+ext)
		full := filepath.Join(h.MediaDir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return failErr(c, err)
		}
		if err := c.SaveFile(fh, full); err != nil {
			return failErr(c, err)
		}
		videos = append(videos, rel)
	}

	raw, _ := json.Marshal(videos)
	p.VideosJSON = string(raw)
	if err := h.Products.Prods.Update(&p); err != nil {
		return failErr(c, err)
	}

	applog.Audit(c, "product.videos", map[string]any{"product": id, "count": len(files)})
	return c.JSON(fiber.Map{"videos": videos})
}
