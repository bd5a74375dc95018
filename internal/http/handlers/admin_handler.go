package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"conmart/internal/cache"
	"conmart/internal/domain"
	"conmart/internal/imaging"
	applog "conmart/internal/log"
	"conmart/internal/repos"
	"conmart/internal/services"
	"conmart/internal/tasks"
	"conmart/internal/validate"
)

type AdminHandler struct {
	Admin         *services.AdminService
	Verifications *services.VerificationService
	Users         *repos.UserRepo
	Owners        *repos.OwnerRepo
	Cache         *cache.Cache
	Tasks         *asynq.Client
	MediaDir      string
}

// subjectEmail resolves the account behind a verification request for the
// decision email. Empty on lookup failure; the caller skips the mail.
func (h *AdminHandler) subjectEmail(vr *domain.VerificationRequest) (email, name string) {
	userID := vr.SubjectID
	if vr.SubjectType == domain.SubjectOwner {
		owner, err := h.Owners.ByID(vr.SubjectID)
		if err != nil {
			return "", ""
		}
		userID = owner.UserID
	}
	u, err := h.Users.ByID(userID)
	if err != nil {
		return "", ""
	}
	return u.Email, u.Name
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Admin.ListUsers(c.Query("role"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": users})
}

func (h *AdminHandler) ToggleUserActive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid user id")
	}
	u, err := h.Admin.ToggleUserActive(id)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "admin.user.toggle", map[string]any{"user": id, "is_active": u.IsActive})
	return c.JSON(fiber.Map{"user": u})
}

func (h *AdminHandler) ModerationQueue(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	products, err := h.Admin.ModerationQueue(limit)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": products})
}

type moderateRequest struct {
	Approve         bool   `json:"approve"`
	RejectionReason string `json:"rejection_reason"`
	AdminNotes      string `json:"admin_notes"`
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
}

func (h *AdminHandler) ModerateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid product id")
	}
	var req moderateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !req.Approve && req.RejectionReason == "" {
		return fail(c, fiber.StatusBadRequest, "rejection_reason is required when rejecting")
	}

	p, err := h.Admin.ModerateProduct(id, services.ModerateInput{
		Approve:         req.Approve,
		RejectionReason: req.RejectionReason,
		AdminNotes:      req.AdminNotes,
		CategoryID:      req.Category,
		SubcategoryID:   req.Subcategory,
	})
	if err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "admin.product.moderate", map[string]any{"product": id, "status": p.Status})
	return c.JSON(fiber.Map{"product": p})
}

func (h *AdminHandler) VerificationQueue(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size", "20"))
	reqs, err := h.Verifications.Queue(c.Query("status"), page, size)
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{"results": reqs})
}

type verificationDecision struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) ApproveVerification(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid request id")
	}
	var req verificationDecision
	_ = c.BodyParser(&req)

	vr, err := h.Verifications.Approve(u.ID, id, req.Notes)
	if err != nil {
		return failErr(c, err)
	}
	if to, name := h.subjectEmail(vr); to != "" {
		_ = tasks.EnqueueEmail(h.Tasks, tasks.EmailPayload{
			To:      to,
			Subject: "Your account is verified",
			Body:    fmt.Sprintf("Hi %s,\n\nYour verification was approved. It stays valid until %s.\n", name, vr.ExpiresAt),
		})
	}
	applog.Audit(c, "admin.verification.approve", map[string]any{"request": id})
	return c.JSON(fiber.Map{"verification": vr})
}

func (h *AdminHandler) RejectVerification(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid request id")
	}
	var req verificationDecision
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Reason == "" {
		return fail(c, fiber.StatusBadRequest, "reason is required")
	}

	vr, err := h.Verifications.Reject(u.ID, id, req.Reason)
	if err != nil {
		return failErr(c, err)
	}
	if to, name := h.subjectEmail(vr); to != "" {
		_ = tasks.EnqueueEmail(h.Tasks, tasks.EmailPayload{
			To:      to,
			Subject: "Your verification was not approved",
			Body:    fmt.Sprintf("Hi %s,\n\nYour verification request was rejected: %s\nYou can submit new documents anytime.\n", name, req.Reason),
		})
	}
	applog.Audit(c, "admin.verification.reject", map[string]any{"request": id})
	return c.JSON(fiber.Map{"verification": vr})
}

type categoryRequest struct {
	Parent      string `json:"parent"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	NameAmharic string `json:"name_amharic"`
	Description string `json:"description"`
	DescAmharic string `json:"description_amharic"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	IsActive    *bool  `json:"is_active"`
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	slug, ok := validate.Slug(req.Slug)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid slug")
	}
	if _, ok := validate.Name(req.Name); !ok {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}

	cat := &domain.Category{
		ParentID:    req.Parent,
		Slug:        slug,
		Name:        req.Name,
		NameAmharic: req.NameAmharic,
		Description: req.Description,
		DescAmharic: req.DescAmharic,
		Icon:        req.Icon,
		Order:       req.Order,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	created, err := h.Admin.CreateCategory(cat)
	if err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "admin.category.create", map[string]any{"category": created.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"category": created})
}

func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid category id")
	}
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	slug, ok := validate.Slug(req.Slug)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid slug")
	}

	cat := &domain.Category{
		ID:          id,
		ParentID:    req.Parent,
		Slug:        slug,
		Name:        req.Name,
		NameAmharic: req.NameAmharic,
		Description: req.Description,
		DescAmharic: req.DescAmharic,
		Icon:        req.Icon,
		Order:       req.Order,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	updated, err := h.Admin.UpdateCategory(cat)
	if err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "admin.category.update", map[string]any{"category": id})
	return c.JSON(fiber.Map{"category": updated})
}

func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid category id")
	}
	if err := h.Admin.DeleteCategory(id); err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "admin.category.delete", map[string]any{"category": id})
	return c.JSON(fiber.Map{"message": "category deleted"})
}

// UploadCategoryImages adds rotating header images to a category.
func (h *AdminHandler) UploadCategoryImages(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid category id")
	}
	cat, err := h.Admin.Cats.Get(id)
	if err != nil {
		return failErr(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "multipart form required")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return fail(c, fiber.StatusBadRequest, "no images supplied")
	}

	var images []string
	_ = json.Unmarshal([]byte(cat.ImagesJSON), &images)

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

		rel := filepath.Join("categories", cat.ID, uuid.NewString()+".jpg")
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
	cat.ImagesJSON = string(raw)
	if err := h.Admin.Cats.Update(&cat); err != nil {
		return failErr(c, err)
	}
	h.Cache.Invalidate(c.Context(), "catalog:")
	applog.Audit(c, "admin.category.images", map[string]any{"category": id, "count": len(files)})
	return c.JSON(fiber.Map{"images": images})
}

// TriggerImport queues a legacy catalog import on the worker.
func (h *AdminHandler) TriggerImport(c *fiber.Ctx) error {
	if err := tasks.EnqueueImport(h.Tasks); err != nil {
		return fail(c, fiber.StatusServiceUnavailable, "task queue is not configured")
	}
	applog.Audit(c, "admin.import.queue", nil)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "import queued"})
}
