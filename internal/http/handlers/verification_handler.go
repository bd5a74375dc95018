package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "conmart/internal/log"
	"conmart/internal/services"
)

const maxDocumentBytes = 15 << 20

type VerificationHandler struct {
	Verifications *services.VerificationService
	MediaDir      string
}

// Submit accepts the verification documents as multipart files, stores them
// under the media root, and opens a review request for the caller.
func (h *VerificationHandler) Submit(c *fiber.Ctx) error {
	u := currentUser(c)

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "multipart form required")
	}
	files := form.File["documents"]
	if len(files) == 0 {
		return fail(c, fiber.StatusBadRequest, "at least one document is required")
	}
	if len(files) > 5 {
		return fail(c, fiber.StatusBadRequest, "at most 5 documents per request")
	}

	var paths []string
	for _, fh := range files {
		if fh.Size > maxDocumentBytes {
			return fail(c, fiber.StatusBadRequest, "document exceeds 15MB limit")
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		switch ext {
		case ".pdf", ".jpg", ".jpeg", ".png":
		default:
			return fail(c, fiber.StatusBadRequest, "documents must be pdf, jpg, or png")
		}

		f, err := fh.Open()
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "unreadable upload")
		}
		data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes+1))
		_ = f.Close()
		if err != nil || len(data) > maxDocumentBytes {
			return fail(c, fiber.StatusBadRequest, "document exceeds 15MB limit")
		}

		rel := filepath.Join("verifications", u.ID, uuid.NewString()+ext)
		full := filepath.Join(h.MediaDir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return failErr(c, err)
		}
		if err := os.WriteFile(full, data, 0o600); err != nil {
			return failErr(c, err)
		}
		paths = append(paths, rel)
	}

	raw, _ := json.Marshal(paths)
	req, err := h.Verifications.Submit(u, string(raw))
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "verification.submit", map[string]any{"request": req.ID, "documents": len(paths)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"verification": req})
}

func (h *VerificationHandler) Status(c *fiber.Ctx) error {
	u := currentUser(c)
	req, err := h.Verifications.Status(u)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return failErr(c, err)
	}
	return c.JSON(fiber.Map{
		"verification_status": u.Verification,
		"latest_request":      req,
	})
}
