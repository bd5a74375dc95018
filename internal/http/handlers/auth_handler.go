package handlers

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"conmart/internal/auth"
	"conmart/internal/domain"
	"conmart/internal/imaging"
	applog "conmart/internal/log"
	"conmart/internal/services"
	"conmart/internal/validate"
)

type AuthHandler struct {
	Auth     *services.AuthService
	MediaDir string
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Language string `json:"preferred_language"`

	BusinessName  string `json:"business_name"`
	BusinessDesc  string `json:"business_description"`
	BusinessAddr  string `json:"business_address"`
	BusinessCity  string `json:"business_city"`
	BusinessPhone string `json:"business_phone"`
	BusinessEmail string `json:"business_email"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	email, ok := validate.Email(req.Email)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "invalid email address")
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}
	if !validate.Password(req.Password) {
		return fail(c, fiber.StatusBadRequest,
			"password must be 8-64 characters with upper, lower and digit")
	}
	if req.Role == "" {
		req.Role = domain.RoleUser
	}
	if !validate.OneOf(req.Role, domain.RoleUser, domain.RoleProductOwner) {
		return fail(c, fiber.StatusBadRequest, "role must be user or product_owner")
	}
	if req.Role == domain.RoleProductOwner {
		if _, ok := validate.Name(req.BusinessName); !ok {
			return fail(c, fiber.StatusBadRequest, "business_name is required for suppliers")
		}
	}

	u, token, err := h.Auth.Register(services.RegisterInput{
		Email: email, Name: name, Password: req.Password, Role: req.Role,
		Phone: req.Phone, Language: req.Language,
		BusinessName: req.BusinessName, BusinessDesc: req.BusinessDesc,
		BusinessAddr: req.BusinessAddr, BusinessCity: req.BusinessCity,
		BusinessPhone: req.BusinessPhone, BusinessEmail: req.BusinessEmail,
	})
	if err != nil {
		return failErr(c, err)
	}

	applog.Audit(c, "auth.register", map[string]any{"user": u.ID, "role": u.Role})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": token, "user": u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	u, token, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return failErr(c, err)
	}

	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login", map[string]any{"user": u.ID})
	return c.JSON(fiber.Map{"token": token, "user": u})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(*auth.Claims)
	if claims == nil {
		return fail(c, fiber.StatusUnauthorized, "authentication required")
	}
	if err := h.Auth.Logout(claims); err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": currentUser(c)})
}

type profileRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"preferred_language"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	u := currentUser(c)
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	name := u.Name
	if req.Name != "" {
		var ok bool
		if name, ok = validate.Name(req.Name); !ok {
			return fail(c, fiber.StatusBadRequest, "invalid name")
		}
	}
	phone := u.Phone
	if req.Phone != "" {
		var ok bool
		if phone, ok = validate.Phone(req.Phone); !ok {
			return fail(c, fiber.StatusBadRequest, "invalid phone number")
		}
	}
	lang := u.Language
	if req.Language != "" {
		if !validate.OneOf(req.Language, "en", "am") {
			return fail(c, fiber.StatusBadRequest, "preferred_language must be en or am")
		}
		lang = req.Language
	}

	updated, err := h.Auth.UpdateProfile(u.ID, name, phone, lang)
	if err != nil {
		return failErr(c, err)
	}
	applog.Audit(c, "profile.update", nil)
	return c.JSON(fiber.Map{"user": updated})
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	u := currentUser(c)
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !validate.Password(req.NewPassword) {
		return fail(c, fiber.StatusBadRequest,
			"password must be 8-64 characters with upper, lower and digit")
	}
	if err := h.Auth.ChangePassword(u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		applog.Security(c, "auth.password.fail", nil)
		return failErr(c, err)
	}
	applog.Audit(c, "auth.password.change", nil)
	return c.JSON(fiber.Map{"message": "password updated"})
}

func (h *AuthHandler) UploadAvatar(c *fiber.Ctx) error {
	u := currentUser(c)
	fh, err := c.FormFile("avatar")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "avatar file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()

	data, err := imaging.Normalize(f)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	rel := filepath.Join("avatars", uuid.NewString()+".jpg")
	full := filepath.Join(h.MediaDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return failErr(c, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return failErr(c, err)
	}
	if err := h.Auth.Users.UpdateAvatar(u.ID, rel); err != nil {
		return failErr(c, err)
	}

	applog.Audit(c, "profile.avatar", map[string]any{"path": rel})
	return c.JSON(fiber.Map{"avatar": rel})
}
