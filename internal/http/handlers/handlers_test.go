package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/config"
	"conmart/internal/repos"
	"conmart/internal/services"
)

type stubGateway struct{}

func (stubGateway) Initialize(context.Context, services.GatewayCheckout) (string, error) {
	return "https://checkout.example/session", nil
}
func (stubGateway) Verify(context.Context, string) (bool, error) { return true, nil }

// captureSender records the last mail instead of delivering it.
type captureSender struct {
	to, subject, body string
}

func (s *captureSender) Send(_ context.Context, to, subject, body string) error {
	s.to, s.subject, s.body = to, subject, body
	return nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		MediaDir:               t.TempDir(),
		JWTSecret:              "test-secret",
		JWTTTL:                 time.Hour,
		StandardQuotationLimit: 10,
		VerificationValidDays:  365,
		ContactEmail:           "inbox@example.com",
	}
	deps := NewDeps(db, cfg, nil, stubGateway{}, nil, &captureSender{})

	app := fiber.New()
	authed := RequireAuth(cfg.JWTSecret, deps.Users)
	admin := RequireRole("admin")

	api := app.Group("/api")
	api.Post("/auth/register", deps.AuthHandler.Register)
	api.Post("/auth/login", deps.AuthHandler.Login)
	api.Post("/auth/logout", authed, deps.AuthHandler.Logout)
	api.Get("/auth/me", authed, deps.AuthHandler.Me)
	api.Get("/categories", deps.CategoryHandler.List)
	api.Post("/quotations", authed, deps.QuotationHandler.Request)
	api.Get("/subscriptions/plans", deps.SubscriptionHandler.Plans)
	api.Get("/admin/users", authed, admin, deps.AdminHandler.ListUsers)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func registerBuyer(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    email,
		"name":     "Test Buyer",
		"password": "Sup3rSecret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)

	token := registerBuyer(t, app, "buyer@example.com")

	resp, body := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "buyer@example.com", user["email"])
	assert.Equal(t, "free", user["tier"])

	// Duplicate email is rejected.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "buyer@example.com",
		"name":     "Other",
		"password": "Sup3rSecret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	// Wrong password gets a 401 without leaking which part was wrong.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "buyer@example.com",
		"password": "WrongPass1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "buyer@example.com",
		"password": "Sup3rSecret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "weak@example.com",
		"name":     "Weak",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "password")

	// Suppliers must name their business.
	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "owner@example.com",
		"name":     "Owner",
		"password": "Sup3rSecret",
		"role":     "product_owner",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "business_name")
}

func TestLogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	token := registerBuyer(t, app, "leaver@example.com")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestAdminRoutesDenyBuyers(t *testing.T) {
	app := newTestApp(t)
	token := registerBuyer(t, app, "nosy@example.com")

	resp, body := doJSON(t, app, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])
}

func TestFreeBuyerQuotationGate(t *testing.T) {
	app := newTestApp(t)
	token := registerBuyer(t, app, "free@example.com")

	resp, body := doJSON(t, app, http.MethodPost, "/api/quotations", token, map[string]any{
		"product":  uuid.NewString(),
		"quantity": 5,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, true, body["upgrade_required"])
	assert.Equal(t, "standard_user", body["upgrade_plan"])
}

func TestCategoriesArePublic(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var tree []map[string]any
	require.NoError(t, json.Unmarshal(raw, &tree))
	assert.NotEmpty(t, tree, "seeded categories should be visible")
}

// Gate denials keep their flavor on the wire: tier blocks advertise the
// upgrade, quota blocks additionally carry quota_exceeded.
func TestGateDenialBodies(t *testing.T) {
	app := fiber.New()
	app.Get("/tier", func(c *fiber.Ctx) error {
		return failErr(c, &services.GateError{Detail: "upgrade required", UpgradePlan: "standard_user"})
	})
	app.Get("/quota", func(c *fiber.Ctx) error {
		return failErr(c, &services.GateError{Detail: "monthly quotation limit reached (5 this month)",
			UpgradePlan: "premium_user", Quota: true})
	})

	resp, body := doJSON(t, app, http.MethodGet, "/tier", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, true, body["upgrade_required"])
	assert.Nil(t, body["quota_exceeded"])

	resp, body = doJSON(t, app, http.MethodGet, "/quota", "", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, true, body["upgrade_required"])
	assert.Equal(t, "premium_user", body["upgrade_plan"])
	assert.Equal(t, true, body["quota_exceeded"])
}

func TestContactForm(t *testing.T) {
	sender := &captureSender{}
	h := &ContactHandler{Email: sender, To: "inbox@example.com"}

	app := fiber.New()
	app.Post("/api/contact", h.Submit)

	resp, body := doJSON(t, app, http.MethodPost, "/api/contact", "", map[string]any{
		"name":    "Abebe K",
		"email":   "abebe@example.com",
		"subject": "Bulk pricing",
		"message": "Looking for 500 bags of cement.",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, "inbox@example.com", sender.to)
	assert.Equal(t, "[Contact] Bulk pricing", sender.subject)
	assert.Contains(t, sender.body, "abebe@example.com")
	assert.Contains(t, sender.body, "500 bags")

	// A bad reply address never reaches the sender.
	sender.to = ""
	resp, body = doJSON(t, app, http.MethodPost, "/api/contact", "", map[string]any{
		"name":    "Abebe K",
		"email":   "not-an-email",
		"message": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, sender.to)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/contact", "", map[string]any{
		"name":  "Abebe K",
		"email": "abebe@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty message is rejected")
}

func TestPlanListingFiltersByRole(t *testing.T) {
	app := newTestApp(t)

	_, body := doJSON(t, app, http.MethodGet, "/api/subscriptions/plans?role=user", "", nil)
	plans, _ := body["plans"].([]any)
	require.NotEmpty(t, plans)
	for _, raw := range plans {
		plan := raw.(map[string]any)
		assert.Equal(t, "user", plan["role"])
	}
}
