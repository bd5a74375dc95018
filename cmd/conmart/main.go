package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"conmart/internal/cache"
	"conmart/internal/chapa"
	"conmart/internal/config"
	"conmart/internal/domain"
	"conmart/internal/email"
	"conmart/internal/http/handlers"
	"conmart/internal/legacy"
	applog "conmart/internal/log"
	"conmart/internal/repos"
	"conmart/internal/services"
	"conmart/internal/tasks"
)

// chapaGateway adapts the Chapa API client to the payment gateway the
// subscription service expects.
type chapaGateway struct {
	client *chapa.Client
}

func (g chapaGateway) Initialize(ctx context.Context, in services.GatewayCheckout) (string, error) {
	first, last := splitName(in.Name)
	return g.client.Initialize(ctx, chapa.InitializeRequest{
		Amount:      strconv.FormatFloat(in.Amount, 'f', 2, 64),
		Currency:    in.Currency,
		Email:       in.Email,
		FirstName:   first,
		LastName:    last,
		TxRef:       in.TxRef,
		CallbackURL: in.CallbackURL,
	})
}

func (g chapaGateway) Verify(ctx context.Context, txRef string) (bool, error) {
	return g.client.Verify(ctx, txRef)
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "Customer", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func main() {
	mode := flag.String("m", "all", "run mode: api, worker, or all")
	flag.Parse()

	cfg := config.Load()

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	var cch *cache.Cache
	var taskClient *asynq.Client
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("[warn] redis unavailable, running without cache: %v", err)
		} else {
			cch = cache.New(rdb, cfg.CacheTTL)
			taskClient = tasks.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
	}

	gateway := chapaGateway{client: chapa.New(cfg.ChapaBaseURL, cfg.ChapaSecretKey)}
	sender := newSender(cfg)
	deps := handlers.NewDeps(db, cfg, cch, gateway, taskClient, sender)

	switch *mode {
	case "api":
		runAPI(cfg, deps)
	case "worker":
		runWorker(cfg, db, gateway, sender)
	case "all":
		go runWorker(cfg, db, gateway, sender)
		runAPI(cfg, deps)
	default:
		log.Fatalf("unknown mode %q (want api, worker, or all)", *mode)
	}
}

func runAPI(cfg config.Config, deps *handlers.Deps) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= 500 {
				applog.Error(c, "server.error", err, nil)
				return c.Status(code).JSON(fiber.Map{"error": "internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Server().MaxRequestBodySize = 32 << 20

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/media/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		log.Fatalf("media dir: %v", err)
	}

	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	})

	authed := handlers.RequireAuth(cfg.JWTSecret, deps.Users)
	admin := handlers.RequireRole(domain.RoleAdmin)
	owner := handlers.RequireRole(domain.RoleProductOwner)
	ownerProfile := handlers.RequireOwnerProfile(deps.Owners)

	loginLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, retry later"})
		},
	})

	api := app.Group("/api")

	// Accounts
	api.Post("/auth/register", deps.AuthHandler.Register)
	api.Post("/auth/login", loginLimiter, deps.AuthHandler.Login)
	api.Post("/auth/logout", authed, deps.AuthHandler.Logout)
	api.Get("/auth/me", authed, deps.AuthHandler.Me)
	api.Patch("/auth/profile", authed, deps.AuthHandler.UpdateProfile)
	api.Post("/auth/password", authed, deps.AuthHandler.ChangePassword)
	api.Post("/auth/avatar", authed, deps.AuthHandler.UploadAvatar)

	api.Post("/contact", deps.ContactHandler.Submit)

	// Catalog
	api.Get("/categories", deps.CategoryHandler.List)
	api.Get("/categories/:id", deps.CategoryHandler.Detail)
	api.Get("/categories/:id/products", deps.CategoryHandler.Products)
	api.Get("/products/search", deps.SearchHandler.Search)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/products/:id/reviews", deps.ReviewHandler.List)

	// Buyer actions
	api.Post("/products/:id/reviews", authed, deps.ReviewHandler.Submit)
	api.Delete("/reviews/:id", authed, deps.ReviewHandler.Delete)
	api.Post("/products/:id/favorite", authed, deps.FavoriteHandler.Toggle)
	api.Get("/favorites", authed, deps.FavoriteHandler.List)

	// Supplier listings
	api.Get("/my-products", authed, owner, ownerProfile, deps.ProductHandler.ListMine)
	api.Post("/products", authed, owner, ownerProfile, deps.ProductHandler.Create)
	api.Put("/products/:id", authed, owner, ownerProfile, deps.ProductHandler.Update)
	api.Delete("/products/:id", authed, owner, ownerProfile, deps.ProductHandler.Delete)
	api.Post("/products/:id/status", authed, owner, ownerProfile, deps.ProductHandler.SetStatus)
	api.Post("/products/:id/images", authed, owner, ownerProfile, deps.ProductHandler.UploadImages)
	api.Post("/products/:id/videos", authed, owner, ownerProfile, deps.ProductHandler.UploadVideos)

	// Quotations
	api.Post("/quotations", authed, deps.QuotationHandler.Request)
	api.Get("/quotations", authed, deps.QuotationHandler.ListMine)
	api.Get("/quotations/received", authed, owner, ownerProfile, deps.QuotationHandler.ListReceived)
	api.Post("/quotations/:id/respond", authed, owner, ownerProfile, deps.QuotationHandler.Respond)
	api.Post("/quotations/:id/accept", authed, deps.QuotationHandler.Accept)
	api.Post("/quotations/:id/reject", authed, deps.QuotationHandler.Reject)
	api.Delete("/quotations/:id", authed, deps.QuotationHandler.Delete)

	// Messaging
	api.Post("/messages", authed, deps.MessageHandler.Send)
	api.Get("/messages/conversations", authed, deps.MessageHandler.Conversations)
	api.Get("/messages/unread", authed, deps.MessageHandler.UnreadCount)
	api.Post("/messages/:id/read", authed, deps.MessageHandler.MarkRead)
	api.Post("/messages/conversations/:partner/read", authed, deps.MessageHandler.MarkConversationRead)

	// Verification
	api.Post("/verification", authed, deps.VerificationHandler.Submit)
	api.Get("/verification/status", authed, deps.VerificationHandler.Status)

	// Subscriptions & payments
	api.Get("/subscriptions/plans", deps.SubscriptionHandler.Plans)
	api.Get("/subscriptions/current", authed, deps.SubscriptionHandler.Current)
	api.Get("/subscriptions/history", authed, deps.SubscriptionHandler.History)
	api.Get("/payments", authed, deps.SubscriptionHandler.Payments)
	api.Post("/payments/initialize", authed, deps.SubscriptionHandler.Initialize)
	api.Get("/payments/callback", deps.SubscriptionHandler.Callback)
	api.Get("/payments/verify/:txref", authed, deps.SubscriptionHandler.Verify)

	// Dashboards & notifications
	api.Get("/dashboard", authed, deps.DashboardHandler.Overview)
	api.Get("/notifications", authed, deps.NotificationHandler.List)
	api.Post("/notifications/:id/read", authed, deps.NotificationHandler.MarkRead)
	api.Post("/notifications/read-all", authed, deps.NotificationHandler.MarkAllRead)

	// Admin
	adm := api.Group("/admin", authed, admin)
	adm.Get("/users", deps.AdminHandler.ListUsers)
	adm.Post("/users/:id/toggle-active", deps.AdminHandler.ToggleUserActive)
	adm.Get("/products/moderation", deps.AdminHandler.ModerationQueue)
	adm.Post("/products/:id/moderate", deps.AdminHandler.ModerateProduct)
	adm.Get("/verifications", deps.AdminHandler.VerificationQueue)
	adm.Post("/verifications/:id/approve", deps.AdminHandler.ApproveVerification)
	adm.Post("/verifications/:id/reject", deps.AdminHandler.RejectVerification)
	adm.Post("/categories", deps.AdminHandler.CreateCategory)
	adm.Post("/categories/:id/images", deps.AdminHandler.UploadCategoryImages)
	adm.Put("/categories/:id", deps.AdminHandler.UpdateCategory)
	adm.Delete("/categories/:id", deps.AdminHandler.DeleteCategory)
	adm.Post("/import", deps.AdminHandler.TriggerImport)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

func newSender(cfg config.Config) email.Sender {
	if cfg.SMTPHost != "" {
		return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername,
			cfg.SMTPPassword, cfg.SMTPFrom)
	}
	fs, err := email.NewFileSender(cfg.EmailLogFile)
	if err != nil {
		log.Fatalf("email sender: %v", err)
	}
	return fs
}

func runWorker(cfg config.Config, db *sqlx.DB, gateway services.PaymentGateway, sender email.Sender) {
	if cfg.RedisAddr == "" {
		log.Printf("[worker] REDIS_ADDR not set, background worker disabled")
		return
	}

	userRepo := repos.NewUserRepo(db)
	ownerRepo := repos.NewOwnerRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	verRepo := repos.NewVerificationRepo(db)
	subRepo := repos.NewSubscriptionRepo(db)
	noteRepo := repos.NewNotificationRepo(db)

	notifySvc := services.NewNotificationService(noteRepo)
	verSvc := services.NewVerificationService(verRepo, userRepo, ownerRepo, notifySvc,
		cfg.VerificationValidDays)
	subSvc := services.NewSubscriptionService(subRepo, userRepo, ownerRepo, notifySvc,
		gateway, cfg.CallbackBase)

	var importer *legacy.Importer
	if cfg.LegacyBaseURL != "" {
		importer = legacy.NewImporter(legacy.NewClient(cfg.LegacyBaseURL, cfg.LegacyToken),
			catRepo, prodRepo, userRepo, ownerRepo)
	}

	proc := &tasks.Processor{
		Email:         sender,
		Users:         userRepo,
		Verifications: verSvc,
		Subscriptions: subSvc,
		Importer:      importer,
	}

	srv, mux := tasks.NewServer(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, proc)
	sched, err := tasks.NewScheduler(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	go func() {
		if err := sched.Run(); err != nil {
			log.Printf("[worker] scheduler stopped: %v", err)
		}
	}()

	if err := srv.Run(mux); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
