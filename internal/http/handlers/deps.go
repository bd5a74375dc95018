package handlers

import (
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"

	"conmart/internal/cache"
	"conmart/internal/config"
	"conmart/internal/email"
	"conmart/internal/repos"
	"conmart/internal/services"
)

// Deps wires repositories, services, and handlers in one place so main only
// deals in routes.
type Deps struct {
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo

	Auth *services.AuthService

	AuthHandler         *AuthHandler
	CategoryHandler     *CategoryHandler
	ProductHandler      *ProductHandler
	SearchHandler       *SearchHandler
	QuotationHandler    *QuotationHandler
	MessageHandler      *MessageHandler
	VerificationHandler *VerificationHandler
	SubscriptionHandler *SubscriptionHandler
	DashboardHandler    *DashboardHandler
	NotificationHandler *NotificationHandler
	ReviewHandler       *ReviewHandler
	FavoriteHandler     *FavoriteHandler
	AdminHandler        *AdminHandler
	ContactHandler      *ContactHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, cch *cache.Cache,
	gateway services.PaymentGateway, taskClient *asynq.Client, sender email.Sender) *Deps {
	userRepo := repos.NewUserRepo(db)
	ownerRepo := repos.NewOwnerRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	quoteRepo := repos.NewQuotationRepo(db)
	msgRepo := repos.NewMessageRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	verRepo := repos.NewVerificationRepo(db)
	subRepo := repos.NewSubscriptionRepo(db)
	noteRepo := repos.NewNotificationRepo(db)

	notifySvc := services.NewNotificationService(noteRepo)
	authSvc := services.NewAuthService(userRepo, ownerRepo, cfg.JWTSecret, cfg.JWTTTL)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	productSvc := services.NewProductService(prodRepo, ownerRepo, catRepo)
	quoteSvc := services.NewQuotationService(quoteRepo, prodRepo, userRepo, ownerRepo,
		notifySvc, cfg.StandardQuotationLimit)
	msgSvc := services.NewMessageService(msgRepo, userRepo, ownerRepo, prodRepo, notifySvc)
	verSvc := services.NewVerificationService(verRepo, userRepo, ownerRepo, notifySvc,
		cfg.VerificationValidDays)
	subSvc := services.NewSubscriptionService(subRepo, userRepo, ownerRepo, notifySvc,
		gateway, cfg.CallbackBase)
	reviewSvc := services.NewReviewService(reviewRepo, prodRepo, ownerRepo)
	dashSvc := services.NewDashboardService(userRepo, ownerRepo, prodRepo, quoteRepo,
		msgRepo, verRepo, subRepo, cfg.StandardQuotationLimit)
	adminSvc := services.NewAdminService(userRepo, ownerRepo, prodRepo, catRepo, notifySvc)
	favSvc := services.NewFavoriteService(userRepo, prodRepo)

	return &Deps{
		Users:  userRepo,
		Owners: ownerRepo,
		Auth:   authSvc,

		AuthHandler:         &AuthHandler{Auth: authSvc, MediaDir: cfg.MediaDir},
		CategoryHandler:     &CategoryHandler{Catalog: catalogSvc, Cache: cch},
		ProductHandler:      &ProductHandler{Catalog: catalogSvc, Products: productSvc, Cache: cch, MediaDir: cfg.MediaDir},
		SearchHandler:       &SearchHandler{Catalog: catalogSvc},
		QuotationHandler:    &QuotationHandler{Quotes: quoteSvc},
		MessageHandler:      &MessageHandler{Messages: msgSvc},
		VerificationHandler: &VerificationHandler{Verifications: verSvc, MediaDir: cfg.MediaDir},
		SubscriptionHandler: &SubscriptionHandler{Subs: subSvc},
		DashboardHandler:    &DashboardHandler{Dashboards: dashSvc, Owners: ownerRepo},
		NotificationHandler: &NotificationHandler{Notifications: notifySvc},
		ReviewHandler:       &ReviewHandler{Reviews: reviewSvc},
		FavoriteHandler:     &FavoriteHandler{Favorites: favSvc},
		AdminHandler: &AdminHandler{
			Admin: adminSvc, Verifications: verSvc,
			Users: userRepo, Owners: ownerRepo,
			Cache: cch, Tasks: taskClient, MediaDir: cfg.MediaDir,
		},
		ContactHandler: &ContactHandler{Email: sender, To: cfg.ContactEmail},
	}
}
