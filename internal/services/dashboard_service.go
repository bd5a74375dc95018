package services

import (
	"conmart/internal/domain"
	"conmart/internal/entitlement"
	"conmart/internal/repos"
)

type DashboardService struct {
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo
	Prods  *repos.ProductRepo
	Quotes *repos.QuotationRepo
	Msgs   *repos.MessageRepo
	Reqs   *repos.VerificationRepo
	Subs   *repos.SubscriptionRepo

	StandardLimit int
}

func NewDashboardService(users *repos.UserRepo, owners *repos.OwnerRepo,
	prods *repos.ProductRepo, quotes *repos.QuotationRepo, msgs *repos.MessageRepo,
	reqs *repos.VerificationRepo, subs *repos.SubscriptionRepo, standardLimit int) *DashboardService {
	return &DashboardService{
		Users: users, Owners: owners, Prods: prods, Quotes: quotes,
		Msgs: msgs, Reqs: reqs, Subs: subs, StandardLimit: standardLimit,
	}
}

// BuyerDashboard is the buyer landing payload.
type BuyerDashboard struct {
	Tier               string           `json:"tier"`
	VerificationStatus string           `json:"verification_status"`
	FavoriteCount      int              `json:"favorite_count"`
	Favorites          []domain.Product `json:"favorites"`
	QuotationCount     int              `json:"quotation_count"`
	PendingQuotations  int              `json:"pending_quotations"`
	QuotationQuota     int              `json:"quotation_quota"`
	UnreadMessages     int              `json:"unread_messages"`
	UpgradePlan        string           `json:"upgrade_plan,omitempty"`
}

func (s *DashboardService) ForBuyer(u *domain.User) (*BuyerDashboard, error) {
	d := &BuyerDashboard{
		Tier:               u.Tier,
		VerificationStatus: u.Verification,
		QuotationQuota:     entitlement.QuotationQuota(u.Tier, s.StandardLimit),
		UpgradePlan:        entitlement.NextUpgradePlan(u.Role, u.Tier),
	}

	var err error
	if d.FavoriteCount, err = s.Users.FavoriteCount(u.ID); err != nil {
		return nil, err
	}
	if d.Favorites, err = s.Users.FavoriteProducts(u.ID, 6); err != nil {
		return nil, err
	}
	if d.QuotationCount, err = s.Quotes.CountByUser(u.ID, ""); err != nil {
		return nil, err
	}
	if d.PendingQuotations, err = s.Quotes.CountByUser(u.ID, domain.QuotationPending); err != nil {
		return nil, err
	}
	if d.UnreadMessages, err = s.Msgs.UnreadCount(u.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// OwnerDashboard is the supplier landing payload.
type OwnerDashboard struct {
	Tier               string                  `json:"tier"`
	VerificationStatus string                  `json:"verification_status"`
	ProductsCount      int                     `json:"products_count"`
	ProductsLimit      int                     `json:"products_limit"`
	LimitReached       bool                    `json:"limit_reached"`
	ProductsByStatus   map[string]int          `json:"products_by_status"`
	QuotationCount     int                     `json:"quotation_count"`
	PendingQuotations  int                     `json:"pending_quotations"`
	UnreadMessages     int                     `json:"unread_messages"`
	AverageRating      float64                 `json:"average_rating"`
	TotalReviews       int                     `json:"total_reviews"`
	FavoriteInsights   []repos.FavoriteInsight `json:"favorite_insights"`
	UpgradePlan        string                  `json:"upgrade_plan,omitempty"`
}

func (s *DashboardService) ForOwner(u *domain.User, owner *domain.ProductOwner) (*OwnerDashboard, error) {
	count, err := s.Owners.ProductCount(owner.ID)
	if err != nil {
		return nil, err
	}
	d := &OwnerDashboard{
		Tier:               owner.Tier,
		VerificationStatus: owner.Verification,
		ProductsCount:      count,
		ProductsLimit:      entitlement.ProductLimit(owner.Tier),
		LimitReached:       entitlement.HasReachedProductLimit(owner.Tier, count),
		AverageRating:      owner.AverageRating,
		TotalReviews:       owner.TotalReviews,
		UpgradePlan:        entitlement.NextUpgradePlan(domain.RoleProductOwner, owner.Tier),
	}

	mine, err := s.Prods.ListByOwner(owner.ID)
	if err != nil {
		return nil, err
	}
	d.ProductsByStatus = map[string]int{}
	for _, p := range mine {
		d.ProductsByStatus[p.Status]++
	}

	if d.QuotationCount, err = s.Quotes.CountByOwner(owner.ID, ""); err != nil {
		return nil, err
	}
	if d.PendingQuotations, err = s.Quotes.CountByOwner(owner.ID, domain.QuotationPending); err != nil {
		return nil, err
	}
	if d.UnreadMessages, err = s.Msgs.UnreadCount(u.ID); err != nil {
		return nil, err
	}
	if d.FavoriteInsights, err = s.Prods.FavoriteInsights(owner.ID); err != nil {
		return nil, err
	}
	return d, nil
}

// AdminDashboard aggregates platform-wide counters for the admin landing
// page.
type AdminDashboard struct {
	TotalUsers           int            `json:"total_users"`
	TotalOwners          int            `json:"total_owners"`
	UsersByVerification  map[string]int `json:"users_by_verification"`
	OwnersByVerification map[string]int `json:"owners_by_verification"`
	ProductsByStatus     map[string]int `json:"products_by_status"`
	PendingVerifications int            `json:"pending_verifications"`
	PendingProducts      int            `json:"pending_products"`
	Revenue              float64        `json:"revenue"`
}

func (s *DashboardService) ForAdmin() (*AdminDashboard, error) {
	d := &AdminDashboard{
		UsersByVerification:  map[string]int{},
		OwnersByVerification: map[string]int{},
	}

	users, err := s.Users.List("")
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		switch u.Role {
		case domain.RoleUser:
			d.TotalUsers++
			d.UsersByVerification[u.Verification]++
		case domain.RoleProductOwner:
			d.TotalOwners++
		}
	}

	owners, err := s.Owners.List()
	if err != nil {
		return nil, err
	}
	for _, o := range owners {
		d.OwnersByVerification[o.Verification]++
	}

	if d.ProductsByStatus, err = s.Prods.CountByStatus(); err != nil {
		return nil, err
	}
	d.PendingProducts = d.ProductsByStatus[domain.ProductUnderReview]

	reqs, err := s.Reqs.CountByStatus()
	if err != nil {
		return nil, err
	}
	d.PendingVerifications = reqs[domain.RequestPending]

	if d.Revenue, err = s.Subs.Revenue(); err != nil {
		return nil, err
	}
	return d, nil
}
