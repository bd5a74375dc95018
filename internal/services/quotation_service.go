package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/entitlement"
	"conmart/internal/repos"
)

type QuotationService struct {
	Quotes *repos.QuotationRepo
	Prods  *repos.ProductRepo
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo
	Notify *NotificationService

	// Monthly allowance for standard-tier buyers; 0 uses the default.
	StandardLimit int
}

func NewQuotationService(quotes *repos.QuotationRepo, prods *repos.ProductRepo,
	users *repos.UserRepo, owners *repos.OwnerRepo, notify *NotificationService,
	standardLimit int) *QuotationService {
	return &QuotationService{
		Quotes: quotes, Prods: prods, Users: users, Owners: owners,
		Notify: notify, StandardLimit: standardLimit,
	}
}

func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }

type QuotationInput struct {
	ProductID        string
	Quantity         int
	Message          string
	DeliveryLocation string
	RequestDocument  string
}

// Request opens a quotation for a buyer. All gating happens before any write:
// free tier needs an upgrade, paid-but-unverified needs verification, and
// standard tier has a monthly cap.
func (s *QuotationService) Request(u *domain.User, in QuotationInput) (*domain.Quotation, error) {
	if u.Tier == domain.TierFree || u.Tier == domain.TierBasic {
		return nil, &GateError{
			Detail:      "quotation requests require a standard or premium subscription",
			UpgradePlan: entitlement.NextUpgradePlan(u.Role, u.Tier),
		}
	}
	if !entitlement.CanRequestQuotation(u.Tier, u.Verification) {
		return nil, &GateError{Detail: "account verification required to request quotations"}
	}

	month := monthKey(time.Now())
	used, err := s.Users.QuotationUsage(u.ID, month)
	if err != nil {
		return nil, err
	}
	if entitlement.QuotaExceeded(u.Tier, used, s.StandardLimit) {
		quota := entitlement.QuotationQuota(u.Tier, s.StandardLimit)
		return nil, &GateError{
			Detail:      fmt.Sprintf("monthly quotation limit reached (%d this month)", quota),
			UpgradePlan: entitlement.NextUpgradePlan(u.Role, u.Tier),
			Quota:       true,
		}
	}

	p, err := s.Prods.Get(in.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProductActive || p.SubscriptionHidden {
		return nil, ErrNotFound
	}
	if !p.QuotationAvailable {
		return nil, errors.New("this product does not accept quotation requests")
	}
	if in.Quantity < p.MinOrderQuantity {
		return nil, fmt.Errorf("minimum order quantity is %d %s", p.MinOrderQuantity, p.Unit)
	}

	q := &domain.Quotation{
		ID:               uuid.NewString(),
		ProductID:        p.ID,
		UserID:           u.ID,
		Quantity:         in.Quantity,
		Message:          in.Message,
		DeliveryLocation: in.DeliveryLocation,
		RequestDocument:  in.RequestDocument,
		Status:           domain.QuotationPending,
	}
	if err := s.Quotes.Create(q); err != nil {
		return nil, err
	}

	if u.Tier == domain.TierStandard {
		if err := s.Users.BumpQuotationUsage(u.ID, month); err != nil {
			return nil, err
		}
	}
	_ = s.Prods.IncrementQuotationCount(p.ID)

	if owner, err := s.Owners.ByID(p.OwnerID); err == nil {
		_ = s.Notify.Push(owner.UserID, domain.NotifyQuotationReceived,
			"New quotation request",
			fmt.Sprintf("%s requested a quotation for %s (qty %d)", u.Name, p.Name, q.Quantity))
	}

	created, err := s.Quotes.Get(q.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Respond records the supplier's quote. Only the owner of the quoted product
// may respond, and only while the request is pending.
func (s *QuotationService) Respond(ownerID, quotationID, response string, priceQuote float64, responseDocument string) (*domain.Quotation, error) {
	q, err := s.Quotes.Get(quotationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := s.Prods.Get(q.ProductID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if q.Status != domain.QuotationPending {
		return nil, ErrBadState
	}

	if err := s.Quotes.Respond(quotationID, response, priceQuote, responseDocument); err != nil {
		return nil, err
	}
	_ = s.Notify.Push(q.UserID, domain.NotifyQuotationResponded,
		"Quotation response received",
		fmt.Sprintf("The supplier responded to your quotation for %s", p.Name))

	updated, err := s.Quotes.Get(quotationID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Decide lets the requester accept or reject a responded quotation.
func (s *QuotationService) Decide(userID, quotationID string, accept bool) (*domain.Quotation, error) {
	q, err := s.Quotes.Get(quotationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, ErrForbidden
	}
	if q.Status != domain.QuotationResponded {
		return nil, ErrBadState
	}

	status := domain.QuotationRejected
	if accept {
		status = domain.QuotationAccepted
	}
	if err := s.Quotes.SetStatus(quotationID, status); err != nil {
		return nil, err
	}
	updated, err := s.Quotes.Get(quotationID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *QuotationService) ListMine(userID string, page, pageSize int) ([]domain.QuotationWithProduct, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.Quotes.ListByUser(userID, limit, offset)
}

func (s *QuotationService) ListForOwner(ownerID string, page, pageSize int) ([]domain.QuotationWithProduct, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.Quotes.ListByOwner(ownerID, limit, offset)
}

// Delete removes the requester's own quotation while it is still pending.
func (s *QuotationService) Delete(userID, quotationID string) error {
	q, err := s.Quotes.Get(quotationID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if q.UserID != userID {
		return ErrForbidden
	}
	if q.Status != domain.QuotationPending {
		return ErrBadState
	}
	return s.Quotes.Delete(quotationID)
}

// Remaining returns how many quotations the buyer can still open this month
// (-1 for unlimited).
func (s *QuotationService) Remaining(u *domain.User) (int, error) {
	quota := entitlement.QuotationQuota(u.Tier, s.StandardLimit)
	if quota == entitlement.Unlimited {
		return entitlement.Unlimited, nil
	}
	used, err := s.Users.QuotationUsage(u.ID, monthKey(time.Now()))
	if err != nil {
		return 0, err
	}
	if used > quota {
		return 0, nil
	}
	return quota - used, nil
}
