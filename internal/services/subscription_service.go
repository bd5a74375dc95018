package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/entitlement"
	"conmart/internal/repos"
)

// PaymentGateway is what the service needs from Chapa; tests swap in a fake.
type PaymentGateway interface {
	Initialize(ctx context.Context, in GatewayCheckout) (string, error)
	Verify(ctx context.Context, txRef string) (bool, error)
}

// GatewayCheckout carries the fields the gateway needs to open a checkout.
type GatewayCheckout struct {
	Amount      float64
	Currency    string
	Email       string
	Name        string
	TxRef       string
	CallbackURL string
}

type SubscriptionService struct {
	Subs    *repos.SubscriptionRepo
	Users   *repos.UserRepo
	Owners  *repos.OwnerRepo
	Notify  *NotificationService
	Gateway PaymentGateway

	// Base URL the gateway calls back on, e.g. https://api.example.com.
	CallbackBase string
}

func NewSubscriptionService(subs *repos.SubscriptionRepo, users *repos.UserRepo,
	owners *repos.OwnerRepo, notify *NotificationService, gateway PaymentGateway,
	callbackBase string) *SubscriptionService {
	return &SubscriptionService{
		Subs: subs, Users: users, Owners: owners, Notify: notify,
		Gateway: gateway, CallbackBase: callbackBase,
	}
}

func (s *SubscriptionService) Plans(role string) ([]domain.SubscriptionPlan, error) {
	return s.Subs.Plans(role)
}

func (s *SubscriptionService) Current(userID string) (*domain.Subscription, error) {
	sub, err := s.Subs.ActiveForUser(userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionService) History(userID string) ([]domain.Subscription, error) {
	return s.Subs.ListByUser(userID)
}

func (s *SubscriptionService) Payments(userID string) ([]domain.PaymentTransaction, error) {
	return s.Subs.PaymentsByUser(userID)
}

// Initiate creates a pending subscription and payment transaction, opens a
// checkout with the gateway, and hands the checkout URL back. Free plans
// activate immediately without touching the gateway.
func (s *SubscriptionService) Initiate(ctx context.Context, u *domain.User, planCode string) (*domain.PaymentTransaction, error) {
	plan, err := s.Subs.PlanByCode(planCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("unknown plan")
	}
	if err != nil {
		return nil, err
	}
	if plan.Role != u.Role {
		return nil, errors.New("plan is not available for this account type")
	}

	sub := &domain.Subscription{
		ID:       uuid.NewString(),
		UserID:   u.ID,
		PlanCode: plan.Code,
		Tier:     plan.Tier,
		Amount:   plan.Amount,
		Currency: plan.Currency,
	}
	if err := s.Subs.Create(sub); err != nil {
		return nil, err
	}

	txRef := "conmart-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	pay := &domain.PaymentTransaction{
		ID:             uuid.NewString(),
		UserID:         u.ID,
		SubscriptionID: sub.ID,
		PlanCode:       plan.Code,
		TxRef:          txRef,
		Amount:         plan.Amount,
		Currency:       plan.Currency,
	}

	if plan.Amount <= 0 {
		pay.Status = domain.PaymentSuccessful
		if err := s.Subs.CreatePayment(pay); err != nil {
			return nil, err
		}
		if err := s.Subs.CompletePayment(txRef, domain.PaymentSuccessful); err != nil {
			return nil, err
		}
		if err := s.activate(sub.ID, plan, txRef); err != nil {
			return nil, err
		}
		done, err := s.Subs.PaymentByTxRef(txRef)
		if err != nil {
			return nil, err
		}
		return &done, nil
	}

	checkoutURL, err := s.Gateway.Initialize(ctx, GatewayCheckout{
		Amount:      plan.Amount,
		Currency:    plan.Currency,
		Email:       u.Email,
		Name:        u.Name,
		TxRef:       txRef,
		CallbackURL: s.CallbackBase + "/api/payments/callback?tx_ref=" + txRef,
	})
	if err != nil {
		return nil, err
	}
	pay.CheckoutURL = checkoutURL
	if err := s.Subs.CreatePayment(pay); err != nil {
		return nil, err
	}

	created, err := s.Subs.PaymentByTxRef(txRef)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Confirm verifies a tx_ref with the gateway and, on success, activates the
// subscription and applies the tier. Replays of an already-settled reference
// return the stored transaction unchanged.
func (s *SubscriptionService) Confirm(ctx context.Context, txRef string) (*domain.PaymentTransaction, error) {
	pay, err := s.Subs.PaymentByTxRef(txRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if pay.Status != domain.PaymentInitiated {
		return &pay, nil
	}

	ok, err := s.Gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := s.Subs.CompletePayment(txRef, domain.PaymentFailed); err != nil {
			return nil, err
		}
		if err := s.Subs.SetStatus(pay.SubscriptionID, domain.SubscriptionCancelled); err != nil {
			return nil, err
		}
		failed, err := s.Subs.PaymentByTxRef(txRef)
		if err != nil {
			return nil, err
		}
		return &failed, nil
	}

	plan, err := s.Subs.PlanByCode(pay.PlanCode)
	if err != nil {
		return nil, err
	}
	if err := s.Subs.CompletePayment(txRef, domain.PaymentSuccessful); err != nil {
		return nil, err
	}
	if err := s.activate(pay.SubscriptionID, plan, txRef); err != nil {
		return nil, err
	}

	settled, err := s.Subs.PaymentByTxRef(txRef)
	if err != nil {
		return nil, err
	}
	return &settled, nil
}

// activate starts the period and applies all tier side effects: user tier,
// owner plan limit, and listing visibility.
func (s *SubscriptionService) activate(subscriptionID string, plan domain.SubscriptionPlan, txRef string) error {
	start := time.Now().UTC()
	end := start.AddDate(0, 0, plan.DurationDays)
	if err := s.Subs.Activate(subscriptionID,
		start.Format(time.RFC3339), end.Format(time.RFC3339), txRef); err != nil {
		return err
	}

	sub, err := s.Subs.Get(subscriptionID)
	if err != nil {
		return err
	}
	return s.applyTier(sub.UserID, plan.Role, plan.Tier, plan.ProductLimit)
}

func (s *SubscriptionService) applyTier(userID, role, tier string, productLimit int) error {
	if err := s.Users.SetTier(userID, tier); err != nil {
		return err
	}
	if role != domain.RoleProductOwner {
		return nil
	}
	owner, err := s.Owners.ByUserID(userID)
	if err != nil {
		return err
	}
	if err := s.Owners.SetPlan(owner.ID, tier, productLimit); err != nil {
		return err
	}
	return s.Owners.EnforceListingLimit(owner.ID, productLimit)
}

// SweepExpired downgrades users whose subscription period ended: buyers fall
// back to free, suppliers to basic with the cap re-enforced. Returns how
// many subscriptions were expired.
func (s *SubscriptionService) SweepExpired() (int, error) {
	due, err := s.Subs.DueForExpiry(time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sub := range due {
		if err := s.Subs.SetStatus(sub.ID, domain.SubscriptionExpired); err != nil {
			return n, err
		}
		u, err := s.Users.ByID(sub.UserID)
		if err != nil {
			continue
		}
		tier := domain.TierFree
		if u.Role == domain.RoleProductOwner {
			tier = domain.TierBasic
		}
		if err := s.applyTier(u.ID, u.Role, tier, entitlement.ProductLimit(tier)); err != nil {
			return n, err
		}
		_ = s.Notify.Push(u.ID, domain.NotifySubscriptionExpired,
			"Subscription expired",
			fmt.Sprintf("Your %s subscription has expired.", sub.Tier))
		n++
	}
	return n, nil
}

// DueForReminder returns subscriptions ending within the window that have
// not been reminded; MarkReminded records delivery.
func (s *SubscriptionService) DueForReminder(window time.Duration) ([]domain.Subscription, error) {
	now := time.Now().UTC()
	return s.Subs.DueForReminder(
		now.Format(time.RFC3339), now.Add(window).Format(time.RFC3339))
}

func (s *SubscriptionService) MarkReminded(id string) error {
	if err := s.Subs.MarkReminded(id, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	sub, err := s.Subs.Get(id)
	if err != nil {
		return err
	}
	_ = s.Notify.Push(sub.UserID, domain.NotifySubscriptionExpiring,
		"Subscription expiring soon",
		fmt.Sprintf("Your %s subscription ends on %s.", sub.Tier, sub.EndDate))
	return nil
}
