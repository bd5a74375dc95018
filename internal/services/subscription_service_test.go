package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/domain"
	"conmart/internal/repos"
	"conmart/internal/services"
)

type fakeGateway struct {
	verifyOK bool
	initErr  error
	lastInit services.GatewayCheckout
}

func (g *fakeGateway) Initialize(_ context.Context, in services.GatewayCheckout) (string, error) {
	if g.initErr != nil {
		return "", g.initErr
	}
	g.lastInit = in
	return "https://checkout.test/" + in.TxRef, nil
}

func (g *fakeGateway) Verify(_ context.Context, _ string) (bool, error) {
	return g.verifyOK, nil
}

func newSubFixture(t *testing.T) (*fixture, *services.SubscriptionService, *fakeGateway) {
	t.Helper()
	f := newFixture(t)
	gw := &fakeGateway{verifyOK: true}
	svc := services.NewSubscriptionService(
		repos.NewSubscriptionRepo(f.db), f.users, f.owners, f.notify, gw,
		"https://api.test")
	return f, svc, gw
}

func TestSubscription_UpgradeOwnerAppliesLimit(t *testing.T) {
	f, svc, gw := newSubFixture(t)
	supplierUser, owner := f.supplier(t, domain.TierBasic)
	require.NoError(t, f.owners.SetPlan(owner.ID, domain.TierBasic, 1))

	// Two listings on a 1-listing plan: the newer one is hidden.
	p1 := f.activeProduct(t, owner.ID)
	p2 := f.activeProduct(t, owner.ID)
	require.NoError(t, f.owners.EnforceListingLimit(owner.ID, 1))

	got1, err := f.prods.Get(p1.ID)
	require.NoError(t, err)
	got2, err := f.prods.Get(p2.ID)
	require.NoError(t, err)
	assert.False(t, got1.SubscriptionHidden, "oldest listing stays visible")
	assert.True(t, got2.SubscriptionHidden)

	pay, err := svc.Initiate(context.Background(), supplierUser, "standard_owner")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentInitiated, pay.Status)
	assert.Contains(t, pay.CheckoutURL, pay.TxRef)
	assert.Equal(t, 200.0, gw.lastInit.Amount)

	settled, err := svc.Confirm(context.Background(), pay.TxRef)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccessful, settled.Status)

	// Tier applied on both the user and the owner profile.
	u, err := f.users.ByID(supplierUser.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierStandard, u.Tier)
	o, err := f.owners.ByID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierStandard, o.Tier)
	assert.Equal(t, 10, o.ProductsLimit)

	// The hidden listing comes back under the bigger cap.
	got2, err = f.prods.Get(p2.ID)
	require.NoError(t, err)
	assert.False(t, got2.SubscriptionHidden)

	// Replayed callbacks settle to the same stored transaction.
	again, err := svc.Confirm(context.Background(), pay.TxRef)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccessful, again.Status)

	sub, err := svc.Current(supplierUser.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	assert.Equal(t, "standard_owner", sub.PlanCode)
}

func TestSubscription_FailedVerification(t *testing.T) {
	f, svc, gw := newSubFixture(t)
	buyer := f.buyer(t, domain.TierFree, "")

	pay, err := svc.Initiate(context.Background(), buyer, "standard_user")
	require.NoError(t, err)

	gw.verifyOK = false
	settled, err := svc.Confirm(context.Background(), pay.TxRef)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, settled.Status)

	u, err := f.users.ByID(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, u.Tier, "tier untouched on failed payment")

	_, err = svc.Current(buyer.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestSubscription_RoleMismatch(t *testing.T) {
	f, svc, _ := newSubFixture(t)
	buyer := f.buyer(t, domain.TierFree, "")

	_, err := svc.Initiate(context.Background(), buyer, "standard_owner")
	assert.Error(t, err)
}

func TestSubscription_SweepExpiredDowngrades(t *testing.T) {
	f, svc, _ := newSubFixture(t)
	supplierUser, owner := f.supplier(t, domain.TierBasic)

	pay, err := svc.Initiate(context.Background(), supplierUser, "premium_owner")
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), pay.TxRef)
	require.NoError(t, err)

	p1 := f.activeProduct(t, owner.ID)
	p2 := f.activeProduct(t, owner.ID)

	// Force the period into the past and sweep.
	_, err = f.db.Exec(`UPDATE subscriptions SET end_date='2000-01-01T00:00:00Z' WHERE status='active'`)
	require.NoError(t, err)

	n, err := svc.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	o, err := f.owners.ByID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierBasic, o.Tier)
	assert.Equal(t, 1, o.ProductsLimit)

	got1, err := f.prods.Get(p1.ID)
	require.NoError(t, err)
	got2, err := f.prods.Get(p2.ID)
	require.NoError(t, err)
	assert.False(t, got1.SubscriptionHidden)
	assert.True(t, got2.SubscriptionHidden, "cap re-enforced on downgrade")

	// The expiry lands as a notification.
	notes, err := f.notify.List(supplierUser.ID, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, domain.NotifySubscriptionExpired, notes[0].Type)
}
