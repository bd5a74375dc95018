package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/domain"
	"conmart/internal/repos"
	"conmart/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db     *sqlx.DB
	users  *repos.UserRepo
	owners *repos.OwnerRepo
	prods  *repos.ProductRepo
	quotes *services.QuotationService
	notify *services.NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memdb(t)
	users := repos.NewUserRepo(db)
	owners := repos.NewOwnerRepo(db)
	prods := repos.NewProductRepo(db)
	notify := services.NewNotificationService(repos.NewNotificationRepo(db))
	quotes := services.NewQuotationService(
		repos.NewQuotationRepo(db), prods, users, owners, notify, 2)
	return &fixture{db: db, users: users, owners: owners, prods: prods, quotes: quotes, notify: notify}
}

func (f *fixture) buyer(t *testing.T, tier, verification string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@test.local",
		Name:  "Test Buyer",
		Hash:  "x",
		Role:  domain.RoleUser,
		Tier:  tier,
	}
	require.NoError(t, f.users.Create(u))
	if verification != "" {
		require.NoError(t, f.users.SetVerification(u.ID, verification, "", "", ""))
	}
	fresh, err := f.users.ByID(u.ID)
	require.NoError(t, err)
	return fresh
}

func (f *fixture) supplier(t *testing.T, tier string) (*domain.User, *domain.ProductOwner) {
	t.Helper()
	u := &domain.User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@test.local",
		Name:  "Test Supplier",
		Hash:  "x",
		Role:  domain.RoleProductOwner,
		Tier:  tier,
	}
	require.NoError(t, f.users.Create(u))
	o := &domain.ProductOwner{
		ID:            uuid.NewString(),
		UserID:        u.ID,
		BusinessName:  "Addis Building Supply",
		Tier:          tier,
		ProductsLimit: 10,
	}
	require.NoError(t, f.owners.Create(o))
	return u, o
}

func (f *fixture) activeProduct(t *testing.T, ownerID string) domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:                 uuid.NewString(),
		OwnerID:            ownerID,
		CategoryID:         "cat",
		Name:               "Portland Cement 50kg",
		Description:        "OPC 42.5",
		Price:              850,
		QuotationAvailable: true,
		MinOrderQuantity:   1,
		Unit:               "bag",
		Location:           "Addis Ababa",
		Status:             domain.ProductActive,
		ImagesJSON:         "[]",
		VideosJSON:         "[]",
		SpecsJSON:          "{}",
	}
	require.NoError(t, f.prods.Create(p))
	got, err := f.prods.Get(p.ID)
	require.NoError(t, err)
	return got
}

func TestQuotationRequest_FreeTierBlocked(t *testing.T) {
	f := newFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, owner.ID)
	buyer := f.buyer(t, domain.TierFree, domain.VerificationVerified)

	_, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 10})
	gate, ok := services.AsGate(err)
	require.True(t, ok, "free tier should hit the upgrade gate, got %v", err)
	assert.Equal(t, "standard_user", gate.UpgradePlan)
	assert.False(t, gate.Quota, "tier denial is not a quota denial")
}

func TestQuotationRequest_UnverifiedBlocked(t *testing.T) {
	f := newFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, owner.ID)
	buyer := f.buyer(t, domain.TierStandard, domain.VerificationUnverified)

	_, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 10})
	gate, ok := services.AsGate(err)
	require.True(t, ok)
	// Verification problems do not advertise an upgrade.
	assert.Empty(t, gate.UpgradePlan)
}

func TestQuotationRequest_StandardQuota(t *testing.T) {
	f := newFixture(t)
	supplierUser, owner := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, owner.ID)
	buyer := f.buyer(t, domain.TierStandard, domain.VerificationVerified)

	// Fixture limit is 2 per month.
	for i := 0; i < 2; i++ {
		_, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 5})
		require.NoError(t, err)
	}
	_, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 5})
	gate, ok := services.AsGate(err)
	require.True(t, ok, "third request should exceed the quota, got %v", err)
	assert.True(t, gate.Quota, "spent allowance is flagged as a quota block")

	left, err := f.quotes.Remaining(buyer)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	// The supplier got one notification per accepted request.
	notes, err := f.notify.List(supplierUser.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestQuotationRequest_PremiumUnlimited(t *testing.T) {
	f := newFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, owner.ID)
	buyer := f.buyer(t, domain.TierPremium, domain.VerificationVerified)

	for i := 0; i < 5; i++ {
		_, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 5})
		require.NoError(t, err)
	}
	left, err := f.quotes.Remaining(buyer)
	require.NoError(t, err)
	assert.Equal(t, -1, left)
}

func TestQuotationFlow_RespondThenAccept(t *testing.T) {
	f := newFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, owner.ID)
	buyer := f.buyer(t, domain.TierPremium, domain.VerificationVerified)

	q, err := f.quotes.Request(buyer, services.QuotationInput{
		ProductID: p.ID, Quantity: 100, DeliveryLocation: "Bole, Addis Ababa",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationPending, q.Status)

	// Accept before a response is out of order.
	_, err = f.quotes.Decide(buyer.ID, q.ID, true)
	assert.ErrorIs(t, err, services.ErrBadState)

	// A stranger cannot respond.
	_, err = f.quotes.Respond("not-the-owner", q.ID, "we can do it", 800, "")
	assert.ErrorIs(t, err, services.ErrForbidden)

	q, err = f.quotes.Respond(owner.ID, q.ID, "100 bags at 820 each", 82000, "")
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationResponded, q.Status)
	assert.Equal(t, 82000.0, q.PriceQuote)

	// A second response is rejected.
	_, err = f.quotes.Respond(owner.ID, q.ID, "again", 1, "")
	assert.ErrorIs(t, err, services.ErrBadState)

	// Only the requester decides.
	_, err = f.quotes.Decide("someone-else", q.ID, true)
	assert.ErrorIs(t, err, services.ErrForbidden)

	q, err = f.quotes.Decide(buyer.ID, q.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.QuotationAccepted, q.Status)

	// Terminal states stay put.
	_, err = f.quotes.Decide(buyer.ID, q.ID, false)
	assert.ErrorIs(t, err, services.ErrBadState)
}

func TestQuotationDelete_OnlyPending(t *testing.T) {
	f := newFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, owner.ID)
	buyer := f.buyer(t, domain.TierPremium, domain.VerificationVerified)

	q, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, f.quotes.Delete(buyer.ID, q.ID))

	q2, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.quotes.Respond(owner.ID, q2.ID, "sure", 100, "")
	require.NoError(t, err)
	assert.ErrorIs(t, f.quotes.Delete(buyer.ID, q2.ID), services.ErrBadState)
}

func TestQuotationRequest_ProductGates(t *testing.T) {
	f := newFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	buyer := f.buyer(t, domain.TierPremium, domain.VerificationVerified)

	p := f.activeProduct(t, owner.ID)
	require.NoError(t, f.prods.Moderate(p.ID, domain.ProductUnderReview, "", ""))
	_, err := f.quotes.Request(buyer, services.QuotationInput{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, services.ErrNotFound)

	noQuote := f.activeProduct(t, owner.ID)
	_, err = f.db.Exec(`UPDATE products SET quotation_available=0 WHERE id=?`, noQuote.ID)
	require.NoError(t, err)
	_, err = f.quotes.Request(buyer, services.QuotationInput{ProductID: noQuote.ID, Quantity: 1})
	assert.Error(t, err)
}
