package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/domain"
	"conmart/internal/repos"
	"conmart/internal/services"
)

func newProductFixture(t *testing.T) (*fixture, *services.ProductService, domain.Category) {
	t.Helper()
	f := newFixture(t)
	cats := repos.NewCategoryRepo(f.db)
	svc := services.NewProductService(f.prods, f.owners, cats)

	root := &domain.Category{
		ID:       uuid.NewString(),
		Slug:     "test-cement",
		Name:     "Cement",
		IsActive: true,
	}
	require.NoError(t, cats.Create(root))
	got, err := cats.Get(root.ID)
	require.NoError(t, err)
	return f, svc, got
}

func listing(cat domain.Category) *domain.Product {
	return &domain.Product{
		CategoryID:         cat.ID,
		Name:               "Dangote OPC 42.5",
		Description:        "Ordinary Portland cement, 50kg bags",
		Price:              900,
		QuotationAvailable: true,
		MinOrderQuantity:   10,
		Unit:               "bag",
		Location:           "Addis Ababa",
		ImagesJSON:         "[]",
		VideosJSON:         "[]",
		SpecsJSON:          "{}",
	}
}

func TestProductCreate_StartsUnderReview(t *testing.T) {
	f, svc, cat := newProductFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)

	p, err := svc.Create(owner, listing(cat))
	require.NoError(t, err)
	assert.Equal(t, domain.ProductUnderReview, p.Status)

	o, err := f.owners.ByID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, o.ProductsCount)
}

func TestProductCreate_CapBlocksBeforeWrite(t *testing.T) {
	f, svc, cat := newProductFixture(t)
	_, owner := f.supplier(t, domain.TierBasic)
	owner.Tier = domain.TierBasic

	_, err := svc.Create(owner, listing(cat))
	require.NoError(t, err)

	_, err = svc.Create(owner, listing(cat))
	gate, ok := services.AsGate(err)
	require.True(t, ok, "second listing on basic should hit the cap, got %v", err)
	assert.Equal(t, "standard_owner", gate.UpgradePlan)

	// Nothing was written for the blocked attempt.
	mine, err := svc.ListMine(owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestProductUpdate_ContentEditRemoderates(t *testing.T) {
	f, svc, cat := newProductFixture(t)
	_, owner := f.supplier(t, domain.TierPremium)

	p, err := svc.Create(owner, listing(cat))
	require.NoError(t, err)
	require.NoError(t, f.prods.Moderate(p.ID, domain.ProductActive, "", ""))

	edited := *p
	edited.Description = "Now with faster setting time"
	updated, err := svc.Update(owner.ID, &edited)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductUnderReview, updated.Status)

	// A price-only change keeps the listing live.
	require.NoError(t, f.prods.Moderate(p.ID, domain.ProductActive, "", ""))
	repriced, err := f.prods.Get(p.ID)
	require.NoError(t, err)
	repriced.Price = 950
	updated, err = svc.Update(owner.ID, &repriced)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductActive, updated.Status)
}

func TestProductUpdate_OwnershipEnforced(t *testing.T) {
	f, svc, cat := newProductFixture(t)
	_, owner := f.supplier(t, domain.TierStandard)
	_, other := f.supplier(t, domain.TierStandard)

	p, err := svc.Create(owner, listing(cat))
	require.NoError(t, err)

	_, err = svc.Update(other.ID, p)
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(other.ID, p.ID), services.ErrForbidden)
}

func TestProductCreate_SubcategoryConsistency(t *testing.T) {
	f, svc, cat := newProductFixture(t)
	_, owner := f.supplier(t, domain.TierPremium)

	cats := repos.NewCategoryRepo(f.db)
	otherRoot := &domain.Category{ID: uuid.NewString(), Slug: "test-steel", Name: "Steel", IsActive: true}
	require.NoError(t, cats.Create(otherRoot))
	child := &domain.Category{ID: uuid.NewString(), ParentID: otherRoot.ID, Slug: "test-rebar", Name: "Rebar", IsActive: true}
	require.NoError(t, cats.Create(child))

	p := listing(cat)
	p.SubcategoryID = child.ID
	_, err := svc.Create(owner, p)
	assert.Error(t, err, "subcategory under a different root must be rejected")

	p2 := listing(cat)
	p2.CategoryID = otherRoot.ID
	p2.SubcategoryID = child.ID
	_, err = svc.Create(owner, p2)
	assert.NoError(t, err)
}
