package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/entitlement"
	"conmart/internal/repos"
)

type ProductService struct {
	Prods  *repos.ProductRepo
	Owners *repos.OwnerRepo
	Cats   *repos.CategoryRepo
}

func NewProductService(prods *repos.ProductRepo, owners *repos.OwnerRepo, cats *repos.CategoryRepo) *ProductService {
	return &ProductService{Prods: prods, Owners: owners, Cats: cats}
}

// Create inserts a new listing for the owner. The plan cap is checked before
// anything is written, so a blocked attempt leaves no partial rows behind.
func (s *ProductService) Create(owner *domain.ProductOwner, p *domain.Product) (*domain.Product, error) {
	count, err := s.Owners.ProductCount(owner.ID)
	if err != nil {
		return nil, err
	}
	if entitlement.HasReachedProductLimit(owner.Tier, count) {
		return nil, &GateError{
			Detail: fmt.Sprintf("product limit reached for the %s plan (%d listings)",
				owner.Tier, entitlement.ProductLimit(owner.Tier)),
			UpgradePlan: entitlement.NextUpgradePlan(domain.RoleProductOwner, owner.Tier),
		}
	}
	if err := s.checkCategories(p.CategoryID, p.SubcategoryID); err != nil {
		return nil, err
	}

	p.ID = uuid.NewString()
	p.OwnerID = owner.ID
	p.Status = domain.ProductUnderReview
	if p.MinOrderQuantity < 1 {
		p.MinOrderQuantity = 1
	}
	if err := s.Prods.Create(p); err != nil {
		return nil, err
	}
	if err := s.Owners.SyncProductCount(owner.ID); err != nil {
		return nil, err
	}
	created, err := s.Prods.Get(p.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update edits the owner's own listing. Content edits on a live listing send
// it back through moderation.
func (s *ProductService) Update(ownerID string, p *domain.Product) (*domain.Product, error) {
	current, err := s.Prods.Get(p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if err := s.checkCategories(p.CategoryID, p.SubcategoryID); err != nil {
		return nil, err
	}

	p.OwnerID = ownerID
	p.Status = current.Status
	if contentChanged(current, *p) && current.Status == domain.ProductActive {
		p.Status = domain.ProductUnderReview
	}
	if err := s.Prods.Update(p); err != nil {
		return nil, err
	}
	updated, err := s.Prods.Get(p.ID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func contentChanged(a, b domain.Product) bool {
	return a.Name != b.Name || a.Description != b.Description ||
		a.Brand != b.Brand || a.Model != b.Model ||
		a.CategoryID != b.CategoryID || a.SubcategoryID != b.SubcategoryID
}

func (s *ProductService) Delete(ownerID, productID string) error {
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return ErrForbidden
	}
	if err := s.Prods.Delete(productID); err != nil {
		return err
	}
	return s.Owners.SyncProductCount(ownerID)
}

func (s *ProductService) ListMine(ownerID string) ([]domain.Product, error) {
	return s.Prods.ListByOwner(ownerID)
}

// SetStatus lets owners toggle between active and out_of_stock/inactive on
// an already-approved listing; moderation statuses stay admin-only.
func (s *ProductService) SetStatus(ownerID, productID, status string) error {
	switch status {
	case domain.ProductActive, domain.ProductOutOfStock, domain.ProductInactive:
	default:
		return ErrBadState
	}
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return ErrForbidden
	}
	switch p.Status {
	case domain.ProductActive, domain.ProductOutOfStock, domain.ProductInactive:
	default:
		return ErrBadState
	}
	if err := s.Prods.Moderate(productID, status, "", ""); err != nil {
		return err
	}
	return s.Owners.SyncProductCount(ownerID)
}

// checkCategories enforces parent/child consistency: the subcategory, when
// given, must be a child of the chosen category.
func (s *ProductService) checkCategories(categoryID, subcategoryID string) error {
	cat, err := s.Cats.Get(categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("unknown category")
	}
	if err != nil {
		return err
	}
	if cat.ParentID != "" {
		return errors.New("category must be a top-level category")
	}
	if subcategoryID == "" {
		return nil
	}
	sub, err := s.Cats.Get(subcategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("unknown subcategory")
	}
	if err != nil {
		return err
	}
	if sub.ParentID != categoryID {
		return errors.New("subcategory does not belong to the chosen category")
	}
	return nil
}
