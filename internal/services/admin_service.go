package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

type AdminService struct {
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo
	Prods  *repos.ProductRepo
	Cats   *repos.CategoryRepo
	Notify *NotificationService
}

func NewAdminService(users *repos.UserRepo, owners *repos.OwnerRepo,
	prods *repos.ProductRepo, cats *repos.CategoryRepo, notify *NotificationService) *AdminService {
	return &AdminService{Users: users, Owners: owners, Prods: prods, Cats: cats, Notify: notify}
}

func (s *AdminService) ListUsers(role string) ([]domain.User, error) {
	return s.Users.List(role)
}

func (s *AdminService) ToggleUserActive(id string) (*domain.User, error) {
	if _, err := s.Users.ByID(id); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return s.Users.ToggleActive(id)
}

func (s *AdminService) ModerationQueue(limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Prods.ListByStatus(domain.ProductUnderReview, limit)
}

// ModerateInput carries an approve/reject decision plus an optional category
// re-assignment applied alongside an approval.
type ModerateInput struct {
	Approve         bool
	RejectionReason string
	AdminNotes      string
	CategoryID      string
	SubcategoryID   string
}

func (s *AdminService) ModerateProduct(productID string, in ModerateInput) (*domain.Product, error) {
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProductUnderReview && p.Status != domain.ProductDraft {
		return nil, ErrBadState
	}

	if in.CategoryID != "" {
		if err := s.checkReassignment(in.CategoryID, in.SubcategoryID); err != nil {
			return nil, err
		}
		if err := s.Prods.Reassign(productID, in.CategoryID, in.SubcategoryID); err != nil {
			return nil, err
		}
	}

	status := domain.ProductRejected
	if in.Approve {
		status = domain.ProductActive
		in.RejectionReason = ""
	} else if in.RejectionReason == "" {
		return nil, errors.New("a rejection reason is required")
	}
	if err := s.Prods.Moderate(productID, status, in.RejectionReason, in.AdminNotes); err != nil {
		return nil, err
	}
	_ = s.Cats.SyncProductCounts()

	if owner, err := s.Owners.ByID(p.OwnerID); err == nil {
		typ, title, msg := domain.NotifyProductApproved, "Product approved",
			"Your product "+p.Name+" is now live."
		if !in.Approve {
			typ, title = domain.NotifyProductRejected, "Product rejected"
			msg = "Your product " + p.Name + " was rejected: " + in.RejectionReason
		}
		_ = s.Notify.Push(owner.UserID, typ, title, msg)
	}

	updated, err := s.Prods.Get(productID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *AdminService) checkReassignment(categoryID, subcategoryID string) error {
	cat, err := s.Cats.Get(categoryID)
	if err != nil {
		return errors.New("unknown category")
	}
	if cat.ParentID != "" {
		return errors.New("category must be a top-level category")
	}
	if subcategoryID == "" {
		return nil
	}
	sub, err := s.Cats.Get(subcategoryID)
	if err != nil {
		return errors.New("unknown subcategory")
	}
	if sub.ParentID != categoryID {
		return errors.New("subcategory does not belong to the chosen category")
	}
	return nil
}

// Category management.

func (s *AdminService) CreateCategory(c *domain.Category) (*domain.Category, error) {
	if c.ParentID != "" {
		parent, err := s.Cats.Get(c.ParentID)
		if err != nil {
			return nil, errors.New("unknown parent category")
		}
		if parent.ParentID != "" {
			return nil, errors.New("categories only nest one level deep")
		}
	}
	c.ID = uuid.NewString()
	if err := s.Cats.Create(c); err != nil {
		return nil, err
	}
	created, err := s.Cats.Get(c.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *AdminService) UpdateCategory(c *domain.Category) (*domain.Category, error) {
	if _, err := s.Cats.Get(c.ID); errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if err := s.Cats.Update(c); err != nil {
		return nil, err
	}
	updated, err := s.Cats.Get(c.ID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *AdminService) DeleteCategory(id string) error {
	if _, err := s.Cats.Get(id); errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return s.Cats.Delete(id)
}
