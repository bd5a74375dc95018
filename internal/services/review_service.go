package services

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Prods   *repos.ProductRepo
	Owners  *repos.OwnerRepo
}

func NewReviewService(reviews *repos.ReviewRepo, prods *repos.ProductRepo, owners *repos.OwnerRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Prods: prods, Owners: owners}
}

// Submit records a rating; a repeat submission from the same buyer replaces
// the earlier one. Product and owner aggregates are recomputed on every
// write.
func (s *ReviewService) Submit(userID, productID string, rating int, comment string) (*domain.Review, error) {
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProductActive || p.SubscriptionHidden {
		return nil, ErrNotFound
	}

	rev := &domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.Reviews.Upsert(rev); err != nil {
		return nil, err
	}
	if err := s.refreshAggregates(p); err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *ReviewService) List(productID string, page, pageSize int) ([]domain.Review, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.Reviews.ListByProduct(productID, limit, offset)
}

func (s *ReviewService) Delete(userID, reviewID string) error {
	rev, err := s.Reviews.Get(reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if rev.UserID != userID {
		return ErrForbidden
	}
	if err := s.Reviews.Delete(reviewID, userID); err != nil {
		return err
	}
	p, err := s.Prods.Get(rev.ProductID)
	if err != nil {
		return err
	}
	return s.refreshAggregates(p)
}

func (s *ReviewService) refreshAggregates(p domain.Product) error {
	if err := s.Prods.RefreshRating(p.ID); err != nil {
		return err
	}
	return s.Owners.RefreshRating(p.OwnerID)
}
