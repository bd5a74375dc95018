package services

import (
	"database/sql"
	"errors"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

type FavoriteService struct {
	Users *repos.UserRepo
	Prods *repos.ProductRepo
}

func NewFavoriteService(users *repos.UserRepo, prods *repos.ProductRepo) *FavoriteService {
	return &FavoriteService{Users: users, Prods: prods}
}

// Toggle flips the favorite flag and reports the new state.
func (s *FavoriteService) Toggle(userID, productID string) (favorited bool, err error) {
	if _, err := s.Prods.Get(productID); errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	} else if err != nil {
		return false, err
	}

	has, err := s.Users.IsFavorite(userID, productID)
	if err != nil {
		return false, err
	}
	if has {
		return false, s.Users.RemoveFavorite(userID, productID)
	}
	return true, s.Users.AddFavorite(userID, productID)
}

func (s *FavoriteService) List(userID string, limit int) ([]domain.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Users.FavoriteProducts(userID, limit)
}

func (s *FavoriteService) IsFavorite(userID, productID string) (bool, error) {
	return s.Users.IsFavorite(userID, productID)
}
