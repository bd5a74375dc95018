package services

import (
	"database/sql"
	"encoding/json"
	"errors"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// CategoryNode is a root category with its children attached, the shape the
// category listing serves.
type CategoryNode struct {
	domain.Category
	Images        []string          `json:"images"`
	Subcategories []domain.Category `json:"subcategories"`
}

// CategoryTree assembles roots and children in one pass over a flat list.
// Children whose parent is missing or inactive are dropped rather than
// promoted.
func (s *CatalogService) CategoryTree() ([]CategoryNode, error) {
	all, err := s.Cats.List(true)
	if err != nil {
		return nil, err
	}

	roots := make([]CategoryNode, 0)
	index := map[string]int{}
	for _, c := range all {
		if c.ParentID != "" {
			continue
		}
		node := CategoryNode{Category: c, Images: []string{}, Subcategories: []domain.Category{}}
		if c.ImagesJSON != "" {
			_ = json.Unmarshal([]byte(c.ImagesJSON), &node.Images)
		}
		index[c.ID] = len(roots)
		roots = append(roots, node)
	}
	for _, c := range all {
		if c.ParentID == "" {
			continue
		}
		if i, ok := index[c.ParentID]; ok {
			roots[i].Subcategories = append(roots[i].Subcategories, c)
		}
	}
	return roots, nil
}

func (s *CatalogService) GetCategory(idOrSlug string) (domain.Category, error) {
	c, err := s.Cats.Get(idOrSlug)
	if errors.Is(err, sql.ErrNoRows) {
		c, err = s.Cats.BySlug(idOrSlug)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *CatalogService) ProductsByCategory(catID string, page, pageSize int) ([]domain.Product, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.Prods.ListByCategory(catID, limit, offset)
}

// GetProduct returns a publicly visible product and bumps its view counter.
func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if p.Status != domain.ProductActive || p.SubscriptionHidden {
		return p, ErrNotFound
	}
	_ = s.Prods.IncrementViews(id)
	p.ViewCount++
	return p, nil
}

func (s *CatalogService) Search(f repos.SearchFilter, page, pageSize int) ([]domain.Product, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.Prods.Search(f, limit, offset)
}

func pageWindow(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
