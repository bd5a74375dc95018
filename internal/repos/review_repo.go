package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert writes a review; a second review from the same buyer replaces the
// first (the table is unique on product+user).
func (r *ReviewRepo) Upsert(rev *domain.Review) error {
	_, err := r.db.Exec(`
		INSERT INTO reviews(id,product_id,user_id,rating,comment)
		VALUES(?,?,?,?,?)
		ON CONFLICT(product_id,user_id) DO UPDATE SET
		  rating=excluded.rating, comment=excluded.comment
	`, rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment)
	return err
}

func (r *ReviewRepo) ListByProduct(productID string, limit, offset int) ([]domain.Review, error) {
	var out []domain.Review
	err := r.db.Select(&out, `
		SELECT id,product_id,user_id,rating,comment,created_at
		FROM reviews WHERE product_id=?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, productID, limit, offset)
	return out, err
}

func (r *ReviewRepo) Delete(id, userID string) error {
	_, err := r.db.Exec(`DELETE FROM reviews WHERE id=? AND user_id=?`, id, userID)
	return err
}

func (r *ReviewRepo) Get(id string) (domain.Review, error) {
	var rev domain.Review
	err := r.db.Get(&rev, `SELECT id,product_id,user_id,rating,comment,created_at FROM reviews WHERE id=?`, id)
	return rev, err
}
