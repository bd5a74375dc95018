package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type OwnerRepo struct{ db *sqlx.DB }

func NewOwnerRepo(db *sqlx.DB) *OwnerRepo { return &OwnerRepo{db: db} }

const ownerCols = `id,user_id,business_name,business_description,business_address,
  business_city,business_phone,business_email,tier,verification_status,
  verified_at,verification_expires_at,products_count,products_limit,
  delivery_available,average_rating,total_reviews,
  created_at,COALESCE(updated_at,'') AS updated_at`

func (r *OwnerRepo) ByID(id string) (*domain.ProductOwner, error) {
	var o domain.ProductOwner
	err := r.db.Get(&o, `SELECT `+ownerCols+` FROM product_owners WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepo) ByUserID(userID string) (*domain.ProductOwner, error) {
	var o domain.ProductOwner
	err := r.db.Get(&o, `SELECT `+ownerCols+` FROM product_owners WHERE user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OwnerRepo) Create(o *domain.ProductOwner) error {
	_, err := r.db.Exec(`
		INSERT INTO product_owners(id,user_id,business_name,business_description,business_address,
		  business_city,business_phone,business_email,tier,products_limit,delivery_available)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.UserID, o.BusinessName, o.BusinessDesc, o.BusinessAddr,
		o.BusinessCity, o.BusinessPhone, o.BusinessEmail, o.Tier, o.ProductsLimit, o.DeliveryAvailable)
	return err
}

// Upsert inserts an owner row keyed by its legacy id, refreshing the
// business fields on rerun. Tier and limits are left alone for existing rows.
func (r *OwnerRepo) Upsert(o *domain.ProductOwner) error {
	_, err := r.db.Exec(`
		INSERT INTO product_owners(id,user_id,business_name,business_description,business_address,
		  business_city,business_phone,business_email,tier,products_limit,delivery_available)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
		  business_name=excluded.business_name,
		  business_city=excluded.business_city,
		  business_phone=excluded.business_phone,
		  business_email=excluded.business_email,
		  delivery_available=excluded.delivery_available,
		  updated_at=CURRENT_TIMESTAMP
	`, o.ID, o.UserID, o.BusinessName, o.BusinessDesc, o.BusinessAddr,
		o.BusinessCity, o.BusinessPhone, o.BusinessEmail, o.Tier, o.ProductsLimit, o.DeliveryAvailable)
	return err
}

func (r *OwnerRepo) UpdateBusiness(o *domain.ProductOwner) error {
	_, err := r.db.Exec(`
		UPDATE product_owners SET business_name=?, business_description=?, business_address=?,
		  business_city=?, business_phone=?, business_email=?, delivery_available=?,
		  updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, o.BusinessName, o.BusinessDesc, o.BusinessAddr,
		o.BusinessCity, o.BusinessPhone, o.BusinessEmail, o.DeliveryAvailable, o.ID)
	return err
}

func (r *OwnerRepo) SetVerification(id, status, verifiedAt, expiresAt string) error {
	_, err := r.db.Exec(`
		UPDATE product_owners SET verification_status=?, verified_at=?, verification_expires_at=?,
		  updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, status, verifiedAt, expiresAt, id)
	return err
}

// SetPlan applies a tier change and its product limit (-1 unlimited).
func (r *OwnerRepo) SetPlan(id, tier string, productLimit int) error {
	_, err := r.db.Exec(`
		UPDATE product_owners SET tier=?, products_limit=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, tier, productLimit, id)
	return err
}

func (r *OwnerRepo) ProductCount(id string) (int, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*) FROM products WHERE owner_id=? AND status != 'inactive'`, id)
	return n, err
}

func (r *OwnerRepo) SyncProductCount(id string) error {
	_, err := r.db.Exec(`
		UPDATE product_owners
		SET products_count=(SELECT COUNT(*) FROM products WHERE owner_id=? AND status != 'inactive')
		WHERE id=?`, id, id)
	return err
}

// EnforceListingLimit hides listings beyond the plan's cap, oldest first
// staying visible, and re-shows everything for unlimited plans.
func (r *OwnerRepo) EnforceListingLimit(id string, limit int) error {
	if limit < 0 {
		_, err := r.db.Exec(`
			UPDATE products SET is_subscription_hidden=0 WHERE owner_id=? AND is_subscription_hidden=1`, id)
		return err
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		UPDATE products SET is_subscription_hidden=1
		WHERE owner_id=? AND id NOT IN (
		  SELECT id FROM products WHERE owner_id=? ORDER BY created_at ASC, rowid ASC LIMIT ?
		)`, id, id, limit); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE products SET is_subscription_hidden=0
		WHERE owner_id=? AND id IN (
		  SELECT id FROM products WHERE owner_id=? ORDER BY created_at ASC, rowid ASC LIMIT ?
		)`, id, id, limit); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *OwnerRepo) List() ([]domain.ProductOwner, error) {
	var out []domain.ProductOwner
	err := r.db.Select(&out, `SELECT `+ownerCols+` FROM product_owners ORDER BY created_at DESC`)
	return out, err
}

// RefreshRating recomputes the aggregate over all of the owner's products.
func (r *OwnerRepo) RefreshRating(id string) error {
	_, err := r.db.Exec(`
		UPDATE product_owners SET
		  average_rating = COALESCE((
		    SELECT AVG(r.rating) FROM reviews r
		    JOIN products p ON p.id = r.product_id
		    WHERE p.owner_id=?), 0),
		  total_reviews = (
		    SELECT COUNT(*) FROM reviews r
		    JOIN products p ON p.id = r.product_id
		    WHERE p.owner_id=?)
		WHERE id=?`, id, id, id)
	return err
}
