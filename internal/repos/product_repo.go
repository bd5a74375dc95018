package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `p.id,p.owner_id,p.category_id,p.subcategory_id,p.name,p.name_amharic,
  p.description,p.brand,p.model,p.primary_image,p.images_json,p.videos_json,p.specs_json,
  p.price,p.price_negotiable,p.quotation_available,p.min_order_quantity,p.unit,
  p.location,p.city,p.delivery_available,p.status,p.rejection_reason,p.admin_notes,
  p.is_subscription_hidden,p.average_rating,p.total_reviews,p.view_count,
  p.quotation_requests_count,p.created_at,COALESCE(p.updated_at,'') AS updated_at`

// visible restricts public queries to approved, plan-covered listings.
const visible = `p.status='active' AND p.is_subscription_hidden=0`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products p WHERE p.id=?`, id)
	return p, err
}

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
		SELECT `+productCols+` FROM products p
		WHERE (p.category_id=? OR p.subcategory_id=?) AND `+visible+`
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`, catID, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) ListByOwner(ownerID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
		SELECT `+productCols+` FROM products p
		WHERE p.owner_id=?
		ORDER BY p.created_at DESC`, ownerID)
	return out, err
}

// SearchFilter narrows a public product search.
type SearchFilter struct {
	Query              string
	CategoryID         string
	City               string
	QuotationAvailable *bool
	DeliveryAvailable  *bool
	MinPrice, MaxPrice float64
}

func (r *ProductRepo) Search(f SearchFilter, limit, offset int) ([]domain.Product, error) {
	where := visible
	args := []any{}
	if f.Query != "" {
		where += ` AND (LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ? OR LOWER(p.brand) LIKE ?)`
		q := "%" + f.Query + "%"
		args = append(args, q, q, q)
	}
	if f.CategoryID != "" {
		where += ` AND (p.category_id=? OR p.subcategory_id=?)`
		args = append(args, f.CategoryID, f.CategoryID)
	}
	if f.City != "" {
		where += ` AND LOWER(p.city)=LOWER(?)`
		args = append(args, f.City)
	}
	if f.QuotationAvailable != nil {
		where += ` AND p.quotation_available=?`
		args = append(args, *f.QuotationAvailable)
	}
	if f.DeliveryAvailable != nil {
		where += ` AND p.delivery_available=?`
		args = append(args, *f.DeliveryAvailable)
	}
	if f.MinPrice > 0 {
		where += ` AND p.price >= ?`
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where += ` AND p.price <= ?`
		args = append(args, f.MaxPrice)
	}

	sql := `SELECT ` + productCols + ` FROM products p WHERE ` + where + `
		ORDER BY p.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, sql, args...)
	return out, err
}

func (r *ProductRepo) Create(p *domain.Product) error {
	_, err := r.db.Exec(`
		INSERT INTO products(id,owner_id,category_id,subcategory_id,name,name_amharic,description,
		  brand,model,primary_image,images_json,videos_json,specs_json,price,price_negotiable,
		  quotation_available,min_order_quantity,unit,location,city,delivery_available,status,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	`, p.ID, p.OwnerID, p.CategoryID, p.SubcategoryID, p.Name, p.NameAmharic, p.Description,
		p.Brand, p.Model, p.PrimaryImage, p.ImagesJSON, p.VideosJSON, p.SpecsJSON,
		p.Price, p.PriceNegotiable, p.QuotationAvailable, p.MinOrderQuantity, p.Unit,
		p.Location, p.City, p.DeliveryAvailable, p.Status)
	return err
}

func (r *ProductRepo) Update(p *domain.Product) error {
	_, err := r.db.Exec(`
		UPDATE products SET category_id=?, subcategory_id=?, name=?, name_amharic=?, description=?,
		  brand=?, model=?, primary_image=?, images_json=?, videos_json=?, specs_json=?,
		  price=?, price_negotiable=?, quotation_available=?, min_order_quantity=?, unit=?,
		  location=?, city=?, delivery_available=?, status=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, p.CategoryID, p.SubcategoryID, p.Name, p.NameAmharic, p.Description,
		p.Brand, p.Model, p.PrimaryImage, p.ImagesJSON, p.VideosJSON, p.SpecsJSON,
		p.Price, p.PriceNegotiable, p.QuotationAvailable, p.MinOrderQuantity, p.Unit,
		p.Location, p.City, p.DeliveryAvailable, p.Status, p.ID)
	return err
}

func (r *ProductRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	return err
}

// Moderate applies an admin decision. Approval clears any prior rejection.
func (r *ProductRepo) Moderate(id, status, rejectionReason, adminNotes string) error {
	_, err := r.db.Exec(`
		UPDATE products SET status=?, rejection_reason=?, admin_notes=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, status, rejectionReason, adminNotes, id)
	return err
}

func (r *ProductRepo) Reassign(id, categoryID, subcategoryID string) error {
	_, err := r.db.Exec(`
		UPDATE products SET category_id=?, subcategory_id=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, categoryID, subcategoryID, id)
	return err
}

func (r *ProductRepo) IncrementViews(id string) error {
	_, err := r.db.Exec(`UPDATE products SET view_count = view_count + 1 WHERE id=?`, id)
	return err
}

func (r *ProductRepo) IncrementQuotationCount(id string) error {
	_, err := r.db.Exec(`
		UPDATE products SET quotation_requests_count = quotation_requests_count + 1 WHERE id=?`, id)
	return err
}

func (r *ProductRepo) ListByStatus(status string, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
		SELECT `+productCols+` FROM products p
		WHERE p.status=?
		ORDER BY p.created_at ASC
		LIMIT ?`, status, limit)
	return out, err
}

func (r *ProductRepo) CountByStatus() (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM products GROUP BY status`); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// Upsert is used by the legacy importer.
func (r *ProductRepo) Upsert(p *domain.Product) error {
	_, err := r.db.Exec(`
		INSERT INTO products(id,owner_id,category_id,subcategory_id,name,name_amharic,description,
		  brand,model,primary_image,images_json,price,price_negotiable,quotation_available,
		  min_order_quantity,unit,location,city,delivery_available,status)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
		  category_id=excluded.category_id, subcategory_id=excluded.subcategory_id,
		  name=excluded.name, name_amharic=excluded.name_amharic, description=excluded.description,
		  brand=excluded.brand, model=excluded.model, primary_image=excluded.primary_image,
		  images_json=excluded.images_json, price=excluded.price,
		  price_negotiable=excluded.price_negotiable, quotation_available=excluded.quotation_available,
		  min_order_quantity=excluded.min_order_quantity, unit=excluded.unit,
		  location=excluded.location, city=excluded.city,
		  delivery_available=excluded.delivery_available, status=excluded.status,
		  updated_at=CURRENT_TIMESTAMP
	`, p.ID, p.OwnerID, p.CategoryID, p.SubcategoryID, p.Name, p.NameAmharic, p.Description,
		p.Brand, p.Model, p.PrimaryImage, p.ImagesJSON, p.Price, p.PriceNegotiable,
		p.QuotationAvailable, p.MinOrderQuantity, p.Unit, p.Location, p.City,
		p.DeliveryAvailable, p.Status)
	return err
}

// FavoriteInsights counts how many buyers favorited each of an owner's products.
type FavoriteInsight struct {
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Count       int    `db:"n" json:"favorited_by"`
}

func (r *ProductRepo) FavoriteInsights(ownerID string) ([]FavoriteInsight, error) {
	var out []FavoriteInsight
	err := r.db.Select(&out, `
		SELECT p.id AS product_id, p.name AS product_name, COUNT(f.user_id) AS n
		FROM products p
		LEFT JOIN favorites f ON f.product_id = p.id
		WHERE p.owner_id=?
		GROUP BY p.id, p.name
		ORDER BY n DESC, p.created_at DESC`, ownerID)
	return out, err
}

// RefreshRating recomputes a product's review aggregates.
func (r *ProductRepo) RefreshRating(id string) error {
	_, err := r.db.Exec(`
		UPDATE products SET
		  average_rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE product_id=?), 0),
		  total_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id=?)
		WHERE id=?`, id, id, id)
	return err
}
