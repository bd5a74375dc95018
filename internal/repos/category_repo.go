package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id,parent_id,slug,name,name_amharic,description,description_amharic,
  icon,images_json,sort_order,is_active,product_count,created_at`

func (r *CategoryRepo) List(activeOnly bool) ([]domain.Category, error) {
	var out []domain.Category
	q := `SELECT ` + categoryCols + ` FROM categories`
	if activeOnly {
		q += ` WHERE is_active=1`
	}
	q += ` ORDER BY sort_order, name`
	err := r.db.Select(&out, q)
	return out, err
}

func (r *CategoryRepo) Get(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE id=?`, id)
	return c, err
}

func (r *CategoryRepo) BySlug(slug string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT `+categoryCols+` FROM categories WHERE slug=?`, slug)
	return c, err
}

func (r *CategoryRepo) Create(c *domain.Category) error {
	_, err := r.db.Exec(`
		INSERT INTO categories(id,parent_id,slug,name,name_amharic,description,description_amharic,
		  icon,images_json,sort_order,is_active)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
	`, c.ID, c.ParentID, c.Slug, c.Name, c.NameAmharic, c.Description, c.DescAmharic,
		c.Icon, c.ImagesJSON, c.Order, c.IsActive)
	return err
}

func (r *CategoryRepo) Update(c *domain.Category) error {
	_, err := r.db.Exec(`
		UPDATE categories SET parent_id=?, slug=?, name=?, name_amharic=?, description=?,
		  description_amharic=?, icon=?, images_json=?, sort_order=?, is_active=?
		WHERE id=?`, c.ParentID, c.Slug, c.Name, c.NameAmharic, c.Description,
		c.DescAmharic, c.Icon, c.ImagesJSON, c.Order, c.IsActive, c.ID)
	return err
}

func (r *CategoryRepo) Delete(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Orphaned children become roots rather than dangling references.
	if _, err := tx.Exec(`UPDATE categories SET parent_id='' WHERE parent_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Upsert is used by the legacy importer. Re-imports hit the id clause;
// the slug clause absorbs rows that were re-keyed upstream.
func (r *CategoryRepo) Upsert(c *domain.Category) error {
	_, err := r.db.Exec(`
		INSERT INTO categories(id,parent_id,slug,name,name_amharic,description,description_amharic,
		  icon,images_json,sort_order,is_active)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
		  parent_id=excluded.parent_id, slug=excluded.slug, name=excluded.name,
		  name_amharic=excluded.name_amharic, description=excluded.description,
		  description_amharic=excluded.description_amharic, icon=excluded.icon,
		  images_json=excluded.images_json, sort_order=excluded.sort_order,
		  is_active=excluded.is_active
		ON CONFLICT(slug) DO UPDATE SET
		  parent_id=excluded.parent_id, name=excluded.name, name_amharic=excluded.name_amharic,
		  description=excluded.description, description_amharic=excluded.description_amharic,
		  icon=excluded.icon, images_json=excluded.images_json,
		  sort_order=excluded.sort_order, is_active=excluded.is_active
	`, c.ID, c.ParentID, c.Slug, c.Name, c.NameAmharic, c.Description, c.DescAmharic,
		c.Icon, c.ImagesJSON, c.Order, c.IsActive)
	return err
}

func (r *CategoryRepo) SyncProductCounts() error {
	_, err := r.db.Exec(`
		UPDATE categories SET product_count = (
		  SELECT COUNT(*) FROM products p
		  WHERE (p.category_id = categories.id OR p.subcategory_id = categories.id)
		    AND p.status='active' AND p.is_subscription_hidden=0
		)`)
	return err
}
