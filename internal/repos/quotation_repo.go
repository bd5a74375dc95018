package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type QuotationRepo struct{ db *sqlx.DB }

func NewQuotationRepo(db *sqlx.DB) *QuotationRepo { return &QuotationRepo{db: db} }

const quotationCols = `q.id,q.product_id,q.user_id,q.quantity,q.message,q.delivery_location,
  q.request_document,q.status,q.response,q.price_quote,q.response_document,
  q.created_at,COALESCE(q.updated_at,'') AS updated_at`

const quotationJoin = quotationCols + `,
  p.name AS product_name, p.unit AS product_unit, p.primary_image AS product_image,
  p.owner_id AS product_owner_id, COALESCE(o.business_name,'') AS business_name`

func (r *QuotationRepo) Get(id string) (domain.Quotation, error) {
	var q domain.Quotation
	err := r.db.Get(&q, `SELECT `+quotationCols+` FROM quotations q WHERE q.id=?`, id)
	return q, err
}

func (r *QuotationRepo) Create(q *domain.Quotation) error {
	_, err := r.db.Exec(`
		INSERT INTO quotations(id,product_id,user_id,quantity,message,delivery_location,request_document,created_at)
		VALUES(?,?,?,?,?,?,?,strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	`, q.ID, q.ProductID, q.UserID, q.Quantity, q.Message, q.DeliveryLocation, q.RequestDocument)
	return err
}

// ListByUser returns a buyer's quotations, newest first, with product context.
func (r *QuotationRepo) ListByUser(userID string, limit, offset int) ([]domain.QuotationWithProduct, error) {
	var out []domain.QuotationWithProduct
	err := r.db.Select(&out, `
		SELECT `+quotationJoin+`
		FROM quotations q
		JOIN products p ON p.id = q.product_id
		LEFT JOIN product_owners o ON o.id = p.owner_id
		WHERE q.user_id=?
		ORDER BY q.created_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	return out, err
}

// ListByOwner returns quotations against any of the owner's products.
func (r *QuotationRepo) ListByOwner(ownerID string, limit, offset int) ([]domain.QuotationWithProduct, error) {
	var out []domain.QuotationWithProduct
	err := r.db.Select(&out, `
		SELECT `+quotationJoin+`
		FROM quotations q
		JOIN products p ON p.id = q.product_id
		LEFT JOIN product_owners o ON o.id = p.owner_id
		WHERE p.owner_id=?
		ORDER BY q.created_at DESC
		LIMIT ? OFFSET ?`, ownerID, limit, offset)
	return out, err
}

func (r *QuotationRepo) CountByUser(userID, status string) (int, error) {
	q := `SELECT COUNT(*) FROM quotations WHERE user_id=?`
	args := []any{userID}
	if status != "" {
		q += ` AND status=?`
		args = append(args, status)
	}
	var n int
	err := r.db.Get(&n, q, args...)
	return n, err
}

func (r *QuotationRepo) CountByOwner(ownerID, status string) (int, error) {
	q := `SELECT COUNT(*) FROM quotations q JOIN products p ON p.id=q.product_id WHERE p.owner_id=?`
	args := []any{ownerID}
	if status != "" {
		q += ` AND q.status=?`
		args = append(args, status)
	}
	var n int
	err := r.db.Get(&n, q, args...)
	return n, err
}

// Respond records the owner's answer and moves pending -> responded.
func (r *QuotationRepo) Respond(id, response string, priceQuote float64, responseDocument string) error {
	_, err := r.db.Exec(`
		UPDATE quotations SET status='responded', response=?, price_quote=?, response_document=?,
		  updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, response, priceQuote, responseDocument, id)
	return err
}

// SetStatus is the accept/reject transition; callers verify the current state.
func (r *QuotationRepo) SetStatus(id, status string) error {
	_, err := r.db.Exec(`
		UPDATE quotations SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, id)
	return err
}

func (r *QuotationRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM quotations WHERE id=?`, id)
	return err
}
