package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id,email,name,password_hash,role,tier,phone,preferred_language,avatar,
  is_active,verification_status,verified_at,verification_expires_at,
  verification_rejection_reason,quotations_used,quotations_reset_month,
  created_at,COALESCE(updated_at,'') AS updated_at`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(u *domain.User) error {
	// Zero values fall back to the schema defaults instead of tripping the
	// column CHECKs.
	lang := u.Language
	if lang == "" {
		lang = "en"
	}
	tier := u.Tier
	if tier == "" {
		tier = domain.TierFree
	}
	_, err := r.db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role,tier,phone,preferred_language)
		VALUES(?,?,?,?,?,?,?,?)
	`, u.ID, u.Email, u.Name, u.Hash, u.Role, tier, u.Phone, lang)
	return err
}

// EnsureExists inserts a minimal account for an externally sourced user id
// and leaves any existing row alone. The account has no password, so it
// cannot be logged into until a reset.
func (r *UserRepo) EnsureExists(id, email, name, role string) error {
	_, err := r.db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES(?,?,?,?,?)
		ON CONFLICT DO NOTHING
	`, id, email, name, "", role)
	return err
}

func (r *UserRepo) UpdateProfile(id, name, phone, language string) error {
	_, err := r.db.Exec(`
		UPDATE users SET name=?, phone=?, preferred_language=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, name, phone, language, id)
	return err
}

func (r *UserRepo) UpdatePassword(id, hash string) error {
	_, err := r.db.Exec(`UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, hash, id)
	return err
}

func (r *UserRepo) UpdateAvatar(id, path string) error {
	_, err := r.db.Exec(`UPDATE users SET avatar=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, path, id)
	return err
}

func (r *UserRepo) SetTier(id, tier string) error {
	_, err := r.db.Exec(`UPDATE users SET tier=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, tier, id)
	return err
}

func (r *UserRepo) ToggleActive(id string) (*domain.User, error) {
	if _, err := r.db.Exec(`
		UPDATE users SET is_active = 1 - is_active, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id); err != nil {
		return nil, err
	}
	return r.ByID(id)
}

// SetVerification updates verification state; empty reason clears it.
func (r *UserRepo) SetVerification(id, status, verifiedAt, expiresAt, reason string) error {
	_, err := r.db.Exec(`
		UPDATE users SET verification_status=?, verified_at=?, verification_expires_at=?,
		  verification_rejection_reason=?, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, status, verifiedAt, expiresAt, reason, id)
	return err
}

// BumpQuotationUsage increments this month's counter, resetting it first
// when the month key rolled over.
func (r *UserRepo) BumpQuotationUsage(id, monthKey string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		UPDATE users SET quotations_used=0, quotations_reset_month=?
		WHERE id=? AND quotations_reset_month != ?`, monthKey, id, monthKey); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE users SET quotations_used = quotations_used + 1, updated_at=CURRENT_TIMESTAMP
		WHERE id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// QuotationUsage returns the counter for the given month key (0 when the
// stored month differs, i.e. a reset is due).
func (r *UserRepo) QuotationUsage(id, monthKey string) (int, error) {
	var row struct {
		Used  int    `db:"quotations_used"`
		Month string `db:"quotations_reset_month"`
	}
	if err := r.db.Get(&row, `SELECT quotations_used, quotations_reset_month FROM users WHERE id=?`, id); err != nil {
		return 0, err
	}
	if row.Month != monthKey {
		return 0, nil
	}
	return row.Used, nil
}

func (r *UserRepo) List(role string) ([]domain.User, error) {
	var out []domain.User
	q := `SELECT ` + userCols + ` FROM users`
	args := []any{}
	if role != "" {
		q += ` WHERE role=?`
		args = append(args, role)
	}
	q += ` ORDER BY created_at DESC`
	err := r.db.Select(&out, q, args...)
	return out, err
}

// ---- Favorites ----

func (r *UserRepo) AddFavorite(userID, productID string) error {
	_, err := r.db.Exec(`
		INSERT INTO favorites(user_id,product_id) VALUES(?,?)
		ON CONFLICT(user_id,product_id) DO NOTHING`, userID, productID)
	return err
}

func (r *UserRepo) RemoveFavorite(userID, productID string) error {
	_, err := r.db.Exec(`DELETE FROM favorites WHERE user_id=? AND product_id=?`, userID, productID)
	return err
}

func (r *UserRepo) IsFavorite(userID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM favorites WHERE user_id=? AND product_id=?`, userID, productID)
	return n > 0, err
}

func (r *UserRepo) FavoriteProducts(userID string, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
		SELECT `+productCols+`
		FROM products p
		JOIN favorites f ON f.product_id = p.id
		WHERE f.user_id=?
		ORDER BY f.created_at DESC
		LIMIT ?`, userID, limit)
	return out, err
}

func (r *UserRepo) FavoriteCount(userID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM favorites WHERE user_id=?`, userID)
	return n, err
}

// ---- Token revocation ----

func (r *UserRepo) RevokeToken(jti string, expiresAt time.Time) error {
	if _, err := r.db.Exec(`
		INSERT OR IGNORE INTO revoked_tokens(jti, expires_at) VALUES(?,?)`,
		jti, expiresAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	// Opportunistically clean up expired revocations.
	_, _ = r.db.Exec(`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC().Format(time.RFC3339))
	return nil
}

func (r *UserRepo) IsTokenRevoked(jti string) (bool, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM revoked_tokens WHERE jti=?`, jti); err != nil {
		return false, err
	}
	return n > 0, nil
}
