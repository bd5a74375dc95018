package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

const planCols = `id,code,role,tier,display_name,amount,currency,duration_days,product_limit,features_json,is_active`

const subscriptionCols = `id,user_id,plan_code,tier,amount,currency,start_date,end_date,
	status,reminded_at,payment_reference,created_at,updated_at`

type SubscriptionRepo struct{ db *sqlx.DB }

func NewSubscriptionRepo(db *sqlx.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

func (r *SubscriptionRepo) Plans(role string) ([]domain.SubscriptionPlan, error) {
	var out []domain.SubscriptionPlan
	err := r.db.Select(&out, `
		SELECT `+planCols+` FROM subscription_plans
		WHERE role=? AND is_active=1 ORDER BY amount ASC`, role)
	return out, err
}

func (r *SubscriptionRepo) PlanByCode(code string) (domain.SubscriptionPlan, error) {
	var p domain.SubscriptionPlan
	err := r.db.Get(&p, `SELECT `+planCols+` FROM subscription_plans WHERE code=?`, code)
	return p, err
}

func (r *SubscriptionRepo) Get(id string) (domain.Subscription, error) {
	var s domain.Subscription
	err := r.db.Get(&s, `SELECT `+subscriptionCols+` FROM subscriptions WHERE id=?`, id)
	return s, err
}

func (r *SubscriptionRepo) Create(s *domain.Subscription) error {
	_, err := r.db.Exec(`
		INSERT INTO subscriptions(id,user_id,plan_code,tier,amount,currency,status)
		VALUES(?,?,?,?,?,?,?)`,
		s.ID, s.UserID, s.PlanCode, s.Tier, s.Amount, s.Currency, domain.SubscriptionPending)
	return err
}

// Activate flips a pending subscription live and expires any previous active
// one in the same transaction, so a user never holds two running periods.
func (r *SubscriptionRepo) Activate(id, startDate, endDate, paymentRef string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var userID string
	if err := tx.Get(&userID, `SELECT user_id FROM subscriptions WHERE id=?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE subscriptions SET status=?, updated_at=?
		WHERE user_id=? AND status=? AND id != ?`,
		domain.SubscriptionExpired, now(), userID, domain.SubscriptionActive, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE subscriptions
		SET status=?, start_date=?, end_date=?, payment_reference=?, updated_at=?
		WHERE id=?`,
		domain.SubscriptionActive, startDate, endDate, paymentRef, now(), id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SubscriptionRepo) SetStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE subscriptions SET status=?, updated_at=? WHERE id=?`,
		status, now(), id)
	return err
}

func (r *SubscriptionRepo) ActiveForUser(userID string) (domain.Subscription, error) {
	var s domain.Subscription
	err := r.db.Get(&s, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE user_id=? AND status=?
		ORDER BY created_at DESC LIMIT 1`, userID, domain.SubscriptionActive)
	return s, err
}

func (r *SubscriptionRepo) ListByUser(userID string) ([]domain.Subscription, error) {
	var out []domain.Subscription
	err := r.db.Select(&out, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE user_id=? ORDER BY created_at DESC`, userID)
	return out, err
}

// DueForExpiry returns active subscriptions whose end date has passed.
func (r *SubscriptionRepo) DueForExpiry(asOf string) ([]domain.Subscription, error) {
	var out []domain.Subscription
	err := r.db.Select(&out, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE status=? AND end_date != '' AND end_date < ?`,
		domain.SubscriptionActive, asOf)
	return out, err
}

// DueForReminder returns active subscriptions ending within the window that
// have not been reminded yet this period.
func (r *SubscriptionRepo) DueForReminder(asOf, until string) ([]domain.Subscription, error) {
	var out []domain.Subscription
	err := r.db.Select(&out, `
		SELECT `+subscriptionCols+` FROM subscriptions
		WHERE status=? AND reminded_at='' AND end_date >= ? AND end_date <= ?`,
		domain.SubscriptionActive, asOf, until)
	return out, err
}

func (r *SubscriptionRepo) MarkReminded(id, at string) error {
	_, err := r.db.Exec(`UPDATE subscriptions SET reminded_at=? WHERE id=?`, at, id)
	return err
}

// Payment transactions.

const paymentCols = `id,user_id,subscription_id,plan_code,tx_ref,amount,currency,
	checkout_url,status,initiated_at,completed_at`

func (r *SubscriptionRepo) CreatePayment(p *domain.PaymentTransaction) error {
	_, err := r.db.Exec(`
		INSERT INTO payment_transactions(id,user_id,subscription_id,plan_code,tx_ref,amount,currency,checkout_url,status)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.SubscriptionID, p.PlanCode, p.TxRef, p.Amount, p.Currency,
		p.CheckoutURL, domain.PaymentInitiated)
	return err
}

func (r *SubscriptionRepo) PaymentByTxRef(txRef string) (domain.PaymentTransaction, error) {
	var p domain.PaymentTransaction
	err := r.db.Get(&p, `SELECT `+paymentCols+` FROM payment_transactions WHERE tx_ref=?`, txRef)
	return p, err
}

// CompletePayment records the verified outcome; only an initiated transaction
// moves, so replayed callbacks are no-ops.
func (r *SubscriptionRepo) CompletePayment(txRef, status string) error {
	_, err := r.db.Exec(`
		UPDATE payment_transactions SET status=?, completed_at=?
		WHERE tx_ref=? AND status=?`,
		status, now(), txRef, domain.PaymentInitiated)
	return err
}

func (r *SubscriptionRepo) PaymentsByUser(userID string) ([]domain.PaymentTransaction, error) {
	var out []domain.PaymentTransaction
	err := r.db.Select(&out, `
		SELECT `+paymentCols+` FROM payment_transactions
		WHERE user_id=? ORDER BY initiated_at DESC`, userID)
	return out, err
}

// Revenue sums successful payments, used on the admin dashboard.
func (r *SubscriptionRepo) Revenue() (float64, error) {
	var total float64
	err := r.db.Get(&total, `
		SELECT COALESCE(SUM(amount),0) FROM payment_transactions WHERE status=?`,
		domain.PaymentSuccessful)
	return total, err
}
