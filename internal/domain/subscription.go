package domain

// Subscription statuses.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Payment transaction statuses.
const (
	PaymentInitiated  = "initiated"
	PaymentSuccessful = "successful"
	PaymentFailed     = "failed"
)

type SubscriptionPlan struct {
	ID           string  `db:"id" json:"id"`
	Code         string  `db:"code" json:"code"`
	Role         string  `db:"role" json:"role"`
	Tier         string  `db:"tier" json:"tier"`
	DisplayName  string  `db:"display_name" json:"display_name"`
	Amount       float64 `db:"amount" json:"amount"`
	Currency     string  `db:"currency" json:"currency"`
	DurationDays int     `db:"duration_days" json:"duration_days"`
	// -1 means unlimited; only meaningful for owner plans.
	ProductLimit int    `db:"product_limit" json:"product_limit"`
	FeaturesJSON string `db:"features_json" json:"-"`
	IsActive     bool   `db:"is_active" json:"is_active"`
}

type Subscription struct {
	ID       string  `db:"id" json:"id"`
	UserID   string  `db:"user_id" json:"user"`
	PlanCode string  `db:"plan_code" json:"plan_code"`
	Tier     string  `db:"tier" json:"tier"`
	Amount   float64 `db:"amount" json:"amount"`
	Currency string  `db:"currency" json:"currency"`

	StartDate string `db:"start_date" json:"start_date,omitempty"`
	EndDate   string `db:"end_date" json:"end_date,omitempty"`
	Status    string `db:"status" json:"status"`
	// Set once the ~5-days-out reminder email has gone for this period.
	RemindedAt string `db:"reminded_at" json:"-"`

	PaymentReference string `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        string `db:"created_at" json:"created_at"`
	UpdatedAt        string `db:"updated_at" json:"updated_at,omitempty"`
}

type PaymentTransaction struct {
	ID             string  `db:"id" json:"id"`
	UserID         string  `db:"user_id" json:"user"`
	SubscriptionID string  `db:"subscription_id" json:"subscription"`
	PlanCode       string  `db:"plan_code" json:"plan_code"`
	TxRef          string  `db:"tx_ref" json:"tx_ref"`
	Amount         float64 `db:"amount" json:"amount"`
	Currency       string  `db:"currency" json:"currency"`
	CheckoutURL    string  `db:"checkout_url" json:"checkout_url,omitempty"`
	Status         string  `db:"status" json:"status"`
	InitiatedAt    string  `db:"initiated_at" json:"initiated_at"`
	CompletedAt    string  `db:"completed_at" json:"completed_at,omitempty"`
}
