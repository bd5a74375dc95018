package domain

// Roles.
const (
	RoleUser         = "user"
	RoleProductOwner = "product_owner"
	RoleAdmin        = "admin"
)

// Buyer tiers.
const (
	TierFree     = "free"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// Owner tiers ("basic" replaces "free"; standard/premium shared).
const TierBasic = "basic"

// Verification statuses shared by users and owner profiles.
const (
	VerificationUnverified = "unverified"
	VerificationPending    = "pending"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
	VerificationExpired    = "expired"
)

type User struct {
	ID            string `db:"id" json:"id"`
	Email         string `db:"email" json:"email"`
	Name          string `db:"name" json:"name"`
	Hash          string `db:"password_hash" json:"-"`
	Role          string `db:"role" json:"role"`
	Tier          string `db:"tier" json:"tier"`
	Phone         string `db:"phone" json:"phone,omitempty"`
	Language      string `db:"preferred_language" json:"preferred_language"`
	Avatar        string `db:"avatar" json:"avatar,omitempty"`
	IsActive      bool   `db:"is_active" json:"is_active"`
	Verification  string `db:"verification_status" json:"verification_status"`
	VerifiedAt    string `db:"verified_at" json:"verified_at,omitempty"`
	VerifyExpires string `db:"verification_expires_at" json:"verification_expires_at,omitempty"`
	RejectReason  string `db:"verification_rejection_reason" json:"verification_rejection_reason,omitempty"`

	// Standard-tier buyers get a monthly quotation allowance; the month key
	// ("2006-01") resets the counter lazily when it rolls over.
	QuotationsUsed  int    `db:"quotations_used" json:"-"`
	QuotationsMonth string `db:"quotations_reset_month" json:"-"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

// ProductOwner is the supplier profile attached to a product_owner user.
type ProductOwner struct {
	ID            string `db:"id" json:"id"`
	UserID        string `db:"user_id" json:"user_id"`
	BusinessName  string `db:"business_name" json:"business_name"`
	BusinessDesc  string `db:"business_description" json:"business_description,omitempty"`
	BusinessAddr  string `db:"business_address" json:"business_address,omitempty"`
	BusinessCity  string `db:"business_city" json:"business_city,omitempty"`
	BusinessPhone string `db:"business_phone" json:"business_phone,omitempty"`
	BusinessEmail string `db:"business_email" json:"business_email,omitempty"`

	Tier          string `db:"tier" json:"tier"`
	Verification  string `db:"verification_status" json:"verification_status"`
	VerifiedAt    string `db:"verified_at" json:"verified_at,omitempty"`
	VerifyExpires string `db:"verification_expires_at" json:"verification_expires_at,omitempty"`

	ProductsCount int `db:"products_count" json:"products_count"`
	// -1 means unlimited.
	ProductsLimit int `db:"products_limit" json:"products_limit"`

	DeliveryAvailable bool    `db:"delivery_available" json:"delivery_available"`
	AverageRating     float64 `db:"average_rating" json:"average_rating"`
	TotalReviews      int     `db:"total_reviews" json:"total_reviews"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}
