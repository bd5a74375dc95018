package domain

type Category struct {
	ID          string `db:"id" json:"id"`
	ParentID    string `db:"parent_id" json:"parent_id,omitempty"`
	Slug        string `db:"slug" json:"slug"`
	Name        string `db:"name" json:"name"`
	NameAmharic string `db:"name_amharic" json:"name_amharic,omitempty"`
	Description string `db:"description" json:"description,omitempty"`
	DescAmharic string `db:"description_amharic" json:"description_amharic,omitempty"`
	Icon        string `db:"icon" json:"icon,omitempty"`
	ImagesJSON  string `db:"images_json" json:"-"`
	Order       int    `db:"sort_order" json:"order"`
	IsActive    bool   `db:"is_active" json:"is_active"`
	// Maintained on product writes so listings avoid a COUNT per row.
	ProductCount int    `db:"product_count" json:"product_count"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

// Product moderation statuses.
const (
	ProductDraft       = "draft"
	ProductUnderReview = "under_review"
	ProductActive      = "active"
	ProductOutOfStock  = "out_of_stock"
	ProductInactive    = "inactive"
	ProductRejected    = "rejected"
)

type Product struct {
	ID            string `db:"id" json:"id"`
	OwnerID       string `db:"owner_id" json:"owner_id"`
	CategoryID    string `db:"category_id" json:"category_id"`
	SubcategoryID string `db:"subcategory_id" json:"subcategory_id,omitempty"`

	Name        string `db:"name" json:"name"`
	NameAmharic string `db:"name_amharic" json:"name_amharic,omitempty"`
	Description string `db:"description" json:"description"`
	Brand       string `db:"brand" json:"brand,omitempty"`
	Model       string `db:"model" json:"model,omitempty"`

	PrimaryImage string `db:"primary_image" json:"primary_image,omitempty"`
	ImagesJSON   string `db:"images_json" json:"-"`
	VideosJSON   string `db:"videos_json" json:"-"`
	SpecsJSON    string `db:"specs_json" json:"-"`

	Price              float64 `db:"price" json:"price"`
	PriceNegotiable    bool    `db:"price_negotiable" json:"price_negotiable"`
	QuotationAvailable bool    `db:"quotation_available" json:"quotation_available"`
	MinOrderQuantity   int     `db:"min_order_quantity" json:"min_order_quantity"`
	Unit               string  `db:"unit" json:"unit"`

	Location          string `db:"location" json:"location"`
	City              string `db:"city" json:"city,omitempty"`
	DeliveryAvailable bool   `db:"delivery_available" json:"delivery_available"`

	Status          string `db:"status" json:"status"`
	RejectionReason string `db:"rejection_reason" json:"rejection_reason,omitempty"`
	AdminNotes      string `db:"admin_notes" json:"admin_notes,omitempty"`
	// Set when the owner's plan no longer covers this listing.
	SubscriptionHidden bool `db:"is_subscription_hidden" json:"-"`

	AverageRating  float64 `db:"average_rating" json:"average_rating"`
	TotalReviews   int     `db:"total_reviews" json:"total_reviews"`
	ViewCount      int     `db:"view_count" json:"view_count"`
	QuotationCount int     `db:"quotation_requests_count" json:"quotation_requests_count"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type Review struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	UserID    string `db:"user_id" json:"user_id"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment,omitempty"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
