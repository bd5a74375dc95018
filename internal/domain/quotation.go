package domain

// Quotation statuses. Transitions: pending -> responded -> accepted|rejected.
const (
	QuotationPending   = "pending"
	QuotationResponded = "responded"
	QuotationAccepted  = "accepted"
	QuotationRejected  = "rejected"
)

type Quotation struct {
	ID               string `db:"id" json:"id"`
	ProductID        string `db:"product_id" json:"product_id"`
	UserID           string `db:"user_id" json:"user_id"`
	Quantity         int    `db:"quantity" json:"quantity"`
	Message          string `db:"message" json:"message,omitempty"`
	DeliveryLocation string `db:"delivery_location" json:"delivery_location,omitempty"`
	RequestDocument  string `db:"request_document" json:"request_document,omitempty"`

	Status           string  `db:"status" json:"status"`
	Response         string  `db:"response" json:"response,omitempty"`
	PriceQuote       float64 `db:"price_quote" json:"price_quote,omitempty"`
	ResponseDocument string  `db:"response_document" json:"response_document,omitempty"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

// QuotationWithProduct joins the product fields buyer/owner lists need.
type QuotationWithProduct struct {
	Quotation
	ProductName  string `db:"product_name" json:"product_name"`
	ProductUnit  string `db:"product_unit" json:"product_unit"`
	ProductImage string `db:"product_image" json:"product_image,omitempty"`
	OwnerID      string `db:"product_owner_id" json:"product_owner_id"`
	BusinessName string `db:"business_name" json:"business_name"`
}
