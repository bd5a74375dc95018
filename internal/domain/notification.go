package domain

// Notification types.
const (
	NotifyVerificationApproved = "verification_approved"
	NotifyVerificationRejected = "verification_rejected"
	NotifyProductApproved      = "product_approved"
	NotifyProductRejected      = "product_rejected"
	NotifyQuotationReceived    = "quotation_received"
	NotifyQuotationResponded   = "quotation_responded"
	NotifySubscriptionExpiring = "subscription_expiring"
	NotifySubscriptionExpired  = "subscription_expired"
	NotifyMessageReceived      = "message_received"
	NotifySystem               = "system"
)

type Notification struct {
	ID          string `db:"id" json:"id"`
	RecipientID string `db:"recipient_id" json:"recipient"`
	Title       string `db:"title" json:"title"`
	Message     string `db:"message" json:"message"`
	Type        string `db:"notification_type" json:"notification_type"`
	IsRead      bool   `db:"is_read" json:"is_read"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}
