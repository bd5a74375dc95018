package domain

// VerificationRequest review statuses (the subject's own
// verification_status additionally covers unverified/expired).
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Verification subject kinds.
const (
	SubjectUser  = "user"
	SubjectOwner = "product_owner"
)

type VerificationRequest struct {
	ID          string `db:"id" json:"id"`
	SubjectType string `db:"subject_type" json:"subject_type"`
	// User id for buyer verifications, owner profile id for supplier ones.
	SubjectID     string `db:"subject_id" json:"subject_id"`
	DocumentsJSON string `db:"documents_json" json:"-"`

	Status       string `db:"status" json:"status"`
	ReviewedBy   string `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNotes  string `db:"review_notes" json:"review_notes,omitempty"`
	ApprovedAt   string `db:"approved_at" json:"approved_at,omitempty"`
	ExpiresAt    string `db:"expires_at" json:"verification_expires_at,omitempty"`
	ValidityDays int    `db:"validity_days" json:"document_validity_period"`

	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}
