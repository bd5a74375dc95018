package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

const verificationCols = `id,subject_type,subject_id,documents_json,status,
	reviewed_by,review_notes,approved_at,expires_at,validity_days,created_at,updated_at`

type VerificationRepo struct{ db *sqlx.DB }

func NewVerificationRepo(db *sqlx.DB) *VerificationRepo { return &VerificationRepo{db: db} }

func (r *VerificationRepo) Get(id string) (domain.VerificationRequest, error) {
	var v domain.VerificationRequest
	err := r.db.Get(&v, `SELECT `+verificationCols+` FROM verification_requests WHERE id=?`, id)
	return v, err
}

func (r *VerificationRepo) Create(v *domain.VerificationRequest) error {
	_, err := r.db.Exec(`
		INSERT INTO verification_requests(id,subject_type,subject_id,documents_json,status,validity_days)
		VALUES(?,?,?,?,?,?)`,
		v.ID, v.SubjectType, v.SubjectID, v.DocumentsJSON, domain.RequestPending, v.ValidityDays)
	return err
}

// PendingFor reports whether the subject already has an open request, so a
// second submission can be rejected before it reaches review.
func (r *VerificationRepo) PendingFor(subjectType, subjectID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*) FROM verification_requests
		WHERE subject_type=? AND subject_id=? AND status=?`,
		subjectType, subjectID, domain.RequestPending)
	return n > 0, err
}

func (r *VerificationRepo) Latest(subjectType, subjectID string) (domain.VerificationRequest, error) {
	var v domain.VerificationRequest
	err := r.db.Get(&v, `
		SELECT `+verificationCols+` FROM verification_requests
		WHERE subject_type=? AND subject_id=?
		ORDER BY created_at DESC LIMIT 1`, subjectType, subjectID)
	return v, err
}

func (r *VerificationRepo) ListByStatus(status string, limit, offset int) ([]domain.VerificationRequest, error) {
	var out []domain.VerificationRequest
	err := r.db.Select(&out, `
		SELECT `+verificationCols+` FROM verification_requests
		WHERE status=? ORDER BY created_at ASC
		LIMIT ? OFFSET ?`, status, limit, offset)
	return out, err
}

func (r *VerificationRepo) Approve(id, adminID, notes, approvedAt, expiresAt string) error {
	_, err := r.db.Exec(`
		UPDATE verification_requests
		SET status=?, reviewed_by=?, review_notes=?, approved_at=?, expires_at=?, updated_at=?
		WHERE id=? AND status=?`,
		domain.RequestApproved, adminID, notes, approvedAt, expiresAt,
		now(), id, domain.RequestPending)
	return err
}

func (r *VerificationRepo) Reject(id, adminID, notes string) error {
	_, err := r.db.Exec(`
		UPDATE verification_requests
		SET status=?, reviewed_by=?, review_notes=?, updated_at=?
		WHERE id=? AND status=?`,
		domain.RequestRejected, adminID, notes, now(), id, domain.RequestPending)
	return err
}

// ExpiredApprovals returns approved requests whose validity window has
// lapsed; the sweep task flips their subjects back to expired.
func (r *VerificationRepo) ExpiredApprovals(asOf string) ([]domain.VerificationRequest, error) {
	var out []domain.VerificationRequest
	err := r.db.Select(&out, `
		SELECT `+verificationCols+` FROM verification_requests
		WHERE status=? AND expires_at != '' AND expires_at < ?`,
		domain.RequestApproved, asOf)
	return out, err
}

func (r *VerificationRepo) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Queryx(`SELECT status, COUNT(*) AS n FROM verification_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }
