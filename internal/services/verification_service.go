package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

type VerificationService struct {
	Reqs   *repos.VerificationRepo
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo
	Notify *NotificationService

	// How long an approval stays valid before the expiry sweep flips the
	// subject back to expired.
	ValidDays int
}

func NewVerificationService(reqs *repos.VerificationRepo, users *repos.UserRepo,
	owners *repos.OwnerRepo, notify *NotificationService, validDays int) *VerificationService {
	if validDays <= 0 {
		validDays = 365
	}
	return &VerificationService{Reqs: reqs, Users: users, Owners: owners, Notify: notify, ValidDays: validDays}
}

// Submit opens a verification request for a buyer or a supplier profile.
// Only one open request per subject; the subject moves to pending right away.
func (s *VerificationService) Submit(u *domain.User, documentsJSON string) (*domain.VerificationRequest, error) {
	subjectType := domain.SubjectUser
	subjectID := u.ID
	if u.Role == domain.RoleProductOwner {
		owner, err := s.Owners.ByUserID(u.ID)
		if err != nil {
			return nil, err
		}
		subjectType = domain.SubjectOwner
		subjectID = owner.ID
	}

	open, err := s.Reqs.PendingFor(subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, errors.New("a verification request is already under review")
	}

	req := &domain.VerificationRequest{
		ID:            uuid.NewString(),
		SubjectType:   subjectType,
		SubjectID:     subjectID,
		DocumentsJSON: documentsJSON,
		ValidityDays:  s.ValidDays,
	}
	if err := s.Reqs.Create(req); err != nil {
		return nil, err
	}
	if err := s.setSubjectStatus(subjectType, subjectID, domain.VerificationPending, "", "", ""); err != nil {
		return nil, err
	}
	created, err := s.Reqs.Get(req.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Status returns the caller's latest request, if any.
func (s *VerificationService) Status(u *domain.User) (*domain.VerificationRequest, error) {
	subjectType := domain.SubjectUser
	subjectID := u.ID
	if u.Role == domain.RoleProductOwner {
		owner, err := s.Owners.ByUserID(u.ID)
		if err != nil {
			return nil, err
		}
		subjectType = domain.SubjectOwner
		subjectID = owner.ID
	}
	req, err := s.Reqs.Latest(subjectType, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *VerificationService) Queue(status string, page, pageSize int) ([]domain.VerificationRequest, error) {
	if status == "" {
		status = domain.RequestPending
	}
	limit, offset := pageWindow(page, pageSize)
	return s.Reqs.ListByStatus(status, limit, offset)
}

// Approve marks the request approved and verifies its subject until the
// validity window runs out.
func (s *VerificationService) Approve(adminID, requestID, notes string) (*domain.VerificationRequest, error) {
	req, err := s.Reqs.Get(requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestPending {
		return nil, ErrBadState
	}

	days := req.ValidityDays
	if days <= 0 {
		days = s.ValidDays
	}
	approvedAt := time.Now().UTC()
	expiresAt := approvedAt.AddDate(0, 0, days)
	approved := approvedAt.Format(time.RFC3339)
	expires := expiresAt.Format(time.RFC3339)

	if err := s.Reqs.Approve(requestID, adminID, notes, approved, expires); err != nil {
		return nil, err
	}
	if err := s.setSubjectStatus(req.SubjectType, req.SubjectID, domain.VerificationVerified, approved, expires, ""); err != nil {
		return nil, err
	}
	if uid, err := s.subjectUserID(req.SubjectType, req.SubjectID); err == nil {
		_ = s.Notify.Push(uid, domain.NotifyVerificationApproved,
			"Verification approved", "Your account has been verified.")
	}

	updated, err := s.Reqs.Get(requestID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *VerificationService) Reject(adminID, requestID, reason string) (*domain.VerificationRequest, error) {
	req, err := s.Reqs.Get(requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestPending {
		return nil, ErrBadState
	}

	if err := s.Reqs.Reject(requestID, adminID, reason); err != nil {
		return nil, err
	}
	if err := s.setSubjectStatus(req.SubjectType, req.SubjectID, domain.VerificationRejected, "", "", reason); err != nil {
		return nil, err
	}
	if uid, err := s.subjectUserID(req.SubjectType, req.SubjectID); err == nil {
		_ = s.Notify.Push(uid, domain.NotifyVerificationRejected,
			"Verification rejected", "Your verification was rejected: "+reason)
	}

	updated, err := s.Reqs.Get(requestID)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SweepExpired flips subjects whose approval lapsed to expired. Returns how
// many subjects changed.
func (s *VerificationService) SweepExpired() (int, error) {
	asOf := time.Now().UTC().Format(time.RFC3339)
	lapsed, err := s.Reqs.ExpiredApprovals(asOf)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, req := range lapsed {
		status, err := s.subjectVerification(req.SubjectType, req.SubjectID)
		if err != nil || status != domain.VerificationVerified {
			continue
		}
		if err := s.setSubjectStatus(req.SubjectType, req.SubjectID, domain.VerificationExpired, "", "", ""); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *VerificationService) setSubjectStatus(subjectType, subjectID, status, verifiedAt, expiresAt, reason string) error {
	if subjectType == domain.SubjectOwner {
		return s.Owners.SetVerification(subjectID, status, verifiedAt, expiresAt)
	}
	return s.Users.SetVerification(subjectID, status, verifiedAt, expiresAt, reason)
}

func (s *VerificationService) subjectUserID(subjectType, subjectID string) (string, error) {
	if subjectType == domain.SubjectOwner {
		owner, err := s.Owners.ByID(subjectID)
		if err != nil {
			return "", err
		}
		return owner.UserID, nil
	}
	return subjectID, nil
}

func (s *VerificationService) subjectVerification(subjectType, subjectID string) (string, error) {
	if subjectType == domain.SubjectOwner {
		owner, err := s.Owners.ByID(subjectID)
		if err != nil {
			return "", err
		}
		return owner.Verification, nil
	}
	u, err := s.Users.ByID(subjectID)
	if err != nil {
		return "", err
	}
	return u.Verification, nil
}
