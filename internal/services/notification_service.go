package services

import (
	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/repos"
)

type NotificationService struct {
	Notes *repos.NotificationRepo
}

func NewNotificationService(notes *repos.NotificationRepo) *NotificationService {
	return &NotificationService{Notes: notes}
}

// Push records an in-app notification. Failures are returned but callers
// treat them as best-effort; a lost notification never fails the action that
// triggered it.
func (s *NotificationService) Push(recipientID, typ, title, message string) error {
	return s.Notes.Create(&domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
		Message:     message,
	})
}

func (s *NotificationService) List(recipientID string, page, pageSize int) ([]domain.Notification, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.Notes.ListByRecipient(recipientID, limit, offset)
}

func (s *NotificationService) UnreadCount(recipientID string) (int, error) {
	return s.Notes.UnreadCount(recipientID)
}

func (s *NotificationService) MarkRead(id, recipientID string) error {
	return s.Notes.MarkRead(id, recipientID)
}

func (s *NotificationService) MarkAllRead(recipientID string) error {
	return s.Notes.MarkAllRead(recipientID)
}
