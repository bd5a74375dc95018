package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(n *domain.Notification) error {
	_, err := r.db.Exec(`
		INSERT INTO notifications(id,recipient_id,title,message,notification_type)
		VALUES(?,?,?,?,?)`,
		n.ID, n.RecipientID, n.Title, n.Message, n.Type)
	return err
}

func (r *NotificationRepo) ListByRecipient(recipientID string, limit, offset int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.Select(&out, `
		SELECT id,recipient_id,title,message,notification_type,is_read,created_at
		FROM notifications WHERE recipient_id=?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, recipientID, limit, offset)
	return out, err
}

func (r *NotificationRepo) UnreadCount(recipientID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM notifications WHERE recipient_id=? AND is_read=0`, recipientID)
	return n, err
}

func (r *NotificationRepo) MarkRead(id, recipientID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read=1 WHERE id=? AND recipient_id=?`, id, recipientID)
	return err
}

func (r *NotificationRepo) MarkAllRead(recipientID string) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read=1 WHERE recipient_id=?`, recipientID)
	return err
}
