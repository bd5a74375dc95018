package repos

import (
	"github.com/jmoiron/sqlx"

	"conmart/internal/domain"
)

type MessageRepo struct{ db *sqlx.DB }

func NewMessageRepo(db *sqlx.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageCols = `id,sender_id,receiver_id,product_id,content,is_read,created_at`

func (r *MessageRepo) Get(id string) (domain.Message, error) {
	var m domain.Message
	err := r.db.Get(&m, `SELECT `+messageCols+` FROM messages WHERE id=?`, id)
	return m, err
}

func (r *MessageRepo) Create(m *domain.Message) error {
	// Millisecond timestamps keep ordering stable for rapid back-and-forth.
	_, err := r.db.Exec(`
		INSERT INTO messages(id,sender_id,receiver_id,product_id,content,created_at)
		VALUES(?,?,?,?,?,strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	`, m.ID, m.SenderID, m.ReceiverID, m.ProductID, m.Content)
	return err
}

// ListForUser returns every message the user sent or received, oldest first
// so conversation grouping preserves chronology.
func (r *MessageRepo) ListForUser(userID string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.Select(&out, `
		SELECT `+messageCols+` FROM messages
		WHERE sender_id=? OR receiver_id=?
		ORDER BY created_at ASC, rowid ASC`, userID, userID)
	return out, err
}

// MarkRead flips is_read, but only for the message's receiver.
func (r *MessageRepo) MarkRead(id, receiverID string) error {
	_, err := r.db.Exec(`
		UPDATE messages SET is_read=1 WHERE id=? AND receiver_id=?`, id, receiverID)
	return err
}

// MarkConversationRead marks everything a partner sent to the user as read.
func (r *MessageRepo) MarkConversationRead(userID, partnerID string) error {
	_, err := r.db.Exec(`
		UPDATE messages SET is_read=1 WHERE receiver_id=? AND sender_id=? AND is_read=0`,
		userID, partnerID)
	return err
}

func (r *MessageRepo) UnreadCount(userID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM messages WHERE receiver_id=? AND is_read=0`, userID)
	return n, err
}
