package domain

type Message struct {
	ID         string `db:"id" json:"id"`
	SenderID   string `db:"sender_id" json:"sender"`
	ReceiverID string `db:"receiver_id" json:"receiver"`
	// Nullable product reference; empty serializes as null for the clients
	// that default it (see MessagePayload).
	ProductID string `db:"product_id" json:"-"`
	Content   string `db:"content" json:"content"`
	IsRead    bool   `db:"is_read" json:"is_read"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// MessagePayload is the wire shape of a message; product is null when unset.
type MessagePayload struct {
	ID        string  `json:"id"`
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
	Product   *string `json:"product"`
	Content   string  `json:"content"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

func (m Message) Payload() MessagePayload {
	p := MessagePayload{
		ID:        m.ID,
		Sender:    m.SenderID,
		Receiver:  m.ReceiverID,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
	if m.ProductID != "" {
		pid := m.ProductID
		p.Product = &pid
	}
	return p
}

// Conversation is the per-partner grouping of a user's messages.
type Conversation struct {
	Partner      ConversationPartner `json:"partner"`
	Messages     []MessagePayload    `json:"messages"`
	LastMessage  *MessagePayload     `json:"last_message"`
	UnreadCount  int                 `json:"unread_count"`
	MessageCount int                 `json:"message_count"`
}

type ConversationPartner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}
