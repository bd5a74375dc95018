package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"conmart/internal/domain"
	"conmart/internal/entitlement"
	"conmart/internal/repos"
)

type MessageService struct {
	Msgs   *repos.MessageRepo
	Users  *repos.UserRepo
	Owners *repos.OwnerRepo
	Prods  *repos.ProductRepo
	Notify *NotificationService
}

func NewMessageService(msgs *repos.MessageRepo, users *repos.UserRepo,
	owners *repos.OwnerRepo, prods *repos.ProductRepo, notify *NotificationService) *MessageService {
	return &MessageService{Msgs: msgs, Users: users, Owners: owners, Prods: prods, Notify: notify}
}

// Send delivers a direct message after tier gating: buyers need premium and
// verification, suppliers need a standard or premium plan.
func (s *MessageService) Send(sender *domain.User, receiverID, productID, content string) (*domain.Message, error) {
	switch sender.Role {
	case domain.RoleUser:
		if !entitlement.CanMessageSupplier(sender.Tier, sender.Verification) {
			if sender.Tier != domain.TierPremium {
				return nil, &GateError{
					Detail:      "direct messaging requires a premium subscription",
					UpgradePlan: entitlement.NextUpgradePlan(sender.Role, sender.Tier),
				}
			}
			return nil, &GateError{Detail: "account verification required to send messages"}
		}
	case domain.RoleProductOwner:
		owner, err := s.Owners.ByUserID(sender.ID)
		if err != nil {
			return nil, err
		}
		if !entitlement.CanMessageCustomers(owner.Tier) {
			return nil, &GateError{
				Detail:      "messaging customers requires a standard or premium plan",
				UpgradePlan: entitlement.NextUpgradePlan(domain.RoleProductOwner, owner.Tier),
			}
		}
	case domain.RoleAdmin:
		// Admins are not gated.
	default:
		return nil, ErrForbidden
	}

	// The client may address a supplier by owner profile id; resolve it to
	// the underlying account.
	receiver, err := s.Users.ByID(receiverID)
	if errors.Is(err, sql.ErrNoRows) {
		owner, oerr := s.Owners.ByID(receiverID)
		if oerr != nil {
			return nil, ErrNotFound
		}
		receiver, err = s.Users.ByID(owner.UserID)
	}
	if err != nil {
		return nil, err
	}
	if productID != "" {
		if _, err := s.Prods.Get(productID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errors.New("unknown product reference")
			}
			return nil, err
		}
	}

	m := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		ProductID:  productID,
		Content:    content,
	}
	if err := s.Msgs.Create(m); err != nil {
		return nil, err
	}
	_ = s.Notify.Push(receiver.ID, domain.NotifyMessageReceived,
		"New message", fmt.Sprintf("%s sent you a message", sender.Name))

	created, err := s.Msgs.Get(m.ID)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Conversations groups the user's messages by the other party, newest
// conversation first. Unread counts only cover messages addressed to the
// user.
func (s *MessageService) Conversations(userID string) ([]domain.Conversation, error) {
	msgs, err := s.Msgs.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	byPartner := map[string]*domain.Conversation{}
	order := []string{}
	for _, m := range msgs {
		partnerID := m.SenderID
		if partnerID == userID {
			partnerID = m.ReceiverID
		}
		conv, ok := byPartner[partnerID]
		if !ok {
			conv = &domain.Conversation{
				Partner:  domain.ConversationPartner{ID: partnerID},
				Messages: []domain.MessagePayload{},
			}
			byPartner[partnerID] = conv
			order = append(order, partnerID)
		}
		payload := m.Payload()
		conv.Messages = append(conv.Messages, payload)
		conv.MessageCount++
		last := payload
		conv.LastMessage = &last
		if m.ReceiverID == userID && !m.IsRead {
			conv.UnreadCount++
		}
	}

	out := make([]domain.Conversation, 0, len(order))
	for _, partnerID := range order {
		conv := byPartner[partnerID]
		if partner, err := s.Users.ByID(partnerID); err == nil {
			conv.Partner.Name = partner.Name
			conv.Partner.Role = partner.Role
			conv.Partner.Avatar = partner.Avatar
			if partner.Role == domain.RoleProductOwner {
				if owner, err := s.Owners.ByUserID(partnerID); err == nil && owner.BusinessName != "" {
					conv.Partner.Name = owner.BusinessName
				}
			}
		}
		out = append(out, *conv)
	}
	// Most recently active conversation first; messages inside stay
	// chronological.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt > out[j].LastMessage.CreatedAt
	})
	return out, nil
}

func (s *MessageService) MarkRead(userID, messageID string) error {
	return s.Msgs.MarkRead(messageID, userID)
}

func (s *MessageService) MarkConversationRead(userID, partnerID string) error {
	return s.Msgs.MarkConversationRead(userID, partnerID)
}

func (s *MessageService) UnreadCount(userID string) (int, error) {
	return s.Msgs.UnreadCount(userID)
}
