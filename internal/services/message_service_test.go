package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conmart/internal/domain"
	"conmart/internal/repos"
	"conmart/internal/services"
)

func newMessageFixture(t *testing.T) (*fixture, *services.MessageService) {
	t.Helper()
	f := newFixture(t)
	svc := services.NewMessageService(
		repos.NewMessageRepo(f.db), f.users, f.owners, f.prods, f.notify)
	return f, svc
}

func TestMessageSend_BuyerGating(t *testing.T) {
	f, svc := newMessageFixture(t)
	supplierUser, _ := f.supplier(t, domain.TierStandard)

	free := f.buyer(t, domain.TierFree, domain.VerificationVerified)
	_, err := svc.Send(free, supplierUser.ID, "", "hello")
	gate, ok := services.AsGate(err)
	require.True(t, ok)
	assert.Equal(t, "standard_user", gate.UpgradePlan)

	standard := f.buyer(t, domain.TierStandard, domain.VerificationVerified)
	_, err = svc.Send(standard, supplierUser.ID, "", "hello")
	gate, ok = services.AsGate(err)
	require.True(t, ok, "standard buyers cannot message, got %v", err)
	assert.Equal(t, "premium_user", gate.UpgradePlan)

	unverified := f.buyer(t, domain.TierPremium, domain.VerificationUnverified)
	_, err = svc.Send(unverified, supplierUser.ID, "", "hello")
	gate, ok = services.AsGate(err)
	require.True(t, ok)
	assert.Empty(t, gate.UpgradePlan)

	premium := f.buyer(t, domain.TierPremium, domain.VerificationVerified)
	m, err := svc.Send(premium, supplierUser.ID, "", "hello")
	require.NoError(t, err)
	assert.Equal(t, premium.ID, m.SenderID)
	assert.False(t, m.IsRead)
}

func TestMessageSend_OwnerGating(t *testing.T) {
	f, svc := newMessageFixture(t)
	buyer := f.buyer(t, domain.TierPremium, domain.VerificationVerified)

	basicUser, _ := f.supplier(t, domain.TierBasic)
	_, err := svc.Send(basicUser, buyer.ID, "", "thanks for asking")
	gate, ok := services.AsGate(err)
	require.True(t, ok)
	assert.Equal(t, "standard_owner", gate.UpgradePlan)

	standardUser, _ := f.supplier(t, domain.TierStandard)
	_, err = svc.Send(standardUser, buyer.ID, "", "thanks for asking")
	require.NoError(t, err)
}

func TestConversations_GroupingAndUnread(t *testing.T) {
	f, svc := newMessageFixture(t)
	buyer := f.buyer(t, domain.TierPremium, domain.VerificationVerified)
	supplierA, ownerA := f.supplier(t, domain.TierStandard)
	supplierB, _ := f.supplier(t, domain.TierStandard)
	p := f.activeProduct(t, ownerA.ID)

	_, err := svc.Send(buyer, supplierA.ID, p.ID, "price for 200 bags?")
	require.NoError(t, err)
	_, err = svc.Send(supplierA, buyer.ID, "", "820 per bag delivered")
	require.NoError(t, err)
	_, err = svc.Send(buyer, supplierB.ID, "", "do you stock rebar?")
	require.NoError(t, err)

	convs, err := svc.Conversations(buyer.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	var withA domain.Conversation
	seen := map[string]bool{}
	for _, c := range convs {
		seen[c.Partner.ID] = true
		if c.Partner.ID == supplierA.ID {
			withA = c
		}
	}
	assert.True(t, seen[supplierA.ID] && seen[supplierB.ID])
	require.NotNil(t, withA.LastMessage)
	assert.Equal(t, 2, withA.MessageCount)
	assert.Len(t, withA.Messages, 2)
	// Only the supplier's reply counts as unread for the buyer.
	assert.Equal(t, 1, withA.UnreadCount)
	// Supplier partners show their business name.
	assert.Equal(t, "Addis Building Supply", withA.Partner.Name)
	// Oldest first inside the thread; product ref only where it was set.
	assert.Equal(t, buyer.ID, withA.Messages[0].Sender)
	require.NotNil(t, withA.Messages[0].Product)
	assert.Equal(t, p.ID, *withA.Messages[0].Product)
	assert.Nil(t, withA.Messages[1].Product)

	// The supplier's view of the same thread counts the buyer's opener.
	supplierConvs, err := svc.Conversations(supplierA.ID)
	require.NoError(t, err)
	require.Len(t, supplierConvs, 1)
	assert.Equal(t, 1, supplierConvs[0].UnreadCount)

	require.NoError(t, svc.MarkConversationRead(buyer.ID, supplierA.ID))
	n, err := svc.UnreadCount(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
