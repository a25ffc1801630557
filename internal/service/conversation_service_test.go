package service

import (
	"testing"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_StartIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := f.start(t)
	second := f.start(t)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, f.seller.ID, first.SellerID)

	again, err := f.conversation.FindOrCreate(f.ctx, f.listing.ID, f.buyer.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	inbox, err := f.conversation.ListForUser(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, inbox.Conversations, 1)
}

func TestConversationService_StartRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversation.Start(f.ctx, f.listing.ID, f.seller.ID)
	assert.ErrorIs(t, err, ErrOwnListing)

	_, err = f.conversation.Start(f.ctx, 9999, f.buyer.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := f.listings.SetStatusOwned(f.ctx, f.listing.ID, f.seller.ID, model.ListingStatusSold)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.conversation.Start(f.ctx, f.listing.ID, f.other.ID)
	assert.ErrorIs(t, err, ErrListingInactive)
}

func TestConversationService_StartReturnsExistingThreadAfterSale(t *testing.T) {
	f := newFixture(t)
	cv := f.start(t)

	_, err := f.listings.SetStatusOwned(f.ctx, f.listing.ID, f.seller.ID, model.ListingStatusSold)
	require.NoError(t, err)

	again, err := f.conversation.Start(f.ctx, f.listing.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, cv.ID, again.ID)
}

func TestConversationService_Authorize(t *testing.T) {
	f := newFixture(t)
	cv := f.start(t)

	tests := []struct {
		name     string
		actorID  uint64
		convID   uint64
		wantRole Role
		wantErr  error
	}{
		{"buyer", f.buyer.ID, cv.ID, RoleBuyer, nil},
		{"seller", f.seller.ID, cv.ID, RoleSeller, nil},
		{"outsider looks like missing", f.other.ID, cv.ID, "", ErrNotFound},
		{"anonymous", 0, cv.ID, "", ErrNotFound},
		{"unknown conversation", f.buyer.ID, cv.ID + 100, "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.conversation.Authorize(f.ctx, tt.actorID, tt.convID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, p.Role)
			assert.Equal(t, tt.actorID, p.UserID)
		})
	}
}

func TestConversationService_InboxOrderAndUnread(t *testing.T) {
	f := newFixture(t)
	second := f.newListing(t, f.seller.ID, "40")

	cv1 := f.start(t)
	cv2, err := f.conversation.Start(f.ctx, second.ID, f.buyer.ID)
	require.NoError(t, err)

	f.send(t, cv1.ID, f.buyer.ID, "Is this available?")
	f.send(t, cv1.ID, f.seller.ID, "Yes")
	f.send(t, cv2.ID, f.seller.ID, "Price is firm")
	f.send(t, cv2.ID, f.seller.ID, "Pickup only")

	inbox, err := f.conversation.ListForUser(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, inbox.Conversations, 2)

	assert.Equal(t, cv2.ID, inbox.Conversations[0].ID, "most recent activity first")
	assert.Equal(t, int64(2), inbox.Conversations[0].UnreadCount)
	require.NotNil(t, inbox.Conversations[0].LastMessage)
	assert.Equal(t, "Pickup only", *inbox.Conversations[0].LastMessage)
	assert.Equal(t, "Sam Seller", inbox.Conversations[0].CounterpartName)

	assert.Equal(t, cv1.ID, inbox.Conversations[1].ID)
	assert.Equal(t, int64(1), inbox.Conversations[1].UnreadCount)
	assert.Equal(t, int64(3), inbox.UnreadTotal)

	global, err := f.ledger.UnreadCount(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, inbox.UnreadTotal, global, "badge and inbox agree")

	sellerInbox, err := f.conversation.ListForUser(f.ctx, f.seller.ID)
	require.NoError(t, err)
	require.Len(t, sellerInbox.Conversations, 2)
	assert.Equal(t, "Bea Buyer", sellerInbox.Conversations[0].CounterpartName)
	assert.Equal(t, int64(1), sellerInbox.UnreadTotal)

	outsider, err := f.conversation.ListForUser(f.ctx, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, outsider.Conversations)
}

func TestConversationService_EmptyConversationUsesCreationTime(t *testing.T) {
	f := newFixture(t)
	cv := f.start(t)

	inbox, err := f.conversation.ListForUser(f.ctx, f.seller.ID)
	require.NoError(t, err)
	require.Len(t, inbox.Conversations, 1)
	assert.Nil(t, inbox.Conversations[0].LastMessage)
	assert.Equal(t, cv.CreatedAt, inbox.Conversations[0].LastActivityAt)
}

func TestConversationService_ViewMarksRead(t *testing.T) {
	f := newFixture(t)
	cv := f.start(t)
	f.send(t, cv.ID, f.seller.ID, "Hello")
	f.send(t, cv.ID, f.seller.ID, "Still there?")

	view, err := f.conversation.View(f.ctx, f.participant(t, f.buyer.ID, cv.ID))
	require.NoError(t, err)
	assert.Len(t, view.Messages, 2)
	assert.Equal(t, view.Messages[1].ID, view.LastMessageID)
	assert.Equal(t, RoleBuyer, view.Role)
	assert.Equal(t, "Mountain bike", view.Conversation.ListingTitle)
	assert.Nil(t, view.PendingOffer)
	assert.Empty(t, view.PaymentInfo)

	n, err := f.ledger.UnreadCount(f.ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
