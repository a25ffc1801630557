package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"github.com/shinyyama/marketplace-backend/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// stepClock advances one second on every reading so timestamps are distinct.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	ctx   context.Context
	clock *stepClock

	users    repository.UserRepository
	listings repository.ListingRepository
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	offers   repository.OfferRepository

	ledger       LedgerService
	negotiation  NegotiationService
	conversation ConversationService

	buyer   *model.User
	seller  *model.User
	other   *model.User
	listing *model.Listing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store.SetClock(clock.Now)

	f := &fixture{
		ctx:      context.Background(),
		clock:    clock,
		users:    memory.NewUserRepository(store),
		listings: memory.NewListingRepository(store),
		convRepo: memory.NewConversationRepository(store),
		msgRepo:  memory.NewMessageRepository(store),
		offers:   memory.NewOfferRepository(store),
	}
	f.ledger = NewLedgerService(f.msgRepo, nil, clock.Now)
	f.negotiation = NewNegotiationService(f.offers, nil, clock.Now)
	f.conversation = NewConversationService(f.convRepo, f.listings, f.ledger, f.negotiation, nil)

	f.buyer = f.user(t, "buyer@example.com", "Bea Buyer", "")
	f.seller = f.user(t, "seller@example.com", "Sam Seller", "Venmo @sam")
	f.other = f.user(t, "other@example.com", "Otto Other", "")
	f.listing = f.newListing(t, f.seller.ID, "100")
	return f
}

func (f *fixture) user(t *testing.T, email, name, payment string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: name, PasswordHash: "x", PaymentInfo: payment}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) newListing(t *testing.T, sellerID uint64, price string) *model.Listing {
	t.Helper()
	l := &model.Listing{
		SellerID:    sellerID,
		Title:       "Mountain bike",
		Description: "Lightly used",
		Price:       decimal.RequireFromString(price),
		Category:    "Sports",
		Condition:   model.ConditionGood,
		Status:      model.ListingStatusActive,
	}
	require.NoError(t, f.listings.Create(f.ctx, l))
	return l
}

func (f *fixture) start(t *testing.T) *model.Conversation {
	t.Helper()
	cv, err := f.conversation.Start(f.ctx, f.listing.ID, f.buyer.ID)
	require.NoError(t, err)
	return cv
}

func (f *fixture) participant(t *testing.T, userID, convID uint64) *Participant {
	t.Helper()
	p, err := f.conversation.Authorize(f.ctx, userID, convID)
	require.NoError(t, err)
	return p
}

func (f *fixture) send(t *testing.T, convID, senderID uint64, content string) *model.Message {
	t.Helper()
	msg, ok, err := f.ledger.Append(f.ctx, convID, senderID, content)
	require.NoError(t, err)
	require.True(t, ok)
	return msg
}
