package service

import (
	"context"
	"fmt"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/reqctx"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"go.uber.org/zap"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Participant is the capability returned by Authorize: proof that UserID
// takes part in Conversation, and in which role.
type Participant struct {
	Conversation model.Conversation
	UserID       uint64
	Role         Role
}

type Inbox struct {
	Conversations []model.ConversationSummary `json:"conversations"`
	UnreadTotal   int64                       `json:"unreadTotal"`
}

type ConversationView struct {
	Conversation  *model.ConversationDetail `json:"conversation"`
	Role          Role                      `json:"role"`
	Messages      []model.Message           `json:"messages"`
	PendingOffer  *model.Offer              `json:"pendingOffer,omitempty"`
	LatestOffer   *model.Offer              `json:"latestOffer,omitempty"`
	PaymentInfo   string                    `json:"paymentInfo,omitempty"`
	LastMessageID uint64                    `json:"lastMessageId"`
}

type ConversationService interface {
	// Start opens (or reopens) the buyer's thread about a listing.
	Start(ctx context.Context, listingID, buyerID uint64) (*model.Conversation, error)
	FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint64) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID uint64) (*Inbox, error)
	Get(ctx context.Context, convID uint64) (*model.ConversationDetail, error)
	// Authorize answers ErrNotFound both for unknown conversations and for
	// actors who are not part of them.
	Authorize(ctx context.Context, actorID, convID uint64) (*Participant, error)
	// View marks the conversation read for the participant and returns it.
	View(ctx context.Context, p *Participant) (*ConversationView, error)
	// ExistingFor returns nil when the buyer has no thread on the listing.
	ExistingFor(ctx context.Context, listingID, buyerID uint64) (*model.Conversation, error)
}

type conversationService struct {
	convs       repository.ConversationRepository
	listings    repository.ListingRepository
	ledger      LedgerService
	negotiation NegotiationService
	log         *zap.Logger
}

func NewConversationService(
	convs repository.ConversationRepository,
	listings repository.ListingRepository,
	ledger LedgerService,
	negotiation NegotiationService,
	log *zap.Logger,
) ConversationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &conversationService{convs: convs, listings: listings, ledger: ledger, negotiation: negotiation, log: log}
}

func (s *conversationService) Start(ctx context.Context, listingID, buyerID uint64) (*model.Conversation, error) {
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, notFound(err)
	}
	if l.SellerID == buyerID {
		return nil, ErrOwnListing
	}
	if existing, err := s.ExistingFor(ctx, listingID, buyerID); err != nil || existing != nil {
		return existing, err
	}
	if l.Status != model.ListingStatusActive {
		return nil, ErrListingInactive
	}
	return s.FindOrCreate(ctx, listingID, buyerID, l.SellerID)
}

func (s *conversationService) FindOrCreate(ctx context.Context, listingID, buyerID, sellerID uint64) (*model.Conversation, error) {
	cv, created, err := s.convs.FindOrCreate(ctx, listingID, buyerID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	if created {
		s.log.Info("conversation created", append(reqctx.Fields(ctx),
			zap.Uint64("conversation_id", cv.ID),
			zap.Uint64("listing_id", listingID),
		)...)
	}
	return cv, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID uint64) (*Inbox, error) {
	list, err := s.convs.ListSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}
	inbox := &Inbox{Conversations: list}
	if inbox.Conversations == nil {
		inbox.Conversations = []model.ConversationSummary{}
	}
	for _, c := range list {
		inbox.UnreadTotal += c.UnreadCount
	}
	return inbox, nil
}

func (s *conversationService) Get(ctx context.Context, convID uint64) (*model.ConversationDetail, error) {
	d, err := s.convs.FindDetail(ctx, convID)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (s *conversationService) Authorize(ctx context.Context, actorID, convID uint64) (*Participant, error) {
	cv, err := s.convs.FindByID(ctx, convID)
	if err != nil {
		return nil, notFound(err)
	}
	p := &Participant{Conversation: *cv, UserID: actorID}
	switch actorID {
	case 0:
		return nil, ErrNotFound
	case cv.BuyerID:
		p.Role = RoleBuyer
	case cv.SellerID:
		p.Role = RoleSeller
	default:
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *conversationService) View(ctx context.Context, p *Participant) (*ConversationView, error) {
	convID := p.Conversation.ID
	if err := s.ledger.MarkRead(ctx, p.UserID, convID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	detail, err := s.Get(ctx, convID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.ledger.List(ctx, convID)
	if err != nil {
		return nil, err
	}
	view := &ConversationView{Conversation: detail, Role: p.Role, Messages: msgs}
	if view.Messages == nil {
		view.Messages = []model.Message{}
	}
	if n := len(msgs); n > 0 {
		view.LastMessageID = msgs[n-1].ID
	}
	if view.PendingOffer, err = s.negotiation.GetPending(ctx, convID); err != nil {
		return nil, err
	}
	if view.LatestOffer, err = s.negotiation.Latest(ctx, convID); err != nil {
		return nil, err
	}
	if p.Role == RoleBuyer {
		if view.PaymentInfo, err = s.negotiation.PaymentInstructions(ctx, convID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (s *conversationService) ExistingFor(ctx context.Context, listingID, buyerID uint64) (*model.Conversation, error) {
	cv, err := s.convs.FindByListingAndBuyer(ctx, listingID, buyerID)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return cv, nil
}
