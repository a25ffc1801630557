package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/reqctx"
	"github.com/shinyyama/marketplace-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	msgOfferAccepted  = "Offer accepted! Payment details are now visible to the buyer."
	msgOfferDeclined  = "Offer declined."
	msgOfferWithdrawn = "Offer withdrawn."
)

// NegotiationService runs the offer state machine:
// pending -> accepted | rejected | cancelled, all terminal.
type NegotiationService interface {
	// Propose replaces the buyer's pending offer on the conversation's listing.
	// An unparseable or non-positive amount is dropped: proposed is false.
	Propose(ctx context.Context, p *Participant, rawAmount string) (offer *model.Offer, proposed bool, err error)
	// Respond reports whether the offer moved out of pending. It is false both
	// for a terminal offer and for an actor who does not sell the listing.
	Respond(ctx context.Context, offerID, sellerID uint64, accept bool) (bool, error)
	Cancel(ctx context.Context, offerID, buyerID uint64) (bool, error)
	// GetPending returns nil when the conversation has no pending offer.
	GetPending(ctx context.Context, convID uint64) (*model.Offer, error)
	Get(ctx context.Context, offerID uint64) (*model.Offer, error)
	// Latest returns nil when the conversation has no offers.
	Latest(ctx context.Context, convID uint64) (*model.Offer, error)
	// PaymentInstructions returns the seller's payment info once an offer in
	// the conversation has been accepted, and "" before that.
	PaymentInstructions(ctx context.Context, convID uint64) (string, error)
}

type negotiationService struct {
	offers repository.OfferRepository
	log    *zap.Logger
	clock  Clock
}

func NewNegotiationService(offers repository.OfferRepository, log *zap.Logger, clock Clock) NegotiationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &negotiationService{offers: offers, log: log, clock: clock}
}

func (s *negotiationService) Propose(ctx context.Context, p *Participant, rawAmount string) (*model.Offer, bool, error) {
	if p.Role != RoleBuyer {
		return nil, false, ErrNotFound
	}
	amount, ok := ParseAmount(rawAmount)
	if !ok {
		return nil, false, nil
	}
	now := s.clock.now()
	offer := &model.Offer{
		ListingID:      p.Conversation.ListingID,
		ConversationID: p.Conversation.ID,
		BuyerID:        p.UserID,
		Amount:         amount,
		CreatedAt:      now,
	}
	note := &model.Message{
		ConversationID: p.Conversation.ID,
		SenderID:       p.UserID,
		Content:        "Offer: " + FormatAmount(amount),
		CreatedAt:      now,
	}
	// The offer and its announcement commit together or not at all.
	if err := s.offers.ReplacePending(ctx, offer, note); err != nil {
		return nil, false, fmt.Errorf("propose offer: %w", err)
	}
	s.log.Info("offer proposed", append(reqctx.Fields(ctx),
		zap.Uint64("offer_id", offer.ID),
		zap.Uint64("conversation_id", offer.ConversationID),
		zap.String("amount", amount.StringFixed(2)),
	)...)
	return offer, true, nil
}

func (s *negotiationService) Respond(ctx context.Context, offerID, sellerID uint64, accept bool) (bool, error) {
	status, text := model.OfferStatusRejected, msgOfferDeclined
	if accept {
		status, text = model.OfferStatusAccepted, msgOfferAccepted
	}
	note, err := s.note(ctx, offerID, sellerID, text)
	if note == nil || err != nil {
		return false, err
	}
	ok, err := s.offers.Respond(ctx, offerID, sellerID, status, note)
	if err != nil {
		return false, fmt.Errorf("respond to offer: %w", err)
	}
	if !ok {
		return false, nil
	}
	s.log.Info("offer responded", append(reqctx.Fields(ctx),
		zap.Uint64("offer_id", offerID),
		zap.String("status", string(status)),
	)...)
	return true, nil
}

func (s *negotiationService) Cancel(ctx context.Context, offerID, buyerID uint64) (bool, error) {
	note, err := s.note(ctx, offerID, buyerID, msgOfferWithdrawn)
	if note == nil || err != nil {
		return false, err
	}
	ok, err := s.offers.CancelByBuyer(ctx, offerID, buyerID, note)
	if err != nil {
		return false, fmt.Errorf("cancel offer: %w", err)
	}
	return ok, nil
}

// note builds the message announcing a change to the offer, in the offer's
// own conversation. It returns nil without error for an unknown offer.
func (s *negotiationService) note(ctx context.Context, offerID, senderID uint64, text string) (*model.Message, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load offer %d: %w", offerID, err)
	}
	return &model.Message{
		ConversationID: offer.ConversationID,
		SenderID:       senderID,
		Content:        text,
		CreatedAt:      s.clock.now(),
	}, nil
}

func (s *negotiationService) GetPending(ctx context.Context, convID uint64) (*model.Offer, error) {
	return s.optional(s.offers.FindPending(ctx, convID))
}

func (s *negotiationService) Latest(ctx context.Context, convID uint64) (*model.Offer, error) {
	return s.optional(s.offers.FindLatest(ctx, convID))
}

func (s *negotiationService) optional(o *model.Offer, err error) (*model.Offer, error) {
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (s *negotiationService) Get(ctx context.Context, offerID uint64) (*model.Offer, error) {
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *negotiationService) PaymentInstructions(ctx context.Context, convID uint64) (string, error) {
	info, found, err := s.offers.AcceptedPaymentInfo(ctx, convID)
	if err != nil || !found {
		return "", err
	}
	return info, nil
}
