package memory

import (
	"context"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
)

type offerRepository struct{ s *Store }

func NewOfferRepository(s *Store) repository.OfferRepository {
	return &offerRepository{s: s}
}

func (r *offerRepository) ReplacePending(_ context.Context, offer *model.Offer, note *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now().UTC()
	for _, o := range r.s.offers {
		if o.ListingID == offer.ListingID && o.BuyerID == offer.BuyerID && o.Status == model.OfferStatusPending {
			o.Status = model.OfferStatusCancelled
			o.UpdatedAt = now
		}
	}
	offer.ID = r.s.id()
	offer.Status = model.OfferStatusPending
	offer.CreatedAt = r.s.stamp(offer.CreatedAt)
	offer.UpdatedAt = offer.CreatedAt
	cp := *offer
	r.s.offers[offer.ID] = &cp
	r.s.addMessage(note)
	return nil
}

func (r *offerRepository) Respond(_ context.Context, offerID, sellerID uint64, status model.OfferStatus, note *model.Message) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[offerID]
	if !ok || o.Status != model.OfferStatusPending {
		return false, nil
	}
	l, ok := r.s.listings[o.ListingID]
	if !ok || l.SellerID != sellerID {
		return false, nil
	}
	o.Status = status
	o.UpdatedAt = r.s.now().UTC()
	r.s.addMessage(note)
	return true, nil
}

func (r *offerRepository) CancelByBuyer(_ context.Context, offerID, buyerID uint64, note *model.Message) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.offers[offerID]
	if !ok || o.Status != model.OfferStatusPending || o.BuyerID != buyerID {
		return false, nil
	}
	o.Status = model.OfferStatusCancelled
	o.UpdatedAt = r.s.now().UTC()
	r.s.addMessage(note)
	return true, nil
}

func (r *offerRepository) FindByID(_ context.Context, id uint64) (*model.Offer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.offers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *offerRepository) FindPending(_ context.Context, convID uint64) (*model.Offer, error) {
	return r.latest(convID, true)
}

func (r *offerRepository) FindLatest(_ context.Context, convID uint64) (*model.Offer, error) {
	return r.latest(convID, false)
}

func (r *offerRepository) latest(convID uint64, pendingOnly bool) (*model.Offer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *model.Offer
	for _, o := range r.s.offers {
		if o.ConversationID != convID || (pendingOnly && o.Status != model.OfferStatusPending) {
			continue
		}
		if best == nil || o.CreatedAt.After(best.CreatedAt) || (o.CreatedAt.Equal(best.CreatedAt) && o.ID > best.ID) {
			best = o
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *offerRepository) AcceptedPaymentInfo(_ context.Context, convID uint64) (string, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, o := range r.s.offers {
		if o.ConversationID != convID || o.Status != model.OfferStatusAccepted {
			continue
		}
		l, ok := r.s.listings[o.ListingID]
		if !ok {
			continue
		}
		if u, ok := r.s.users[l.SellerID]; ok {
			return u.PaymentInfo, true, nil
		}
	}
	return "", false, nil
}
