package memory

import (
	"context"
	"sort"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
)

type conversationRepository struct{ s *Store }

func NewConversationRepository(s *Store) repository.ConversationRepository {
	return &conversationRepository{s: s}
}

func (r *conversationRepository) FindOrCreate(_ context.Context, listingID, buyerID, sellerID uint64) (*model.Conversation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := convKey{listingID: listingID, buyerID: buyerID}
	if id, ok := r.s.convIndex[key]; ok {
		cp := *r.s.conversations[id]
		return &cp, false, nil
	}
	cv := &model.Conversation{
		ID:        r.s.id(),
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		CreatedAt: r.s.now().UTC(),
	}
	r.s.conversations[cv.ID] = cv
	r.s.convIndex[key] = cv.ID
	cp := *cv
	return &cp, true, nil
}

func (r *conversationRepository) FindByID(_ context.Context, id uint64) (*model.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cv, ok := r.s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *cv
	return &cp, nil
}

func (r *conversationRepository) FindByListingAndBuyer(_ context.Context, listingID, buyerID uint64) (*model.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.convIndex[convKey{listingID: listingID, buyerID: buyerID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.s.conversations[id]
	return &cp, nil
}

func (r *conversationRepository) FindDetail(_ context.Context, id uint64) (*model.ConversationDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cv, ok := r.s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	l, lok := r.s.listings[cv.ListingID]
	b, bok := r.s.users[cv.BuyerID]
	sl, sok := r.s.users[cv.SellerID]
	if !lok || !bok || !sok {
		return nil, repository.ErrNotFound
	}
	return &model.ConversationDetail{
		Conversation:    *cv,
		ListingTitle:    l.Title,
		ListingImageURL: l.ImageURL,
		ListingPrice:    l.Price.StringFixed(2),
		ListingStatus:   string(l.Status),
		BuyerName:       b.Name,
		SellerName:      sl.Name,
	}, nil
}

func (r *conversationRepository) ListSummaries(_ context.Context, userID uint64) ([]model.ConversationSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.ConversationSummary
	for _, cv := range r.s.conversations {
		if !cv.HasParticipant(userID) {
			continue
		}
		l, lok := r.s.listings[cv.ListingID]
		b, bok := r.s.users[cv.BuyerID]
		sl, sok := r.s.users[cv.SellerID]
		if !lok || !bok || !sok {
			continue
		}
		sum := model.ConversationSummary{
			ID:              cv.ID,
			ListingID:       cv.ListingID,
			BuyerID:         cv.BuyerID,
			SellerID:        cv.SellerID,
			ListingTitle:    l.Title,
			ListingImageURL: l.ImageURL,
			CounterpartName: b.Name,
			LastActivityAt:  cv.CreatedAt,
			UnreadCount:     r.s.unread(userID, cv.ID),
			CreatedAt:       cv.CreatedAt,
		}
		if cv.BuyerID == userID {
			sum.CounterpartName = sl.Name
		}
		if last := r.s.lastMessage(cv.ID); last != nil {
			content := last.Content
			sum.LastMessage = &content
			sum.LastActivityAt = last.CreatedAt
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// lastMessage must be called with mu held.
func (s *Store) lastMessage(convID uint64) *model.Message {
	var last *model.Message
	for _, m := range s.messages {
		if m.ConversationID != convID {
			continue
		}
		if last == nil || last.Before(m) {
			last = m
		}
	}
	return last
}
