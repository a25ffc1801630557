package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
)

type messageRepository struct{ s *Store }

func NewMessageRepository(s *Store) repository.MessageRepository {
	return &messageRepository{s: s}
}

func (r *messageRepository) Create(_ context.Context, msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.addMessage(msg)
	return nil
}

// addMessage stores msg and fills in its id. It must be called with mu held.
func (s *Store) addMessage(msg *model.Message) {
	if msg == nil {
		return
	}
	msg.ID = s.id()
	msg.CreatedAt = s.stamp(msg.CreatedAt)
	cp := *msg
	s.messages[msg.ID] = &cp
}

func (r *messageRepository) FindByID(_ context.Context, id uint64) (*model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *messageRepository) List(_ context.Context, convID uint64) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.conversationMessages(convID, nil), nil
}

func (r *messageRepository) ListAfter(_ context.Context, convID uint64, ref *model.Message) ([]model.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.conversationMessages(convID, ref), nil
}

// conversationMessages must be called with mu held.
func (s *Store) conversationMessages(convID uint64, after *model.Message) []model.Message {
	out := []model.Message{}
	for _, m := range s.messages {
		if m.ConversationID != convID {
			continue
		}
		if after != nil && !after.Before(m) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(&out[j]) })
	return out
}

func (r *messageRepository) UpsertRead(_ context.Context, userID, convID uint64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reads[readKey{userID: userID, convID: convID}] = at
	return nil
}

func (r *messageRepository) FindRead(_ context.Context, userID, convID uint64) (*model.MessageRead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	at, ok := r.s.reads[readKey{userID: userID, convID: convID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.MessageRead{UserID: userID, ConversationID: convID, LastReadAt: at}, nil
}

func (r *messageRepository) CountUnread(_ context.Context, userID uint64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for _, cv := range r.s.conversations {
		if cv.HasParticipant(userID) {
			total += r.s.unread(userID, cv.ID)
		}
	}
	return total, nil
}
