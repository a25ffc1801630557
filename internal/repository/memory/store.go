// Package memory keeps every repository in process memory behind one lock.
// It backs STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"sync"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/model"
)

type readKey struct {
	userID uint64
	convID uint64
}

type convKey struct {
	listingID uint64
	buyerID   uint64
}

// Store holds the shared tables. Use the New*Repository constructors to get
// per-entity views of it.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID uint64

	users         map[uint64]*model.User
	sessions      map[string]*model.Session
	listings      map[uint64]*model.Listing
	conversations map[uint64]*model.Conversation
	convIndex     map[convKey]uint64
	messages      map[uint64]*model.Message
	reads         map[readKey]time.Time
	offers        map[uint64]*model.Offer
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         map[uint64]*model.User{},
		sessions:      map[string]*model.Session{},
		listings:      map[uint64]*model.Listing{},
		conversations: map[uint64]*model.Conversation{},
		convIndex:     map[convKey]uint64{},
		messages:      map[uint64]*model.Message{},
		reads:         map[readKey]time.Time{},
		offers:        map[uint64]*model.Offer{},
	}
}

// SetClock replaces the clock used for timestamps the store assigns itself.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// id must be called with mu held for writing.
func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

// unread must be called with mu held.
func (s *Store) unread(userID, convID uint64) int64 {
	marker := s.reads[readKey{userID: userID, convID: convID}]
	var n int64
	for _, m := range s.messages {
		if m.ConversationID == convID && m.SenderID != userID && m.CreatedAt.After(marker) {
			n++
		}
	}
	return n
}
