package memory

import (
	"context"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
)

type sessionRepository struct{ s *Store }

func NewSessionRepository(s *Store) repository.SessionRepository {
	return &sessionRepository{s: s}
}

func (r *sessionRepository) Create(_ context.Context, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.Token]; ok {
		return repository.ErrDuplicate
	}
	sess.CreatedAt = r.s.stamp(sess.CreatedAt)
	cp := *sess
	r.s.sessions[sess.Token] = &cp
	return nil
}

func (r *sessionRepository) Find(_ context.Context, token string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *sessionRepository) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, token)
	return nil
}

func (r *sessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for tok, sess := range r.s.sessions {
		if sess.Expired(now) {
			delete(r.s.sessions, tok)
			n++
		}
	}
	return n, nil
}
