package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository"
)

var ErrNoSession = errors.New("auth: no active session")

// TokenVerifier resolves a third-party bearer token to a local user.
type TokenVerifier interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// Gateway answers "who is making this request" for the rest of the service.
type Gateway struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
	bearer   TokenVerifier
}

type Option func(*Gateway)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithTokenVerifier enables Authorization: Bearer resolution.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(g *Gateway) { g.bearer = v }
}

func NewGateway(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration, opts ...Option) *Gateway {
	g := &Gateway{sessions: sessions, users: users, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gateway) Hash(plaintext string) (string, error) {
	return HashPassword(plaintext)
}

func (g *Gateway) Verify(plaintext, storedHash string) bool {
	return VerifyPassword(plaintext, storedHash)
}

// CreateSession issues a new token for userID valid for the configured TTL.
func (g *Gateway) CreateSession(ctx context.Context, userID uint64) (*model.Session, error) {
	now := g.now().UTC()
	s := &model.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(g.ttl),
		CreatedAt: now,
	}
	if err := g.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// ResolveSession returns the user behind token, or ErrNoSession when the
// token is unknown, expired, or its user no longer exists.
func (g *Gateway) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	s, err := g.sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if s.Expired(g.now()) {
		return nil, ErrNoSession
	}
	u, err := g.users.FindByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return u, nil
}

// ResolveBearer resolves a bearer token through the configured verifier.
func (g *Gateway) ResolveBearer(ctx context.Context, token string) (*model.User, error) {
	if g.bearer == nil || token == "" {
		return nil, ErrNoSession
	}
	return g.bearer.Resolve(ctx, token)
}

func (g *Gateway) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return g.sessions.Delete(ctx, token)
}

// PurgeExpired drops sessions past their expiry.
func (g *Gateway) PurgeExpired(ctx context.Context) (int64, error) {
	return g.sessions.DeleteExpired(ctx, g.now().UTC())
}

func (g *Gateway) TTL() time.Duration {
	return g.ttl
}
