package auth

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	user *model.User
}

func (s stubVerifier) Resolve(_ context.Context, token string) (*model.User, error) {
	if token != "good" {
		return nil, ErrNoSession
	}
	return s.user, nil
}

func newTestGateway(t *testing.T, now *time.Time, opts ...Option) (*Gateway, *model.User) {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	u := &model.User{Email: "buyer@example.com", Name: "Buyer", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	opts = append(opts, WithClock(func() time.Time { return *now }))
	return NewGateway(memory.NewSessionRepository(store), users, 7*24*time.Hour, opts...), u
}

func TestGateway_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g, u := newTestGateway(t, &now)

	sess, err := g.CreateSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), sess.ExpiresAt)

	got, err := g.ResolveSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	now = now.Add(7*24*time.Hour - time.Second)
	_, err = g.ResolveSession(ctx, sess.Token)
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = g.ResolveSession(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	n, err := g.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGateway_DeleteSession(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	g, u := newTestGateway(t, &now)

	sess, err := g.CreateSession(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, g.DeleteSession(ctx, sess.Token))

	_, err = g.ResolveSession(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = g.ResolveSession(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = g.ResolveSession(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestGateway_ResolveBearer(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	g, _ := newTestGateway(t, &now)
	_, err := g.ResolveBearer(ctx, "good")
	assert.ErrorIs(t, err, ErrNoSession, "no verifier configured")

	want := &model.User{ID: 99, Name: "Fed"}
	g, _ = newTestGateway(t, &now, WithTokenVerifier(stubVerifier{user: want}))
	got, err := g.ResolveBearer(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = g.ResolveBearer(ctx, "bad")
	assert.ErrorIs(t, err, ErrNoSession)
}
