package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/marketplace-backend/internal/auth"
	"github.com/shinyyama/marketplace-backend/internal/model"
	"github.com/shinyyama/marketplace-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T) (IdentityService, *auth.Gateway) {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	gw := auth.NewGateway(memory.NewSessionRepository(store), users, time.Hour)
	return NewIdentityService(users, memory.NewListingRepository(store), gw, nil), gw
}

func TestIdentityService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, gw := newIdentity(t)

	u, sess, err := svc.Register(ctx, RegisterInput{
		Name: "Ana", Email: " Ana@Example.com ", Password: "longenough", ConfirmPassword: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "longenough", u.PasswordHash)

	resolved, err := gw.ResolveSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, resolved.ID)

	_, _, err = svc.Register(ctx, RegisterInput{Name: "Ana 2", Email: "ANA@example.com", Password: "longenough", ConfirmPassword: "longenough"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, loginSess, err := svc.Login(ctx, "ana@EXAMPLE.com", "longenough")
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, loginSess.Token)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "longenough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.Logout(ctx, loginSess.Token))
	_, err = gw.ResolveSession(ctx, loginSess.Token)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestIdentityService_RegisterValidation(t *testing.T) {
	svc, _ := newIdentity(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "12345678", ConfirmPassword: "12345678"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "12345678", ConfirmPassword: "12345678"}},
		{"email with display name", RegisterInput{Name: "Bob", Email: "Bob <bob@example.com>", Password: "12345678", ConfirmPassword: "12345678"}},
		{"email with angle brackets", RegisterInput{Name: "Bob", Email: "<bob@example.com>", Password: "12345678", ConfirmPassword: "12345678"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short", ConfirmPassword: "short"}},
		{"mismatch", RegisterInput{Name: "A", Email: "a@b.co", Password: "12345678", ConfirmPassword: "87654321"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestIdentityService_Profile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newIdentity(t)
	u, _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "longenough", ConfirmPassword: "longenough"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, u.ID, model.ProfileUpdate{Location: " Austin ", Bio: "hi", PaymentInfo: " PayPal ana@example.com "})
	require.NoError(t, err)
	assert.Equal(t, "Austin", updated.Location)
	assert.Equal(t, "PayPal ana@example.com", updated.PaymentInfo)

	pub, err := svc.PublicProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", pub.Name)
	assert.Equal(t, "Austin", pub.Location)
	assert.Empty(t, pub.Listings)

	_, err = svc.UpdateProfile(ctx, 999, model.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.PublicProfile(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
