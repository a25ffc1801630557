package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_SaltsEveryHash(t *testing.T) {
	h1, err := HashPassword("correct horse")
	require.NoError(t, err)
	h2, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "$argon2id$v=19$m=19456,t=2,p=1$"))
	assert.True(t, VerifyPassword("correct horse", h1))
	assert.True(t, VerifyPassword("correct horse", h2))
}

func TestVerifyPassword(t *testing.T) {
	stored, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	tests := []struct {
		name      string
		plaintext string
		stored    string
		want      bool
	}{
		{"match", "s3cret-pass", stored, true},
		{"wrong password", "s3cret-pasS", stored, false},
		{"empty password", "", stored, false},
		{"not argon", "s3cret-pass", "$2a$10$abcdefghijklmnopqrstuv", false},
		{"truncated", "s3cret-pass", stored[:len(stored)-20] + "$", false},
		{"garbage", "s3cret-pass", "plain", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.plaintext, tt.stored))
		})
	}
}
