package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := &TokenConfig{Secret: []byte("k"), Expiration: time.Hour}
	token, err := GenerateToken("admin", cfg)
	require.NoError(t, err)

	parsed, err := ParseToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "admin", parsed.Subject)
	assert.Greater(t, parsed.ExpiresAt, parsed.IssuedAt)

	_, err = ParseToken(token, &TokenConfig{Secret: []byte("other")})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateToken("a|b", cfg)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	cfg := &TokenConfig{Secret: []byte("k"), Expiration: -2 * time.Second}
	token, err := GenerateToken("admin", cfg)
	require.NoError(t, err)

	_, err = ParseToken(token, cfg)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAdminAuth(t *testing.T) {
	a, err := NewAdminAuth("testpass", "", time.Hour)
	require.NoError(t, err)
	require.True(t, a.Enabled())

	assert.NoError(t, a.CheckPassword("testpass"))
	assert.ErrorIs(t, a.CheckPassword("nope"), ErrInvalidPassword)

	token, expires, err := a.Login("testpass")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))
	assert.NoError(t, a.VerifyToken(token))

	_, _, err = a.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	other, err := GenerateToken("visitor", a.tokens)
	require.NoError(t, err)
	assert.ErrorIs(t, a.VerifyToken(other), ErrInvalidToken)
}

func TestAdminAuthDisabledWithoutPassword(t *testing.T) {
	a, err := NewAdminAuth("", "secret", 0)
	require.NoError(t, err)

	assert.False(t, a.Enabled())
	assert.ErrorIs(t, a.CheckPassword(""), ErrAdminDisabled)
	_, _, err = a.Login("")
	assert.ErrorIs(t, err, ErrAdminDisabled)

	token, err := GenerateToken(AdminSubject, a.tokens)
	require.NoError(t, err)
	assert.ErrorIs(t, a.VerifyToken(token), ErrAdminDisabled)
}
