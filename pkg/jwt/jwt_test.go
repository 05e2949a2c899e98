package jwt

import (
	"testing"
	"time"

	"dental-clinic-api/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret", Expiry: 30 * 24 * time.Hour})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()

	token, tokenID, err := svc.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, tokenID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.TokenID)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _, err := newTestService().GenerateToken(1)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "other", Expiry: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }
	token, _, err := svc.GenerateToken(1)
	require.NoError(t, err)

	_, err = newTestService().ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := newTestService().ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestClaimsUserID_Invalid(t *testing.T) {
	c := &Claims{}
	c.Subject = "abc"
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
