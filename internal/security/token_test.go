package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	wallet     = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, "nftrental", time.Hour)

	token, err := m.GenerateAccessToken(wallet)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", claims.Wallet)
	assert.Equal(t, claims.Wallet, claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.Type)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager(testSecret, "nftrental", time.Hour)

	t.Run("Invalid wallet", func(t *testing.T) {
		_, err := m.GenerateAccessToken("alice")
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", "nftrental", time.Hour)
		token, err := other.GenerateAccessToken(wallet)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		other := NewTokenManager(testSecret, "someone-else", time.Hour)
		token, err := other.GenerateAccessToken(wallet)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		past := &tokenManager{secret: []byte(testSecret), issuer: "nftrental", ttl: time.Minute,
			now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
		token, err := past.GenerateAccessToken(wallet)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong type", func(t *testing.T) {
		claims := WalletClaims{
			Wallet: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			Type:   "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "nftrental",
				Audience:  jwt.ClaimStrings{accessAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
