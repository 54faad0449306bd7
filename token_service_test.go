package api_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/MrKevinOConnell/api"
)

func TestTokenService_IssueAccessToken(t *testing.T) {
	service := api.NewTokenService([]byte("test-signing-key"), 60, 10080, "test-issuer", nil)

	token, expiresAt, err := service.IssueAccessToken("user-123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(60*time.Minute), expiresAt, 5*time.Second)

	t.Run("round trips the claims", func(t *testing.T) {
		claims, err := service.Validate(token)
		require.NoError(t, err)

		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "user-123", claims.Subject())
		assert.Equal(t, api.TokenKindAccess, claims.Kind())
		assert.Empty(t, claims.SessionID())
		assert.WithinDuration(t, expiresAt, claims.Expires(), time.Second)
	})
}

func TestTokenService_IssueRefreshToken(t *testing.T) {
	service := api.NewTokenService([]byte("test-signing-key"), 60, 10080, "test-issuer", nil)

	token, _, err := service.IssueRefreshToken("user-123", "session-abc")
	require.NoError(t, err)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, api.TokenKindRefresh, claims.Kind())
	assert.Equal(t, "session-abc", claims.SessionID())
	assert.Equal(t, "user-123", claims.UserID())
}

func TestTokenService_Validate(t *testing.T) {
	service := api.NewTokenService([]byte("test-signing-key"), 60, 10080, "test-issuer", nil)

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		other := api.NewTokenService([]byte("different-key"), 60, 10080, "test-issuer", nil)
		token, _, err := other.IssueAccessToken("user-123")
		require.NoError(t, err)

		_, err = service.Validate(token)
		require.Error(t, err)
		assert.True(t, api.IsMalformedError(err))
	})

	t.Run("rejects a token from another issuer", func(t *testing.T) {
		other := api.NewTokenService([]byte("test-signing-key"), 60, 10080, "other-issuer", nil)
		token, _, err := other.IssueAccessToken("user-123")
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.Error(t, err)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		claims := &api.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			UID:      "user-123",
			TokenUse: api.TokenKindAccess,
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
		require.NoError(t, err)

		_, err = service.Validate(token)
		require.Error(t, err)
		assert.True(t, api.IsTokenExpiredError(err))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, api.IsMalformedError(err))
	})
}
