package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(accessTTL time.Duration) (TokenService, error) {
	return NewTokenService(
		accessTTL,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		testSecret,
		NewMemoryRevocationStore(),
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		privateKey  string
		publicKey   string
		secretKey   string
		expectError bool
	}{
		{
			name:      "valid symmetric key configuration",
			secretKey: testSecret,
		},
		{
			name:        "missing secret key",
			expectError: true,
		},
		{
			name:        "rsa without keys",
			useRSAKeys:  true,
			expectError: true,
		},
		{
			name:        "rsa with garbage keys",
			useRSAKeys:  true,
			privateKey:  "not a pem",
			publicKey:   "not a pem",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(
				15*time.Minute,
				7*24*time.Hour,
				"issuer",
				"audience",
				tt.useRSAKeys,
				tt.privateKey,
				tt.publicKey,
				tt.secretKey,
				nil,
			)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestGenerateStaffTokens(t *testing.T) {
	service, err := createTestTokenService(15 * time.Minute)
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateStaffTokens(42)
	require.NoError(t, err)

	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)
	assert.True(t, strings.HasPrefix(accessToken, "eyJ"))
	assert.Len(t, strings.Split(accessToken, "."), 3)
}

func TestValidateStaffToken(t *testing.T) {
	ctx := context.Background()
	service, err := createTestTokenService(15 * time.Minute)
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateStaffTokens(7)
	require.NoError(t, err)

	other, err := NewTokenService(15*time.Minute, time.Hour, "x", "y", false, "", "", "another-secret", nil)
	require.NoError(t, err)
	foreignToken, _, err := other.GenerateStaffTokens(7)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		tokenType string
		expectErr error
	}{
		{name: "valid access token", token: accessToken, tokenType: "access"},
		{name: "valid refresh token", token: refreshToken, tokenType: "refresh"},
		{name: "empty token", token: "", expectErr: ErrTokenInvalid},
		{name: "malformed token", token: "a.b.c", expectErr: ErrTokenInvalid},
		{name: "signed with another key", token: foreignToken, expectErr: ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateStaffToken(ctx, tt.token)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(7), claims.StaffID)
			assert.Equal(t, tt.tokenType, claims.TokenType)
			assert.NotEmpty(t, claims.TokenID)
			assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
		})
	}
}

func TestTokenExpiration(t *testing.T) {
	service, err := createTestTokenService(-time.Minute)
	require.NoError(t, err)

	accessToken, _, err := service.GenerateStaffTokens(1)
	require.NoError(t, err)

	claims, err := service.ValidateStaffToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, claims)
}

func TestRevokeToken(t *testing.T) {
	ctx := context.Background()
	service, err := createTestTokenService(15 * time.Minute)
	require.NoError(t, err)

	accessToken, _, err := service.GenerateStaffTokens(3)
	require.NoError(t, err)

	_, err = service.ValidateStaffToken(ctx, accessToken)
	require.NoError(t, err)

	require.NoError(t, service.RevokeToken(ctx, accessToken))

	claims, err := service.ValidateStaffToken(ctx, accessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Nil(t, claims)

	assert.Error(t, service.RevokeToken(ctx, "garbage"))
}

func TestRefreshStaffToken(t *testing.T) {
	ctx := context.Background()
	service, err := createTestTokenService(15 * time.Minute)
	require.NoError(t, err)

	accessToken, refreshToken, err := service.GenerateStaffTokens(9)
	require.NoError(t, err)

	t.Run("access token is rejected", func(t *testing.T) {
		_, _, err := service.RefreshStaffToken(ctx, accessToken)
		assert.Error(t, err)
	})

	t.Run("refresh token rotates once", func(t *testing.T) {
		newAccess, newRefresh, err := service.RefreshStaffToken(ctx, refreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, newAccess, accessToken)
		assert.NotEqual(t, newRefresh, refreshToken)

		claims, err := service.ValidateStaffToken(ctx, newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(9), claims.StaffID)

		_, _, err = service.RefreshStaffToken(ctx, refreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestMemoryRevocationStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRevocationStore()

	require.NoError(t, store.Revoke(ctx, "short", -time.Second))
	require.NoError(t, store.Revoke(ctx, "long", time.Hour))

	revoked, err := store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = store.IsRevoked(ctx, "long")
	require.NoError(t, err)
	assert.True(t, revoked)
}
