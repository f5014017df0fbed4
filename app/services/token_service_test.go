// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/Ejare/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		15*time.Minute,
		7*24*time.Hour,
		"test-issuer",
		"test-audience",
		false, // useRSAKeys
		"",    // privateKeyPEM
		"",    // publicKeyPEM
		testSecretKey,
	)
}

func testSubject() TokenSubject {
	return TokenSubject{
		AccountID: 123,
		UUID:      "5b0a7f3e-8c1d-4a7e-9a43-2f9d6c1e0b11",
		Email:     "ana@example.com",
		Role:      models.Role("provider"),
		Name:      "Ana",
	}
}

func generateRSAPEMs(t *testing.T) (string, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return string(privPEM), string(pubPEM)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name            string
		accessTokenTTL  time.Duration
		refreshTokenTTL time.Duration
		useRSAKeys      bool
		privateKeyPEM   string
		publicKeyPEM    string
		secretKey       string
		expectError     bool
	}{
		{
			name:            "valid symmetric key configuration",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			secretKey:       testSecretKey,
		},
		{
			name:            "missing secret key",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			expectError:     true,
		},
		{
			name:            "secret key too short",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			secretKey:       "short-secret",
			expectError:     true,
		},
		{
			name:            "non-positive access ttl",
			accessTokenTTL:  0,
			refreshTokenTTL: 7 * 24 * time.Hour,
			secretKey:       testSecretKey,
			expectError:     true,
		},
		{
			name:            "rsa without keys",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			useRSAKeys:      true,
			expectError:     true,
		},
		{
			name:            "rsa with garbage pem",
			accessTokenTTL:  15 * time.Minute,
			refreshTokenTTL: 7 * 24 * time.Hour,
			useRSAKeys:      true,
			privateKeyPEM:   "not a pem",
			publicKeyPEM:    "not a pem",
			expectError:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(
				tt.accessTokenTTL,
				tt.refreshTokenTTL,
				"test-issuer",
				"test-audience",
				tt.useRSAKeys,
				tt.privateKeyPEM,
				tt.publicKeyPEM,
				tt.secretKey,
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

func TestGenerateTokens(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	pair, err := service.GenerateTokens(testSubject())
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, pair.IssuedAt.Add(15*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, pair.IssuedAt.Add(7*24*time.Hour), pair.RefreshExpiresAt)

	access, err := service.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := service.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	t.Run("both tokens share issued-at", func(t *testing.T) {
		assert.Equal(t, access.IssuedAt, refresh.IssuedAt)
	})

	t.Run("claims carry normalized identity", func(t *testing.T) {
		for _, claims := range []*TokenClaims{access, refresh} {
			assert.Equal(t, uint(123), claims.AccountID)
			assert.Equal(t, "5b0a7f3e-8c1d-4a7e-9a43-2f9d6c1e0b11", claims.Subject)
			assert.Equal(t, "ana@example.com", claims.Email)
			assert.Equal(t, models.RoleProvider, claims.Role)
			assert.Equal(t, "Ana", claims.Name)
			assert.NotEmpty(t, claims.TokenID)
		}
		assert.NotEqual(t, access.TokenID, refresh.TokenID)
		assert.Equal(t, TokenTypeAccess, access.TokenType)
		assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	})
}

func TestValidateToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	pair, err := service.GenerateTokens(testSubject())
	require.NoError(t, err)

	otherService, err := NewTokenService(15*time.Minute, time.Hour, "test-issuer", "test-audience", false, "", "", strings.Repeat("x", 40))
	require.NoError(t, err)
	foreignPair, err := otherService.GenerateTokens(testSubject())
	require.NoError(t, err)

	otherAudience, err := NewTokenService(15*time.Minute, time.Hour, "test-issuer", "someone-else", false, "", "", testSecretKey)
	require.NoError(t, err)
	wrongAudiencePair, err := otherAudience.GenerateTokens(testSubject())
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectedErr error
	}{
		{name: "valid access token", token: pair.AccessToken},
		{name: "refresh token is rejected as access", token: pair.RefreshToken, expectedErr: ErrTokenWrongType},
		{name: "empty token", token: "", expectedErr: ErrTokenInvalid},
		{name: "invalid token format", token: "invalid.token.format", expectedErr: ErrTokenInvalid},
		{name: "token with wrong signature", token: foreignPair.AccessToken, expectedErr: ErrTokenInvalid},
		{name: "token with wrong audience", token: wrongAudiencePair.AccessToken, expectedErr: ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
				assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	pair, err := service.GenerateTokens(testSubject())
	require.NoError(t, err)

	_, err = service.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenWrongType)

	claims, err := service.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestExpiredToken(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": 123,
		"token_type": TokenTypeAccess,
		"jti":        "expired",
		"iat":        past.Add(-time.Minute).Unix(),
		"exp":        past.Unix(),
		"iss":        "test-issuer",
		"aud":        "test-audience",
	})
	signed, err := token.SignedString([]byte(testSecretKey))
	require.NoError(t, err)

	service, err := createTestTokenService()
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAlgorithmConfusionRejected(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"account_id": 123,
		"token_type": TokenTypeAccess,
		"jti":        "none",
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(time.Hour).Unix(),
		"iss":        "test-issuer",
		"aud":        "test-audience",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	service, err := createTestTokenService()
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRSATokenService(t *testing.T) {
	privPEM, pubPEM := generateRSAPEMs(t)

	service, err := NewTokenService(15*time.Minute, time.Hour, "test-issuer", "test-audience", true, privPEM, pubPEM, "")
	require.NoError(t, err)

	pair, err := service.GenerateTokens(testSubject())
	require.NoError(t, err)

	claims, err := service.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(123), claims.AccountID)

	t.Run("hmac token is rejected by rsa service", func(t *testing.T) {
		hmacService, err := createTestTokenService()
		require.NoError(t, err)
		hmacPair, err := hmacService.GenerateTokens(testSubject())
		require.NoError(t, err)

		_, err = service.ValidateToken(hmacPair.AccessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
