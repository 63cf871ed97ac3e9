package pageauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
)

func newTestTokenService(key string) pageauth.TokenService {
	return pageauth.NewTokenService([]byte(key), 1, "test-issuer", jwt.ClaimStrings{"test-app"}, nil)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	ts := newTestTokenService("test-signing-key")

	identity := testIdentity{
		id:       uuid.New().String(),
		username: "testuser",
		email:    "test@example.com",
		role:     "admin",
	}

	token, err := ts.Generate(identity)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, "admin", claims.Role())
	assert.Equal(t, identity.id, claims.Subject())
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestTokenServiceValidateErrors(t *testing.T) {
	ts := newTestTokenService("test-signing-key")

	t.Run("Garbage token", func(t *testing.T) {
		_, err := ts.Validate("not.a.token")
		assert.Error(t, err)
	})

	t.Run("Wrong signing key", func(t *testing.T) {
		other := newTestTokenService("other-key")
		token, err := other.Generate(testIdentity{id: uuid.New().String(), role: "member"})
		assert.NoError(t, err)

		_, err = ts.Validate(token)
		assert.Error(t, err)
	})

	t.Run("Expired token", func(t *testing.T) {
		now := time.Now()
		claims := &pageauth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   uuid.New().String(),
				Audience:  jwt.ClaimStrings{"test-app"},
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
			},
			UserRole: "member",
		}

		token, err := ts.SignClaims(claims)
		assert.NoError(t, err)

		_, err = ts.Validate(token)
		assert.ErrorIs(t, err, pageauth.ErrTokenExpired)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		other := pageauth.NewTokenService([]byte("test-signing-key"), 1, "someone-else", jwt.ClaimStrings{"test-app"}, nil)
		token, err := other.Generate(testIdentity{id: uuid.New().String(), role: "member"})
		assert.NoError(t, err)

		_, err = ts.Validate(token)
		assert.Error(t, err)
	})
}

func TestSignClaimsNil(t *testing.T) {
	ts := newTestTokenService("test-signing-key")
	_, err := ts.SignClaims(nil)
	assert.Error(t, err)
}
