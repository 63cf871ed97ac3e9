package pageauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	userID := uuid.New().String()
	now := time.Now()

	claims := &pageauth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserRole: "admin",
	}

	assert.Equal(t, userID, claims.Subject())
	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, "admin", claims.Role())

	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("owner"))

	assert.True(t, claims.IsAtLeast("member"))
	assert.False(t, claims.IsAtLeast("owner"))

	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
}

func TestJWTClaimsUIDOverridesSubject(t *testing.T) {
	claims := &pageauth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
		UID:              "uid-id",
	}

	assert.Equal(t, "uid-id", claims.UserID())
	assert.Equal(t, "subject-id", claims.Subject())
}

func TestJWTClaimsZeroTimes(t *testing.T) {
	claims := &pageauth.JWTClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
