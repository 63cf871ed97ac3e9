package pageauth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
)

func TestSessionObject(t *testing.T) {
	userID := uuid.New().String()
	now := time.Now()

	session := &pageauth.SessionObject{
		UserID:         userID,
		Audience:       []string{"app:user"},
		Issuer:         "test-issuer",
		IssuedAt:       &now,
		ExpirationDate: &now,
		Data: map[string]any{
			"role": "admin",
		},
	}

	assert.Equal(t, userID, session.GetUserID())

	uid, err := session.GetUserUUID()
	assert.NoError(t, err)
	assert.Equal(t, userID, uid.String())

	assert.Equal(t, []string{"app:user"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &now, session.GetIssuedAt())
	assert.Equal(t, "admin", session.GetData()["role"])
}

func TestSessionObjectGetRole(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		expected pageauth.UserRole
	}{
		{
			name:     "Role present",
			data:     map[string]any{"role": "member"},
			expected: pageauth.RoleMember,
		},
		{
			name:     "Unknown role falls back to guest",
			data:     map[string]any{"role": "superuser"},
			expected: pageauth.RoleGuest,
		},
		{
			name:     "Role is not a string",
			data:     map[string]any{"role": 42},
			expected: pageauth.RoleGuest,
		},
		{
			name:     "No data at all",
			data:     nil,
			expected: pageauth.RoleGuest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &pageauth.SessionObject{Data: tt.data}
			assert.Equal(t, tt.expected, session.GetRole())
		})
	}
}

func TestSessionObjectRoleChecks(t *testing.T) {
	session := &pageauth.SessionObject{
		Data: map[string]any{"role": "admin"},
	}

	assert.True(t, session.HasRole("admin"))
	assert.False(t, session.HasRole("owner"))

	assert.True(t, session.IsAtLeast(pageauth.RoleMember))
	assert.True(t, session.IsAtLeast(pageauth.RoleAdmin))
	assert.False(t, session.IsAtLeast(pageauth.RoleOwner))
}

func TestSessionObjectGetUserUUIDInvalid(t *testing.T) {
	session := &pageauth.SessionObject{UserID: "not-a-uuid"}
	_, err := session.GetUserUUID()
	assert.Error(t, err)
}
