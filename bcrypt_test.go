package pageauth_test

import (
	"testing"

	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := pageauth.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "securePassword123!"
	hash, err := pageauth.HashPassword(password)
	assert.NoError(t, err)

	t.Run("Matching password", func(t *testing.T) {
		assert.NoError(t, pageauth.ComparePasswordAndHash(password, hash))
	})

	t.Run("Wrong password", func(t *testing.T) {
		assert.Error(t, pageauth.ComparePasswordAndHash("not-the-password", hash))
	})

	t.Run("Empty password", func(t *testing.T) {
		assert.Error(t, pageauth.ComparePasswordAndHash("", hash))
	})

	t.Run("Garbage hash", func(t *testing.T) {
		assert.Error(t, pageauth.ComparePasswordAndHash(password, "not-a-hash"))
	})
}
