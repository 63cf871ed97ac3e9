package pageauth_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pageauth/pageauth"
	"github.com/stretchr/testify/assert"
)

func TestIsTwoFactorRequiredError(t *testing.T) {
	assert.True(t, pageauth.IsTwoFactorRequiredError(pageauth.ErrTwoFactorRequired))
	assert.False(t, pageauth.IsTwoFactorRequiredError(pageauth.ErrTokenExpired))
	assert.False(t, pageauth.IsTwoFactorRequiredError(errors.New("plain error")))
	assert.False(t, pageauth.IsTwoFactorRequiredError(nil))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, pageauth.IsTokenExpiredError(errors.New("token is expired")))
	assert.True(t, pageauth.IsTokenExpiredError(pageauth.ErrTokenExpired))
	assert.False(t, pageauth.IsTokenExpiredError(errors.New("something else")))
	assert.False(t, pageauth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, pageauth.IsMalformedError(errors.New("token is malformed")))
	assert.True(t, pageauth.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, pageauth.IsMalformedError(errors.New("something else")))
	assert.False(t, pageauth.IsMalformedError(nil))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("Ozzo field errors", func(t *testing.T) {
		verrs := validation.Errors{
			"email":    errors.New("must be a valid email address"),
			"password": errors.New("cannot be blank"),
		}

		out := pageauth.FormatValidationErrorToMap(verrs)

		assert.Len(t, out, 2)
		assert.Equal(t, "must be a valid email address", out["email"])
		assert.Equal(t, "cannot be blank", out["password"])
	})

	t.Run("Plain error", func(t *testing.T) {
		out := pageauth.FormatValidationErrorToMap(errors.New("boom"))
		assert.Equal(t, "boom", out["error"])
	})

	t.Run("Nil error", func(t *testing.T) {
		assert.Empty(t, pageauth.FormatValidationErrorToMap(nil))
	})
}
