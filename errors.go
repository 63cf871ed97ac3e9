package pageauth

import (
	stderrors "errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = stderrors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = stderrors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = stderrors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = stderrors.New("unable to map claims")

// ErrUnableToParseData parse error
var ErrUnableToParseData = stderrors.New("unable to parse data")

// Text codes surfaced to API clients alongside the HTTP status
const (
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeTooManyAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeTwoFactorRequired = "TWO_FACTOR_REQUIRED"
	TextCodeEmailNotVerified  = "EMAIL_NOT_VERIFIED"
)

// ErrTokenExpired marks session tokens past their expiration date
var ErrTokenExpired = errors.New("authentication token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed marks tokens we could not parse
var ErrTokenMalformed = errors.New("authentication token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned on credential mismatch. We return
// the same error for unknown identifiers so login is not an account oracle.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned while the cooldown window is active
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrTwoFactorRequired signals that the password step succeeded but the
// account requires a one-time code before a session token is minted.
var ErrTwoFactorRequired = errors.New("two factor verification required", errors.CategoryAuth).
	WithTextCode(TextCodeTwoFactorRequired).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified gates features that need a deliverable address
var ErrEmailNotVerified = errors.New("email address has not been verified", errors.CategoryValidation).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeBadRequest)

// statusAuthError maps a lifecycle status to the auth error login should
// surface, nil when the status does not block authentication.
func statusAuthError(status UserStatus) error {
	switch status {
	case "", UserStatusActive, UserStatusPending:
		return nil
	case UserStatusSuspended:
		return errors.New("account is suspended", errors.CategoryAuth).
			WithTextCode("ACCOUNT_SUSPENDED").
			WithCode(errors.CodeUnauthorized)
	case UserStatusDisabled, UserStatusArchived:
		return errors.New("account is disabled", errors.CategoryAuth).
			WithTextCode("ACCOUNT_DISABLED").
			WithCode(errors.CodeUnauthorized)
	default:
		return errors.New("account is in an unknown state", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithMetadata(map[string]any{"status": status})
	}
}

// IsTwoFactorRequiredError reports whether login stopped at the challenge step
func IsTwoFactorRequiredError(err error) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTwoFactorRequired
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token has expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field -> message map suitable for form re-rendering and JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
