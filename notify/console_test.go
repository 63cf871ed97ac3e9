package notify_test

import (
	"context"
	"testing"

	"github.com/pageauth/pageauth/notify"
	"github.com/stretchr/testify/assert"
)

func TestConsoleMailer(t *testing.T) {
	mailer := notify.NewConsoleMailer("http://localhost:8080")
	ctx := context.Background()

	assert.NoError(t, mailer.SendVerificationEmail(ctx, "user@example.com", "token-123"))
	assert.NoError(t, mailer.SendPasswordResetEmail(ctx, "user@example.com", "token-456"))
	assert.NoError(t, mailer.SendTwoFactorCode(ctx, "user@example.com", "123456"))
}

func TestSMTPMailerRequiresConfig(t *testing.T) {
	mailer := notify.NewSMTPMailer(notify.Config{}, nil)
	ctx := context.Background()

	err := mailer.SendVerificationEmail(ctx, "user@example.com", "token-123")
	assert.Error(t, err)
}
