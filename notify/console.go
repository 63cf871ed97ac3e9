package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageauth/pageauth"
)

// ConsoleMailer prints emails to stdout instead of delivering them. Meant for
// local development where no SMTP server is around.
type ConsoleMailer struct {
	BaseURL string
}

var _ pageauth.Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(baseURL string) *ConsoleMailer {
	return &ConsoleMailer{BaseURL: baseURL}
}

func (m *ConsoleMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	m.print(to, "verification link", fmt.Sprintf("%s/verify/%s", strings.TrimRight(m.BaseURL, "/"), token))
	return nil
}

func (m *ConsoleMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	m.print(to, "password reset link", fmt.Sprintf("%s/password-reset/%s", strings.TrimRight(m.BaseURL, "/"), token))
	return nil
}

func (m *ConsoleMailer) SendTwoFactorCode(ctx context.Context, to, code string) error {
	m.print(to, "login code", code)
	return nil
}

func (m *ConsoleMailer) print(to, kind, value string) {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", to)
	fmt.Printf("%s: %s\n", kind, value)
	fmt.Println("=========================================")
}
