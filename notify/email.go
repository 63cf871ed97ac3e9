package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/pageauth/pageauth"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP delivery options plus the public base URL used to build
// the links embedded in the emails.
type Config struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	From     string
	BaseURL  string
	AppName  string
}

// SMTPMailer delivers account emails over SMTP
type SMTPMailer struct {
	cfg    Config
	logger pageauth.Logger
}

var _ pageauth.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg Config, logger pageauth.Logger) *SMTPMailer {
	if cfg.AppName == "" {
		cfg.AppName = "pageauth"
	}
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
	}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify/%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Verify your email</h2>
    <p>Click the link below to verify your email address:</p>
    <p><a href="%s">%s</a></p>
    <p>The link is valid for 24 hours. If you did not sign up you can ignore this email.</p>
  </div>
</body>
</html>`, link, link)

	return m.send(to, fmt.Sprintf("[%s] Verify your email", m.cfg.AppName), body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/password-reset/%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Password reset</h2>
    <p>Someone requested a password reset for this address. If it was you, follow the link:</p>
    <p><a href="%s">%s</a></p>
    <p>The link is valid for 24 hours and can only be used once.</p>
  </div>
</body>
</html>`, link, link)

	return m.send(to, fmt.Sprintf("[%s] Password reset", m.cfg.AppName), body)
}

func (m *SMTPMailer) SendTwoFactorCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Your login code</h2>
    <p>Use this code to finish signing in:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>The code expires in 10 minutes.</p>
  </div>
</body>
</html>`, code)

	return m.send(to, fmt.Sprintf("[%s] Your login code", m.cfg.AppName), body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	if m.cfg.SMTPHost == "" || m.cfg.From == "" {
		return fmt.Errorf("email config missing")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if m.logger != nil {
		m.logger.Info("email sent", "to", to, "subject", subject)
	}
	return nil
}
