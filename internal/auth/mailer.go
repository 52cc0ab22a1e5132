package auth

import (
	"fmt"
	"log/slog"
	"net/url"

	"gopkg.in/gomail.v2"
)

// Mailer sends email over SMTP. In dev mode it logs instead of sending.
type Mailer struct {
	config Config
	send   func(...*gomail.Message) error
}

// NewMailer creates a mailer.
func NewMailer(config Config) *Mailer {
	d := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPass)
	return &Mailer{config: config, send: d.DialAndSend}
}

// SendMagicLink emails a web login link and returns it.
func (m *Mailer) SendMagicLink(email, token string) (string, error) {
	link := m.config.BaseURL + "/auth/verify?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(
		"Click the link below to sign in to UniNest:\n\n%s\n\nThis link expires in 15 minutes and can only be used once.",
		link,
	)
	return link, m.deliver(email, "UniNest sign-in link", body, "link", link)
}

// SendCLIMagicLink emails a link that authorizes a CLI login.
func (m *Mailer) SendCLIMagicLink(email, token string) (string, error) {
	link := m.config.BaseURL + "/cli/auth/verify?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(
		"Click the link below to sign in to the UniNest CLI:\n\n%s\n\nThis link expires in 15 minutes and can only be used once.",
		link,
	)
	return link, m.deliver(email, "UniNest CLI sign-in link", body, "link", link)
}

// Send delivers a plain-text email.
func (m *Mailer) Send(to, subject, body string) error {
	return m.deliver(to, subject, body)
}

func (m *Mailer) deliver(to, subject, body string, logArgs ...any) error {
	if m.config.DevMode {
		slog.Info("dev mode email", append([]any{"to", to, "subject", subject}, logArgs...)...)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.SMTPFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.send(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
